package resource

import (
	"time"

	"github.com/eleven-am/mohami/internal/voicesession"
)

type Type string

const (
	TypePDF   Type = "pdf"
	TypeText  Type = "text"
	TypeImage Type = "image"
)

const TextNoteTitle = "ملاحظة نصية"

func ImageTitle(filename string) string {
	return "[صورة] " + filename
}

type Resource struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	SubjectID string    `gorm:"not null;index" json:"subject_id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Type      Type      `gorm:"not null" json:"type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Persisted is false for records kept locally after a failed insert.
	Persisted bool `gorm:"-" json:"persisted"`
}

func (Resource) TableName() string {
	return "resources"
}

func (r *Resource) Document() voicesession.Document {
	return voicesession.Document{
		Title:   r.Title,
		Type:    string(r.Type),
		Content: r.Content,
	}
}
