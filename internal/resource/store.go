package resource

import (
	"context"
	"errors"

	"github.com/eleven-am/mohami/internal/shared"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Resource{})
}

func (s *Store) Create(ctx context.Context, r *Resource) error {
	if r.ID == "" {
		r.ID = shared.NewID("res_")
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return err
	}
	r.Persisted = true
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*Resource, error) {
	var r Resource
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Persisted = true
	return &r, nil
}

// ListBySubject returns the subject's resources, newest first.
func (s *Store) ListBySubject(ctx context.Context, subjectID string) ([]*Resource, error) {
	var rs []*Resource
	err := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Find(&rs).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rs {
		r.Persisted = true
	}
	return rs, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Resource{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
