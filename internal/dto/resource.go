package dto

type ResourceResponse struct {
	ID        string `json:"id" example:"res_abc123"`
	SubjectID string `json:"subject_id" example:"sharia"`
	Title     string `json:"title" example:"lecture-3.pdf"`
	Content   string `json:"content,omitempty"`
	Type      string `json:"type" example:"pdf" enums:"pdf,text,image"`
	CreatedAt string `json:"created_at" example:"2024-01-15T10:30:00Z"`
	Persisted bool   `json:"persisted" example:"true"`
}

type ResourceListResponse struct {
	SubjectID string             `json:"subject_id" example:"sharia"`
	Resources []ResourceResponse `json:"resources"`
	// Fallback is set when the store was unreachable and only local records are listed.
	Fallback bool `json:"fallback,omitempty"`
}

type CreateTextNoteRequest struct {
	Content string `json:"content" example:"المادة 25: يسري على الالتزامات التعاقدية قانون الموطن المشترك"`
}

// CreateResourceResponse carries a warning when the record was kept locally only.
type CreateResourceResponse struct {
	Resource ResourceResponse `json:"resource"`
	Warning  string           `json:"warning,omitempty" example:"حدث خطأ أثناء الحفظ: connection refused"`
}
