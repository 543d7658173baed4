package dto

type MetricsResponse struct {
	SubjectID     string `json:"subject_id" example:"sharia"`
	Date          string `json:"date" example:"2024-01-15"`
	Hour          int    `json:"hour" example:"14"`
	Sessions      int64  `json:"sessions" example:"12"`
	Messages      int64  `json:"messages" example:"140"`
	Interruptions int64  `json:"interruptions" example:"9"`
	Errors        int64  `json:"errors" example:"1"`
}

type MetricsListResponse struct {
	SubjectID string            `json:"subject_id" example:"sharia"`
	Hours     int               `json:"hours" example:"24"`
	Metrics   []MetricsResponse `json:"metrics"`
}

type SessionResponse struct {
	ID           string `json:"id" example:"vs_abc123"`
	ClientID     string `json:"client_id" example:"tab-7f3a"`
	SubjectID    string `json:"subject_id" example:"sharia"`
	Status       string `json:"status" example:"active" enums:"active,ended,error"`
	StartedAt    string `json:"started_at" example:"2024-01-15T10:30:00Z"`
	LastActiveAt string `json:"last_active_at" example:"2024-01-15T10:42:00Z"`
	MessageCount int64  `json:"message_count" example:"14"`
}
