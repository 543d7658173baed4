package session

import (
	"strconv"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
	StatusError  Status = "error"
)

// Session is the record of one connected voice session.
type Session struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id"`
	SubjectID    string    `json:"subject_id"`
	Status       Status    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	MessageCount int64     `json:"message_count"`
}

func (s *Session) RedisKey() string {
	return sessionKey(s.ID)
}

func sessionKey(id string) string {
	return "session:" + id
}

const (
	FieldSessions      = "sessions"
	FieldMessages      = "messages"
	FieldInterruptions = "interruptions"
	FieldErrors        = "errors"
)

// Metrics are the hourly counters of one subject.
type Metrics struct {
	SubjectID     string `json:"subject_id"`
	Date          string `json:"date"`
	Hour          int    `json:"hour"`
	Sessions      int64  `json:"sessions"`
	Messages      int64  `json:"messages"`
	Interruptions int64  `json:"interruptions"`
	Errors        int64  `json:"errors"`
}

func MetricsRedisKey(subjectID, date string, hour int) string {
	return "subject:" + subjectID + ":metrics:" + date + ":" + strconv.Itoa(hour)
}
