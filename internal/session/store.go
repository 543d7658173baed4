package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/mohami/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	sessionTTL = 24 * time.Hour
	metricsTTL = 7 * 24 * time.Hour
)

type Store struct {
	redis *redis.Client
	clock clock.Clock
}

func NewStore(redisClient *redis.Client, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{redis: redisClient, clock: clk}
}

func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = shared.NewID("vs_")
	}
	now := s.clock.Now()
	sess.Status = StatusActive
	sess.StartedAt = now
	sess.LastActiveAt = now

	return s.put(ctx, sess)
}

func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) UpdateSession(ctx context.Context, sess *Session) error {
	sess.LastActiveAt = s.clock.Now()
	return s.put(ctx, sess)
}

func (s *Store) EndSession(ctx context.Context, id string, status Status) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	sess.Status = status
	return s.UpdateSession(ctx, sess)
}

// RecordMessage bumps the session's message count.
func (s *Store) RecordMessage(ctx context.Context, id string) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	sess.MessageCount++
	return s.UpdateSession(ctx, sess)
}

func (s *Store) GetActiveSessions(ctx context.Context, subjectID string) ([]*Session, error) {
	var sessions []*Session
	iter := s.redis.Scan(ctx, 0, "session:vs_*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.redis.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if sess.SubjectID == subjectID && sess.Status == StatusActive {
			sessions = append(sessions, &sess)
		}
	}
	return sessions, iter.Err()
}

func (s *Store) IncrementMetric(ctx context.Context, subjectID string, field string, value int64) error {
	now := s.clock.Now().UTC()
	key := MetricsRedisKey(subjectID, now.Format("2006-01-02"), now.Hour())

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, field, value)
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) IncrementSessions(ctx context.Context, subjectID string) error {
	return s.IncrementMetric(ctx, subjectID, FieldSessions, 1)
}

func (s *Store) IncrementMessages(ctx context.Context, subjectID string) error {
	return s.IncrementMetric(ctx, subjectID, FieldMessages, 1)
}

func (s *Store) IncrementInterruptions(ctx context.Context, subjectID string) error {
	return s.IncrementMetric(ctx, subjectID, FieldInterruptions, 1)
}

func (s *Store) IncrementErrors(ctx context.Context, subjectID string) error {
	return s.IncrementMetric(ctx, subjectID, FieldErrors, 1)
}

// GetMetrics returns the non-empty hourly buckets of the last hours, newest first.
func (s *Store) GetMetrics(ctx context.Context, subjectID string, hours int) ([]*Metrics, error) {
	now := s.clock.Now().UTC()
	var metrics []*Metrics

	for i := 0; i < hours; i++ {
		t := now.Add(-time.Duration(i) * time.Hour)
		key := MetricsRedisKey(subjectID, t.Format("2006-01-02"), t.Hour())

		data, err := s.redis.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}

		m := &Metrics{
			SubjectID: subjectID,
			Date:      t.Format("2006-01-02"),
			Hour:      t.Hour(),
		}
		m.Sessions, _ = strconv.ParseInt(data[FieldSessions], 10, 64)
		m.Messages, _ = strconv.ParseInt(data[FieldMessages], 10, 64)
		m.Interruptions, _ = strconv.ParseInt(data[FieldInterruptions], 10, 64)
		m.Errors, _ = strconv.ParseInt(data[FieldErrors], 10, 64)

		metrics = append(metrics, m)
	}

	return metrics, nil
}

func (s *Store) put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sess.RedisKey(), data, sessionTTL).Err()
}
