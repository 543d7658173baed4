package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/mohami/internal/shared"
	"github.com/eleven-am/mohami/internal/voicesession"
)

var ErrStoreUnavailable = errors.New("resource store unavailable")

type Repository interface {
	Create(ctx context.Context, r *Resource) error
	ListBySubject(ctx context.Context, subjectID string) ([]*Resource, error)
	Delete(ctx context.Context, id string) error
}

// Library fronts the store with an in-memory overlay of records whose insert
// failed, so a study session can still use them until the next successful list.
type Library struct {
	repo  Repository
	clock clock.Clock
	log   *slog.Logger

	mu    sync.Mutex
	local []*Resource
	seq   int
}

func NewLibrary(repo Repository, clk clock.Clock, log *slog.Logger) *Library {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Library{
		repo:  repo,
		clock: clk,
		log:   log.With("component", "resource_library"),
	}
}

// List returns the subject's resources newest first. The boolean reports
// whether the store was unreachable and the result came from the overlay.
func (l *Library) List(ctx context.Context, subjectID string) ([]*Resource, bool) {
	rs, err := l.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		l.log.Warn("list from store failed, using local records", "subject_id", subjectID, "error", err)
		return l.localFor(subjectID), true
	}

	l.mu.Lock()
	kept := l.local[:0]
	for _, r := range l.local {
		if r.SubjectID != subjectID {
			kept = append(kept, r)
		}
	}
	l.local = kept
	l.mu.Unlock()

	return rs, false
}

// Add inserts r. On a store failure r is kept locally with Persisted=false and
// returned together with an error wrapping ErrStoreUnavailable.
func (l *Library) Add(ctx context.Context, r *Resource) (*Resource, error) {
	r.CreatedAt = l.clock.Now()
	err := l.repo.Create(ctx, r)
	if err == nil {
		return r, nil
	}

	l.log.Error("insert failed, keeping local record", "subject_id", r.SubjectID, "type", r.Type, "error", err)

	l.mu.Lock()
	l.seq++
	r.ID = fmt.Sprintf("local_%d_%d", r.CreatedAt.UnixMilli(), l.seq)
	r.Persisted = false
	l.local = append([]*Resource{r}, l.local...)
	l.mu.Unlock()

	return r, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (l *Library) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	for i, r := range l.local {
		if r.ID == id {
			l.local = append(l.local[:i], l.local[i+1:]...)
			l.mu.Unlock()
			return nil
		}
	}
	l.mu.Unlock()

	if err := l.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete resource %s: %w", id, err)
	}
	return nil
}

// Documents renders the subject's resources as grounding documents for a voice session.
func (l *Library) Documents(ctx context.Context, subjectID string) []voicesession.Document {
	rs, _ := l.List(ctx, subjectID)
	docs := make([]voicesession.Document, len(rs))
	for i, r := range rs {
		docs[i] = r.Document()
	}
	return docs
}

func (l *Library) localFor(subjectID string) []*Resource {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*Resource
	for _, r := range l.local {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	return out
}
