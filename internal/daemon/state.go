package daemon

import (
	"sync"
	"time"

	"reportship/internal/model"

	"go.uber.org/zap"
)

type HistoryStore interface {
	Save(result model.TransferResult) error
}

// State collects what the dispatcher has done since startup. It is written
// by the dispatcher goroutine and read by API handlers.
type State struct {
	mu        sync.RWMutex
	startedAt time.Time
	watchRoot string
	roots     []string
	shipped   int
	unchanged int
	failed    int
	rejected  int
	deletes   int
	last      *model.ResultSummary

	store HistoryStore
	log   *zap.Logger
}

func NewState(watchRoot string, roots []string, store HistoryStore, log *zap.Logger) *State {
	return &State{
		startedAt: time.Now(),
		watchRoot: watchRoot,
		roots:     append([]string(nil), roots...),
		store:     store,
		log:       log,
	}
}

func (s *State) RecordResult(result model.TransferResult) {
	if s.store != nil {
		if err := s.store.Save(result); err != nil {
			s.log.Warn("failed to save history",
				zap.String("attempt", result.ID),
				zap.Error(err))
		}
	}

	summary := &model.ResultSummary{
		AttemptID:  result.ID,
		Outcome:    result.Outcome,
		LocalPath:  result.Request.LocalPath,
		RemotePath: result.Destination.RemotePath,
		FinishedAt: result.FinishedAt,
	}
	if result.Err != nil {
		summary.Err = result.Err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch result.Outcome {
	case model.OutcomeShipped:
		s.shipped++
	case model.OutcomeUnchanged:
		s.unchanged++
	default:
		s.failed++
	}
	s.last = summary
}

func (s *State) RecordRejected(model.FileEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected++
}

func (s *State) RecordDelete(model.FileEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
}

func (s *State) Snapshot() model.DaemonSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.DaemonSnapshot{
		StartedAt: s.startedAt,
		WatchRoot: s.watchRoot,
		Roots:     append([]string(nil), s.roots...),
		Shipped:   s.shipped,
		Unchanged: s.unchanged,
		Failed:    s.failed,
		Rejected:  s.rejected,
		Deletes:   s.deletes,
	}
	if s.last != nil {
		last := *s.last
		snap.LastResult = &last
	}

	return snap
}
