package service

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
)

// RunStore keeps recent distribution runs in memory so their reports can be
// downloaded and notified later.
type RunStore struct {
	runs    map[string]*model.DistributionRun
	mu      sync.RWMutex
	maxRuns int // Maximum runs to keep, 0 = unlimited
}

func NewRunStore(maxRuns int) *RunStore {
	if maxRuns < 0 {
		maxRuns = 0
	}
	return &RunStore{
		runs:    make(map[string]*model.DistributionRun),
		maxRuns: maxRuns,
	}
}

func (s *RunStore) Save(run *model.DistributionRun) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	s.cleanupIfNeeded()
}

func (s *RunStore) Get(id string) *model.DistributionRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[id]
}

// ListByOwner returns the runs started by owner, newest first. An empty
// owner lists every run.
func (s *RunStore) ListByOwner(owner string) []*model.DistributionRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.DistributionRun
	for _, r := range s.runs {
		if owner == "" || r.Owner == owner {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *RunStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
}

// cleanupIfNeeded removes the oldest runs beyond maxRuns.
// Must be called with lock held
func (s *RunStore) cleanupIfNeeded() {
	if s.maxRuns <= 0 || len(s.runs) <= s.maxRuns {
		return
	}

	runs := make([]*model.DistributionRun, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})

	for _, r := range runs[:len(runs)-s.maxRuns] {
		slog.Info("evicting old run", "run_id", r.ID, "created_at", r.CreatedAt)
		delete(s.runs, r.ID)
	}
}

func (s *RunStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// NavigatorStore hands out one Navigator per user.
type NavigatorStore struct {
	mu          sync.Mutex
	sessions    map[string]*Navigator
	gateway     *Gateway
	pageSize    int
	maxPageSize int
}

func NewNavigatorStore(gw *Gateway, pageSize, maxPageSize int) *NavigatorStore {
	return &NavigatorStore{
		sessions:    make(map[string]*Navigator),
		gateway:     gw,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

// For returns the session of user, starting one at the root if needed.
func (s *NavigatorStore) For(user string) *Navigator {
	s.mu.Lock()
	defer s.mu.Unlock()

	nav, ok := s.sessions[user]
	if !ok {
		nav = NewNavigator(s.gateway, s.pageSize, s.maxPageSize)
		s.sessions[user] = nav
	}
	return nav
}

// Reset drops the session of user.
func (s *NavigatorStore) Reset(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, user)
}
