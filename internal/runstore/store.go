package runstore

import (
	"sort"
	"sync"
	"time"
)

type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusResolving RunStatus = "resolving"
	StatusWatching  RunStatus = "watching"
	StatusNoThread  RunStatus = "no_thread"
	StatusDone      RunStatus = "done"
)

// Run records the lifecycle of one relay worker activation.
type Run struct {
	ID        string     `json:"id"`
	OrderKey  string     `json:"order_key"`
	OrderID   string     `json:"order_id"`
	Status    RunStatus  `json:"status"`
	Delivered int        `json:"delivered"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Logs      []LogEntry `json:"logs"`
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // info, error
	Message   string    `json:"message"`
}

// Store is an in-memory run ledger. Contents reset on restart.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewStore() *Store {
	return &Store{
		runs: make(map[string]*Run),
	}
}

func (s *Store) Create(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.CreatedAt = time.Now()
	run.UpdatedAt = time.Now()
	s.runs[run.ID] = run
}

func (s *Store) Get(id string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return copyRun(run), true
}

// List returns copies of all runs, newest first. Copies keep callers
// (the /runs endpoint) from racing with worker updates.
func (s *Store) List() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, copyRun(run))
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs
}

func (s *Store) UpdateStatus(id string, status RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Status = status
		run.UpdatedAt = time.Now()
	}
}

func (s *Store) AddLog(id, level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Logs = append(run.Logs, LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Message:   message,
		})
		run.UpdatedAt = time.Now()
	}
}

// RecordDelivery increments the run's delivered-comment count.
func (s *Store) RecordDelivery(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		run.Delivered++
		run.UpdatedAt = time.Now()
	}
}

func copyRun(run *Run) Run {
	out := *run
	out.Logs = append([]LogEntry(nil), run.Logs...)
	return out
}
