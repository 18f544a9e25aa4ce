package repositories

import (
	"context"
	"fmt"
	"milk-collection-service/internal/domain"
	"sort"
	"sync"
)

// MemoryRunRepository keeps runs in process memory. It is used when no
// database is configured and in tests.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*domain.Run
	// order of insertion, used to break created_at ties.
	seq map[string]int
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{
		runs: make(map[string]*domain.Run),
		seq:  make(map[string]int),
	}
}

func (m *MemoryRunRepository) Save(_ context.Context, run *domain.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("save run: missing id: %w", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[run.ID]; ok {
		return fmt.Errorf("save run %s: duplicate id: %w", run.ID, domain.ErrInvalidInput)
	}
	m.runs[run.ID] = run
	m.seq[run.ID] = len(m.seq)
	return nil
}

func (m *MemoryRunRepository) Get(_ context.Context, id string) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("get run %s: %w", id, domain.ErrNotFound)
	}
	return run, nil
}

func (m *MemoryRunRepository) List(_ context.Context, trigger domain.Trigger) ([]*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Run, 0, len(m.runs))
	for _, run := range m.runs {
		if trigger == "" || run.Trigger == trigger {
			out = append(out, run)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.seq[out[i].ID] > m.seq[out[j].ID]
	})
	return out, nil
}

func (m *MemoryRunRepository) Latest(ctx context.Context, trigger domain.Trigger) (*domain.Run, error) {
	runs, err := m.List(ctx, trigger)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("latest %s run: %w", trigger, domain.ErrNotFound)
	}
	return runs[0], nil
}
