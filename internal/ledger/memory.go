package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// MemoryStore is an in-memory Store used for tests and the default dev
// backend. A single mutex guards all maps, which also serializes concurrent
// updates to the same transaction.
type MemoryStore struct {
	mu         sync.Mutex
	txs        map[string]core.Transaction
	goals      map[string]core.BudgetGoal
	exportLogs []core.ExportLog
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txs:   make(map[string]core.Transaction),
		goals: make(map[string]core.BudgetGoal),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	s.txs[t.ID] = t
	return t, nil
}

func (s *MemoryStore) Get(ctx context.Context, id, userID string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) Update(ctx context.Context, id, userID string, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}

	patched := patch.Apply(t)
	if err := patched.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.txs[id] = patched
	return patched, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, userID string, f Filters, p Page) ([]core.Transaction, int, error) {
	matched, err := s.List(ctx, userID, f)
	if err != nil {
		return nil, 0, err
	}

	// Newest first for paged listings.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})

	p = p.Normalize()
	total := len(matched)
	start := p.Offset()
	if start >= total {
		return []core.Transaction{}, total, nil
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) List(ctx context.Context, userID string, f Filters) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if t.UserID != userID {
			continue
		}
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DistinctCategories(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, t := range s.txs {
		if t.UserID == userID {
			seen[t.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) InsertGoal(ctx context.Context, g core.BudgetGoal) (core.BudgetGoal, error) {
	if err := g.Validate(); err != nil {
		return core.BudgetGoal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = uuid.NewString()
	if g.StartDate.IsZero() {
		g.StartDate = time.Now().UTC()
	}
	s.goals[g.ID] = g
	return g, nil
}

func (s *MemoryStore) ListGoals(ctx context.Context, userID string) ([]core.BudgetGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.BudgetGoal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *MemoryStore) UpdateGoal(ctx context.Context, id, userID string, patch core.GoalPatch) (core.BudgetGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.BudgetGoal{}, core.ErrNotFound
	}

	patched := patch.Apply(g)
	if err := patched.Validate(); err != nil {
		return core.BudgetGoal{}, err
	}
	s.goals[id] = patched
	return patched, nil
}

func (s *MemoryStore) AppendExportLog(ctx context.Context, l core.ExportLog) (core.ExportLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = uuid.NewString()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	s.exportLogs = append(s.exportLogs, l)
	return l, nil
}

func (s *MemoryStore) ListExportLogs(ctx context.Context, userID string) ([]core.ExportLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.ExportLog, 0)
	for _, l := range s.exportLogs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	// Newest first, matching the paged listings.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
