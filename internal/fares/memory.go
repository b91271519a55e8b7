package fares

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryConfigStore keeps fare configurations in process memory.
// Rotation holds one lock for the whole deactivate-and-insert step.
type MemoryConfigStore struct {
	mu      sync.RWMutex
	configs []*FareConfiguration
}

// NewMemoryConfigStore creates an empty in-process configuration store
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{}
}

var _ ConfigRepository = (*MemoryConfigStore)(nil)

// GetActive returns a copy of the active configuration
func (s *MemoryConfigStore) GetActive(ctx context.Context) (*FareConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active *FareConfiguration
	for _, c := range s.configs {
		if c.IsActive && (active == nil || c.CreatedAt.After(active.CreatedAt)) {
			active = c
		}
	}
	if active == nil {
		return nil, ErrNoActiveConfiguration
	}
	cp := *active
	return &cp, nil
}

// Rotate deactivates the current configuration and activates cfg under one lock
func (s *MemoryConfigStore) Rotate(ctx context.Context, cfg *FareConfiguration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.configs {
		if c.IsActive {
			c.IsActive = false
			c.UpdatedAt = cfg.CreatedAt
		}
	}

	stored := *cfg
	stored.ID = uuid.New().String()
	stored.IsActive = true
	stored.IsDefault = false
	s.configs = append(s.configs, &stored)

	return stored.ID, nil
}

// List returns up to limit configurations, newest first
func (s *MemoryConfigStore) List(ctx context.Context, limit int) ([]*FareConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Insertion order breaks CreatedAt ties, newest first
	out := make([]*FareConfiguration, 0, len(s.configs))
	for i := len(s.configs) - 1; i >= 0; i-- {
		cp := *s.configs[i]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemorySurgeRuleStore keeps surge rules in process memory
type MemorySurgeRuleStore struct {
	mu    sync.RWMutex
	rules map[string]*SurgePricingRule
	seq   map[string]int
	next  int
}

// NewMemorySurgeRuleStore creates an empty in-process surge rule store
func NewMemorySurgeRuleStore() *MemorySurgeRuleStore {
	return &MemorySurgeRuleStore{
		rules: make(map[string]*SurgePricingRule),
		seq:   make(map[string]int),
	}
}

var _ SurgeRuleRepository = (*MemorySurgeRuleStore)(nil)

// Create stores a copy of rule under a new UUID
func (s *MemorySurgeRuleStore) Create(ctx context.Context, rule *SurgePricingRule) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyRule(rule)
	stored.ID = uuid.New().String()
	s.rules[stored.ID] = stored
	s.next++
	s.seq[stored.ID] = s.next
	return stored.ID, nil
}

// Get returns a copy of the rule
func (s *MemorySurgeRuleStore) Get(ctx context.Context, id string) (*SurgePricingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rules[id]
	if !ok {
		return nil, ErrSurgeRuleNotFound
	}
	return copyRule(r), nil
}

// List returns every rule, newest first
func (s *MemorySurgeRuleStore) List(ctx context.Context) ([]*SurgePricingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*SurgePricingRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, copyRule(r))
	}
	s.sortNewestFirst(out)
	return out, nil
}

// Update replaces a stored rule
func (s *MemorySurgeRuleStore) Update(ctx context.Context, rule *SurgePricingRule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[rule.ID]; !ok {
		return ErrSurgeRuleNotFound
	}
	s.rules[rule.ID] = copyRule(rule)
	return nil
}

// Delete removes a rule
func (s *MemorySurgeRuleStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return ErrSurgeRuleNotFound
	}
	delete(s.rules, id)
	delete(s.seq, id)
	return nil
}

// FindCandidates returns active rules for area that list weekday
func (s *MemorySurgeRuleStore) FindCandidates(ctx context.Context, area, weekday string) ([]*SurgePricingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*SurgePricingRule
	for _, r := range s.rules {
		if r.IsActive && r.Area == area && r.coversDay(weekday) {
			out = append(out, copyRule(r))
		}
	}
	s.sortNewestFirst(out)
	return out, nil
}

// sortNewestFirst orders by CreatedAt, then by insertion order. Callers hold mu.
func (s *MemorySurgeRuleStore) sortNewestFirst(rules []*SurgePricingRule) {
	sort.Slice(rules, func(i, j int) bool {
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.After(rules[j].CreatedAt)
		}
		return s.seq[rules[i].ID] > s.seq[rules[j].ID]
	})
}

func copyRule(r *SurgePricingRule) *SurgePricingRule {
	cp := *r
	cp.Days = append([]string(nil), r.Days...)
	return &cp
}
