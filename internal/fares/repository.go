package fares

import (
	"context"
)

// ConfigRepository stores the append-only history of fare configurations
type ConfigRepository interface {
	// GetActive returns the active configuration, or ErrNoActiveConfiguration
	GetActive(ctx context.Context) (*FareConfiguration, error)
	// Rotate deactivates the current configuration and stores cfg as the
	// active one in a single atomic step. It returns the new id.
	Rotate(ctx context.Context, cfg *FareConfiguration) (string, error)
	// List returns up to limit configurations, newest first
	List(ctx context.Context, limit int) ([]*FareConfiguration, error)
}

// SurgeRuleRepository stores surge pricing rules
type SurgeRuleRepository interface {
	Create(ctx context.Context, rule *SurgePricingRule) (string, error)
	// Get returns ErrSurgeRuleNotFound for an unknown id
	Get(ctx context.Context, id string) (*SurgePricingRule, error)
	// List returns every rule, newest first
	List(ctx context.Context) ([]*SurgePricingRule, error)
	// Update replaces the stored rule with the same id
	Update(ctx context.Context, rule *SurgePricingRule) error
	Delete(ctx context.Context, id string) error
	// FindCandidates returns active rules for area whose days include weekday
	FindCandidates(ctx context.Context, area, weekday string) ([]*SurgePricingRule, error)
}

// DefaultHistoryLimit caps ListFareConfigurations when no limit is given
const DefaultHistoryLimit = 20

// MaxHistoryLimit is the largest page ListFareConfigurations returns
const MaxHistoryLimit = 100
