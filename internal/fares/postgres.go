package fares

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/richxcame/delivery-fares/pkg/tracing"
)

const tracerName = "fares"

// DB is the subset of *pgxpool.Pool the postgres stores use
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const configColumns = `id, base_fare_per_km, delay_surcharge_percentage, night_weather_surcharge_percentage,
	high_demand_surcharge_percentage, waiting_time_surcharge_percentage, free_waiting_time_minutes,
	max_delay_minutes_per_km, currency, is_active, created_at, updated_at`

const ruleColumns = `id, area, multiplier, start_time, end_time, days, is_active, created_at, updated_at`

// PostgresConfigStore persists fare configurations in fare_configurations
type PostgresConfigStore struct {
	db DB
}

// NewPostgresConfigStore creates a new fare configuration repository
func NewPostgresConfigStore(db DB) *PostgresConfigStore {
	return &PostgresConfigStore{db: db}
}

var _ ConfigRepository = (*PostgresConfigStore)(nil)

// GetActive returns the row with is_active set
func (s *PostgresConfigStore) GetActive(ctx context.Context) (*FareConfiguration, error) {
	var cfg *FareConfiguration
	err := observeStore(ctx, "postgresql", "get_active", "fare_configurations", func(ctx context.Context) error {
		row := s.db.QueryRow(ctx, `
			SELECT `+configColumns+`
			FROM fare_configurations
			WHERE is_active
			ORDER BY created_at DESC
			LIMIT 1
		`)
		var err error
		cfg, err = scanConfig(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveConfiguration
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active fare configuration: %w", err)
	}
	return cfg, nil
}

// Rotate locks the table against concurrent rotations, deactivates the
// current version and inserts cfg, all in one transaction.
func (s *PostgresConfigStore) Rotate(ctx context.Context, cfg *FareConfiguration) (string, error) {
	id := uuid.New()
	err := observeStore(ctx, "postgresql", "rotate", "fare_configurations", func(ctx context.Context) error {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, `LOCK TABLE fare_configurations IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock fare configurations: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE fare_configurations SET is_active = false, updated_at = $1
			WHERE is_active
		`, cfg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to deactivate current configuration: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO fare_configurations (`+configColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, $10, $11)
		`, id, int64(cfg.BaseFarePerKm), cfg.DelaySurchargePercentage, cfg.NightWeatherSurchargePercentage,
			cfg.HighDemandSurchargePercentage, cfg.WaitingTimeSurchargePercentage, cfg.FreeWaitingTimeMinutes,
			cfg.MaxDelayMinutesPerKm, cfg.Currency, cfg.CreatedAt, cfg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert configuration: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// List returns up to limit configurations, newest first
func (s *PostgresConfigStore) List(ctx context.Context, limit int) ([]*FareConfiguration, error) {
	var configs []*FareConfiguration
	err := observeStore(ctx, "postgresql", "list", "fare_configurations", func(ctx context.Context) error {
		rows, err := s.db.Query(ctx, `
			SELECT `+configColumns+`
			FROM fare_configurations
			ORDER BY created_at DESC
			LIMIT $1
		`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			cfg, err := scanConfig(rows)
			if err != nil {
				return err
			}
			configs = append(configs, cfg)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list fare configurations: %w", err)
	}
	return configs, nil
}

// PostgresSurgeRuleStore persists surge rules in surge_pricing_rules
type PostgresSurgeRuleStore struct {
	db DB
}

// NewPostgresSurgeRuleStore creates a new surge rule repository
func NewPostgresSurgeRuleStore(db DB) *PostgresSurgeRuleStore {
	return &PostgresSurgeRuleStore{db: db}
}

var _ SurgeRuleRepository = (*PostgresSurgeRuleStore)(nil)

// Create inserts a rule and returns its id
func (s *PostgresSurgeRuleStore) Create(ctx context.Context, rule *SurgePricingRule) (string, error) {
	id := uuid.New()
	err := observeStore(ctx, "postgresql", "create", "surge_pricing_rules", func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, `
			INSERT INTO surge_pricing_rules (`+ruleColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, id, rule.Area, rule.Multiplier, rule.StartTime, rule.EndTime, rule.Days,
			rule.IsActive, rule.CreatedAt, rule.UpdatedAt)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create surge rule: %w", err)
	}
	return id.String(), nil
}

// Get returns a rule by id
func (s *PostgresSurgeRuleStore) Get(ctx context.Context, id string) (*SurgePricingRule, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSurgeRuleNotFound
	}

	var rule *SurgePricingRule
	err = observeStore(ctx, "postgresql", "get", "surge_pricing_rules", func(ctx context.Context) error {
		row := s.db.QueryRow(ctx, `SELECT `+ruleColumns+` FROM surge_pricing_rules WHERE id = $1`, ruleID)
		var err error
		rule, err = scanRule(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSurgeRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get surge rule: %w", err)
	}
	return rule, nil
}

// List returns every rule, newest first
func (s *PostgresSurgeRuleStore) List(ctx context.Context) ([]*SurgePricingRule, error) {
	rules, err := s.queryRules(ctx, "list", `
		SELECT `+ruleColumns+`
		FROM surge_pricing_rules
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list surge rules: %w", err)
	}
	return rules, nil
}

// Update overwrites a rule
func (s *PostgresSurgeRuleStore) Update(ctx context.Context, rule *SurgePricingRule) error {
	ruleID, err := uuid.Parse(rule.ID)
	if err != nil {
		return ErrSurgeRuleNotFound
	}

	var affected int64
	err = observeStore(ctx, "postgresql", "update", "surge_pricing_rules", func(ctx context.Context) error {
		tag, err := s.db.Exec(ctx, `
			UPDATE surge_pricing_rules SET
				area = $2, multiplier = $3, start_time = $4, end_time = $5,
				days = $6, is_active = $7, updated_at = $8
			WHERE id = $1
		`, ruleID, rule.Area, rule.Multiplier, rule.StartTime, rule.EndTime, rule.Days,
			rule.IsActive, rule.UpdatedAt)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update surge rule: %w", err)
	}
	if affected == 0 {
		return ErrSurgeRuleNotFound
	}
	return nil
}

// Delete removes a rule
func (s *PostgresSurgeRuleStore) Delete(ctx context.Context, id string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return ErrSurgeRuleNotFound
	}

	var affected int64
	err = observeStore(ctx, "postgresql", "delete", "surge_pricing_rules", func(ctx context.Context) error {
		tag, err := s.db.Exec(ctx, `DELETE FROM surge_pricing_rules WHERE id = $1`, ruleID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete surge rule: %w", err)
	}
	if affected == 0 {
		return ErrSurgeRuleNotFound
	}
	return nil
}

// FindCandidates returns active rules for area whose days include weekday
func (s *PostgresSurgeRuleStore) FindCandidates(ctx context.Context, area, weekday string) ([]*SurgePricingRule, error) {
	rules, err := s.queryRules(ctx, "find_candidates", `
		SELECT `+ruleColumns+`
		FROM surge_pricing_rules
		WHERE area = $1 AND is_active AND $2 = ANY(days)
		ORDER BY created_at DESC, id
	`, area, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to find surge rules: %w", err)
	}
	return rules, nil
}

func (s *PostgresSurgeRuleStore) queryRules(ctx context.Context, operation, query string, args ...any) ([]*SurgePricingRule, error) {
	var rules []*SurgePricingRule
	err := observeStore(ctx, "postgresql", operation, "surge_pricing_rules", func(ctx context.Context) error {
		rows, err := s.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rule, err := scanRule(rows)
			if err != nil {
				return err
			}
			rules = append(rules, rule)
		}
		return rows.Err()
	})
	return rules, err
}

func scanConfig(row pgx.Row) (*FareConfiguration, error) {
	var (
		cfg   FareConfiguration
		id    uuid.UUID
		perKm int64
	)
	err := row.Scan(
		&id, &perKm, &cfg.DelaySurchargePercentage, &cfg.NightWeatherSurchargePercentage,
		&cfg.HighDemandSurchargePercentage, &cfg.WaitingTimeSurchargePercentage, &cfg.FreeWaitingTimeMinutes,
		&cfg.MaxDelayMinutesPerKm, &cfg.Currency, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.ID = id.String()
	cfg.BaseFarePerKm = Amount(perKm)
	return &cfg, nil
}

func scanRule(row pgx.Row) (*SurgePricingRule, error) {
	var (
		rule SurgePricingRule
		id   uuid.UUID
	)
	err := row.Scan(
		&id, &rule.Area, &rule.Multiplier, &rule.StartTime, &rule.EndTime, &rule.Days,
		&rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.ID = id.String()
	return &rule, nil
}

// observeStore traces a store round trip and records its latency
func observeStore(ctx context.Context, system, operation, collection string, fn func(context.Context) error) error {
	start := time.Now()
	err := tracing.TraceStoreCall(ctx, tracerName, system, operation, collection, fn)
	recordStoreOperation(system, operation, time.Since(start), err)
	return err
}
