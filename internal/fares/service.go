package fares

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richxcame/delivery-fares/internal/clock"
	"github.com/richxcame/delivery-fares/pkg/logger"
	"github.com/richxcame/delivery-fares/pkg/tracing"
	"github.com/richxcame/delivery-fares/pkg/validation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ServiceParams wires a Service. Configs and SurgeRules are required.
type ServiceParams struct {
	Configs    ConfigRepository
	SurgeRules SurgeRuleRepository
	Clock      clock.Clock
	// Location is where surge windows are evaluated; UTC when nil
	Location *time.Location
	Logger   *zap.Logger
}

// Service handles fare configuration, surge rules and fare calculation
type Service struct {
	configs    ConfigRepository
	surgeRules SurgeRuleRepository
	clock      clock.Clock
	location   *time.Location
	logger     *zap.Logger
}

// NewService creates a new fares service
func NewService(p ServiceParams) *Service {
	if p.Clock == nil {
		p.Clock = clock.SystemClock{}
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &Service{
		configs:    p.Configs,
		surgeRules: p.SurgeRules,
		clock:      p.Clock,
		location:   p.Location,
		logger:     p.Logger,
	}
}

// GetFareConfiguration returns the active configuration, or the built-in
// default when none has been saved yet.
func (s *Service) GetFareConfiguration(ctx context.Context) (*FareConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.GetFareConfiguration")
	defer span.End()

	cfg, err := s.activeConfiguration(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(tracing.FareConfigIDKey.String(cfg.ID))
	return cfg, nil
}

// UpdateFareConfiguration stores a new active configuration built from input
// laid over the current one, and returns its id.
func (s *Service) UpdateFareConfiguration(ctx context.Context, input FareConfigurationInput) (string, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.UpdateFareConfiguration")
	defer span.End()

	current, err := s.activeConfiguration(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return "", err
	}

	next := input.Merge(current)
	if err := ValidateConfiguration(next); err != nil {
		return "", err
	}
	now := s.clock.Now(ctx)
	next.CreatedAt = now
	next.UpdatedAt = now

	id, err := s.configs.Rotate(ctx, next)
	configRotationsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		tracing.RecordError(ctx, err)
		return "", writeFailed("rotate fare configuration", err)
	}

	span.SetAttributes(tracing.FareConfigIDKey.String(id))
	s.log(ctx).Info("fare configuration rotated",
		zap.String("configuration_id", id),
		zap.String("previous_configuration_id", current.ID),
		zap.Int64("base_fare_per_km", int64(next.BaseFarePerKm)),
	)
	return id, nil
}

// ListFareConfigurations returns saved configurations, newest first
func (s *Service) ListFareConfigurations(ctx context.Context, limit int) ([]*FareConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.ListFareConfigurations")
	defer span.End()

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	configs, err := s.configs.List(ctx, limit)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, unavailable("list fare configurations", err)
	}
	if configs == nil {
		configs = []*FareConfiguration{}
	}
	return configs, nil
}

// CalculateFare prices a trip with the active configuration and, when an
// area is given, the surge rule in force for it now.
func (s *Service) CalculateFare(ctx context.Context, params FareCalcParams) (*FareCalculation, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.CalculateFare",
		trace.WithAttributes(
			tracing.FareAreaKey.String(params.Area),
			tracing.FareDistanceKey.Float64(params.DistanceKm),
		),
	)
	defer span.End()

	calc, err := s.calculate(ctx, params)
	recordCalculation(calc, err)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		tracing.FareTotalKey.Int64(int64(calc.TotalFare)),
		tracing.FareSurgeKey.Float64(calc.SurgeMultiplier),
		tracing.FareConfigIDKey.String(calc.ConfigurationID),
	)
	s.log(ctx).Debug("fare calculated",
		zap.String("area", params.Area),
		zap.Float64("distance_km", params.DistanceKm),
		zap.Int64("base_fare", int64(calc.BaseFare)),
		zap.Int64("delay_surcharge", int64(calc.DelaySurcharge)),
		zap.Int64("night_weather_surcharge", int64(calc.NightWeatherSurcharge)),
		zap.Int64("high_demand_surcharge", int64(calc.HighDemandSurcharge)),
		zap.Int64("waiting_time_surcharge", int64(calc.WaitingTimeSurcharge)),
		zap.Float64("surge_multiplier", calc.SurgeMultiplier),
		zap.String("surge_rule_id", calc.SurgeRuleID),
		zap.Int64("total_fare", int64(calc.TotalFare)),
	)
	return calc, nil
}

func (s *Service) calculate(ctx context.Context, params FareCalcParams) (*FareCalculation, error) {
	params.Area = strings.TrimSpace(params.Area)
	if err := ValidateParams(params); err != nil {
		return nil, err
	}

	cfg, err := s.activeConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	surge := 1.0
	var ruleID string
	if params.Area != "" {
		res, err := s.resolve(ctx, params.Area)
		if err != nil {
			return nil, err
		}
		surge = res.Multiplier
		if res.Rule != nil {
			ruleID = res.Rule.ID
		}
	}

	calc, err := Calculate(params, cfg, surge)
	if err != nil {
		return nil, err
	}
	calc.SurgeRuleID = ruleID
	return calc, nil
}

// ResolveSurge reports which surge rule applies to area right now
func (s *Service) ResolveSurge(ctx context.Context, area string) (*SurgeResolution, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.ResolveSurge",
		trace.WithAttributes(tracing.FareAreaKey.String(area)))
	defer span.End()

	area = strings.TrimSpace(area)
	if area == "" {
		return nil, &ValidationError{Errors: map[string]string{"area": "is required"}}
	}

	res, err := s.resolve(ctx, area)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(tracing.FareSurgeKey.Float64(res.Multiplier))
	return res, nil
}

func (s *Service) resolve(ctx context.Context, area string) (*SurgeResolution, error) {
	now := s.clock.Now(ctx).In(s.location)
	res := &SurgeResolution{Area: area, EvaluatedAt: now, Multiplier: 1}

	candidates, err := s.surgeRules.FindCandidates(ctx, area, WeekdayName(now))
	if err != nil {
		return nil, unavailable("find surge rules", err)
	}

	rule, matches := SelectRule(candidates, area, now)
	if rule == nil {
		return res, nil
	}

	if len(matches) > 1 {
		surgeAmbiguousTotal.Inc()
		s.log(ctx).Warn("surge resolution ambiguous",
			zap.String("area", area),
			zap.Time("evaluated_at", now),
			zap.Strings("matched_rule_ids", ruleIDs(matches)),
			zap.String("selected_rule_id", rule.ID),
		)
	}

	res.Rule = rule
	res.MatchedIDs = ruleIDs(matches)
	if rule.Multiplier > 0 {
		res.Multiplier = rule.Multiplier
	}
	trace.SpanFromContext(ctx).SetAttributes(tracing.SurgeRuleIDKey.String(rule.ID))
	return res, nil
}

// CreateSurgePricing validates and stores a new surge rule
func (s *Service) CreateSurgePricing(ctx context.Context, input SurgeRuleInput) (string, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.CreateSurgePricing",
		trace.WithAttributes(tracing.FareAreaKey.String(input.Area)))
	defer span.End()

	input.Area = strings.TrimSpace(input.Area)
	if err := validation.ValidateStruct(input); err != nil {
		return "", err
	}

	now := s.clock.Now(ctx)
	rule := &SurgePricingRule{
		Area:       input.Area,
		Multiplier: input.Multiplier,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Days:       NormalizeDays(input.Days),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}

	id, err := s.surgeRules.Create(ctx, rule)
	if err != nil {
		tracing.RecordError(ctx, err)
		return "", writeFailed("create surge rule", err)
	}

	span.SetAttributes(tracing.SurgeRuleIDKey.String(id))
	s.log(ctx).Info("surge rule created",
		zap.String("surge_rule_id", id),
		zap.String("area", rule.Area),
		zap.Float64("multiplier", rule.Multiplier),
	)
	return id, nil
}

// GetSurgePricingRules returns every surge rule, newest first
func (s *Service) GetSurgePricingRules(ctx context.Context) ([]*SurgePricingRule, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.GetSurgePricingRules")
	defer span.End()

	rules, err := s.surgeRules.List(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, unavailable("list surge rules", err)
	}
	if rules == nil {
		rules = []*SurgePricingRule{}
	}
	return rules, nil
}

// UpdateSurgePricing applies a partial update and refreshes updatedAt
func (s *Service) UpdateSurgePricing(ctx context.Context, id string, update SurgeRuleUpdate) (*SurgePricingRule, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.UpdateSurgePricing",
		trace.WithAttributes(tracing.SurgeRuleIDKey.String(id)))
	defer span.End()

	rule, err := s.surgeRules.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSurgeRuleNotFound) {
			return nil, err
		}
		tracing.RecordError(ctx, err)
		return nil, unavailable("get surge rule", err)
	}

	applyUpdate(rule, update)
	merged := SurgeRuleInput{
		Area:       rule.Area,
		Multiplier: rule.Multiplier,
		StartTime:  rule.StartTime,
		EndTime:    rule.EndTime,
		Days:       rule.Days,
	}
	// A stored multiplier below 1 is kept as is unless the update replaces it
	var skip []string
	if update.Multiplier == nil {
		skip = append(skip, "Multiplier")
	}
	if err := validation.ValidateStructExcept(merged, skip...); err != nil {
		return nil, err
	}
	rule.Days = NormalizeDays(rule.Days)
	rule.UpdatedAt = s.clock.Now(ctx)

	if err := s.surgeRules.Update(ctx, rule); err != nil {
		if errors.Is(err, ErrSurgeRuleNotFound) {
			return nil, err
		}
		tracing.RecordError(ctx, err)
		return nil, writeFailed("update surge rule", err)
	}

	s.log(ctx).Info("surge rule updated", zap.String("surge_rule_id", id))
	return rule, nil
}

// DeleteSurgePricing removes a surge rule
func (s *Service) DeleteSurgePricing(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, tracerName, "fares.DeleteSurgePricing",
		trace.WithAttributes(tracing.SurgeRuleIDKey.String(id)))
	defer span.End()

	if err := s.surgeRules.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrSurgeRuleNotFound) {
			return err
		}
		tracing.RecordError(ctx, err)
		return writeFailed("delete surge rule", err)
	}

	s.log(ctx).Info("surge rule deleted", zap.String("surge_rule_id", id))
	return nil
}

func (s *Service) activeConfiguration(ctx context.Context) (*FareConfiguration, error) {
	cfg, err := s.configs.GetActive(ctx)
	if errors.Is(err, ErrNoActiveConfiguration) {
		return DefaultFareConfiguration(), nil
	}
	if err != nil {
		return nil, unavailable("get active fare configuration", err)
	}
	return cfg, nil
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, s.logger)
}

func applyUpdate(rule *SurgePricingRule, u SurgeRuleUpdate) {
	if u.Area != nil {
		rule.Area = strings.TrimSpace(*u.Area)
	}
	if u.Multiplier != nil {
		rule.Multiplier = *u.Multiplier
	}
	if u.StartTime != nil {
		rule.StartTime = strings.TrimSpace(*u.StartTime)
	}
	if u.EndTime != nil {
		rule.EndTime = strings.TrimSpace(*u.EndTime)
	}
	if u.Days != nil {
		rule.Days = append([]string(nil), (*u.Days)...)
	}
	if u.IsActive != nil {
		rule.IsActive = *u.IsActive
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConfigurationUnavailable, op, err)
}

func writeFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreWrite, op, err)
}
