package fares

import (
	"math"

	"github.com/richxcame/delivery-fares/pkg/validation"
)

// ValidateParams rejects trip parameters that cannot be priced
func ValidateParams(p FareCalcParams) error {
	ve := &ValidationError{}

	switch {
	case !isFinite(p.DistanceKm):
		ve.AddError("distance_km", "must be a finite number")
	case p.DistanceKm <= 0:
		ve.AddError("distance_km", "must be greater than 0")
	}
	checkDuration(ve, "actual_time_minutes", p.ActualTimeMinutes)
	checkDuration(ve, "waiting_time_minutes", p.WaitingTimeMinutes)

	return ve.ErrOrNil()
}

// ValidateConfiguration rejects a fare policy the calculator cannot use
func ValidateConfiguration(cfg *FareConfiguration) error {
	if cfg == nil {
		return &ValidationError{Errors: map[string]string{"configuration": "is required"}}
	}
	if err := validation.ValidateStruct(cfg); err != nil {
		return err
	}

	ve := &ValidationError{}
	for field, v := range map[string]float64{
		"delay_surcharge_percentage":         cfg.DelaySurchargePercentage,
		"night_weather_surcharge_percentage": cfg.NightWeatherSurchargePercentage,
		"high_demand_surcharge_percentage":   cfg.HighDemandSurchargePercentage,
		"waiting_time_surcharge_percentage":  cfg.WaitingTimeSurchargePercentage,
		"free_waiting_time_minutes":          cfg.FreeWaitingTimeMinutes,
		"max_delay_minutes_per_km":           cfg.MaxDelayMinutesPerKm,
	} {
		if !isFinite(v) {
			ve.AddError(field, "must be a finite number")
		}
	}
	return ve.ErrOrNil()
}

// MaxFare is the largest fare Calculate will produce. Every Amount up to it
// is exactly representable as a float64.
const MaxFare Amount = 1 << 53

// Calculate prices a trip. It is a pure function of its arguments.
//
// Every surcharge is a percentage of the base fare; they are added, not
// compounded. The surge multiplier then scales the unrounded subtotal and the
// result is rounded once. The per-component amounts are rounded for display
// only, so they may differ from Subtotal by a unit or two. A multiplier that is
// not a positive number means "no surge".
func Calculate(params FareCalcParams, cfg *FareConfiguration, surgeMultiplier float64) (*FareCalculation, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if err := ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	if !(surgeMultiplier > 0) || math.IsInf(surgeMultiplier, 0) {
		surgeMultiplier = 1
	}

	baseFare := float64(cfg.BaseFarePerKm) * params.DistanceKm

	expectedMinutes := params.DistanceKm * cfg.MaxDelayMinutesPerKm
	delayMinutes := math.Max(0, params.ActualTimeMinutes-expectedMinutes)
	delayKm := delayMinutes / cfg.MaxDelayMinutesPerKm
	delay := baseFare * (delayKm / params.DistanceKm) * cfg.DelaySurchargePercentage / 100

	var nightWeather float64
	if params.IsNightTime || params.IsBadWeather {
		nightWeather = baseFare * cfg.NightWeatherSurchargePercentage / 100
	}

	var highDemand float64
	if params.IsHighDemand {
		highDemand = baseFare * cfg.HighDemandSurchargePercentage / 100
	}

	// Any wait past the free period triggers the full flat charge
	var waiting float64
	if params.WaitingTimeMinutes-cfg.FreeWaitingTimeMinutes > 0 {
		waiting = baseFare * cfg.WaitingTimeSurchargePercentage / 100
	}

	subtotal := baseFare + delay + nightWeather + highDemand + waiting
	total := subtotal * surgeMultiplier
	if !(subtotal <= float64(MaxFare)) || !(total <= float64(MaxFare)) {
		return nil, &ValidationError{Errors: map[string]string{
			"total_fare": "exceeds the largest fare that can be priced",
		}}
	}

	calc := &FareCalculation{
		DistanceKm:            params.DistanceKm,
		BaseFare:              RoundAmount(baseFare),
		DelaySurcharge:        RoundAmount(delay),
		NightWeatherSurcharge: RoundAmount(nightWeather),
		HighDemandSurcharge:   RoundAmount(highDemand),
		WaitingTimeSurcharge:  RoundAmount(waiting),
		SurgeMultiplier:       surgeMultiplier,
		DelayMinutes:          delayMinutes,
		DelayKm:               delayKm,
		Currency:              cfg.Currency,
		ConfigurationID:       cfg.ID,
	}
	calc.Subtotal = RoundAmount(subtotal)
	calc.TotalFare = RoundAmount(total)

	calc.Breakdown = FareBreakdown{
		BaseFare:           calc.BaseFare,
		DelayAdjustment:    calc.DelaySurcharge,
		NightWeatherCharge: calc.NightWeatherSurcharge,
		HighDemandCharge:   calc.HighDemandSurcharge,
		WaitingTimeCharge:  calc.WaitingTimeSurcharge,
		Total:              calc.TotalFare,
	}

	return calc, nil
}

func checkDuration(ve *ValidationError, field string, v float64) {
	switch {
	case !isFinite(v):
		ve.AddError(field, "must be a finite number")
	case v < 0:
		ve.AddError(field, "must not be negative")
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
