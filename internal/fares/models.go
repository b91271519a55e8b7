package fares

import (
	"math"
	"time"
)

// Amount is a whole number of units of the platform currency.
// UGX has no minor unit, so fares never carry fractions.
type Amount int64

// RoundAmount rounds half away from zero to a whole Amount
func RoundAmount(v float64) Amount {
	return Amount(math.Round(v))
}

// Default fare policy used until an operator saves a configuration
const (
	DefaultBaseFarePerKm                   Amount  = 3000
	DefaultDelaySurchargePercentage        float64 = 35
	DefaultNightWeatherSurchargePercentage float64 = 20
	DefaultHighDemandSurchargePercentage   float64 = 5
	DefaultWaitingTimeSurchargePercentage  float64 = 10
	DefaultFreeWaitingTimeMinutes          float64 = 10
	DefaultMaxDelayMinutesPerKm            float64 = 6
	DefaultCurrency                                = "UGX"
)

// FareConfiguration is one version of the fare policy. At most one is active.
type FareConfiguration struct {
	ID                              string    `json:"id" firestore:"-"`
	BaseFarePerKm                   Amount    `json:"base_fare_per_km" firestore:"baseFarePerKm" validate:"gt=0"`
	DelaySurchargePercentage        float64   `json:"delay_surcharge_percentage" firestore:"delaySurchargePercentage" validate:"gte=0"`
	NightWeatherSurchargePercentage float64   `json:"night_weather_surcharge_percentage" firestore:"nightWeatherSurchargePercentage" validate:"gte=0"`
	HighDemandSurchargePercentage   float64   `json:"high_demand_surcharge_percentage" firestore:"highDemandSurchargePercentage" validate:"gte=0"`
	WaitingTimeSurchargePercentage  float64   `json:"waiting_time_surcharge_percentage" firestore:"waitingTimeSurchargePercentage" validate:"gte=0"`
	FreeWaitingTimeMinutes          float64   `json:"free_waiting_time_minutes" firestore:"freeWaitingTimeMinutes" validate:"gte=0"`
	MaxDelayMinutesPerKm            float64   `json:"max_delay_minutes_per_km" firestore:"maxDelayMinutesPerKm" validate:"gt=0"`
	Currency                        string    `json:"currency" firestore:"currency" validate:"required,len=3"`
	IsActive                        bool      `json:"is_active" firestore:"isActive"`
	IsDefault                       bool      `json:"is_default,omitempty" firestore:"-"`
	CreatedAt                       time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt                       time.Time `json:"updated_at" firestore:"updatedAt"`
}

// DefaultFareConfiguration returns the built-in policy. It is never persisted.
func DefaultFareConfiguration() *FareConfiguration {
	return &FareConfiguration{
		BaseFarePerKm:                   DefaultBaseFarePerKm,
		DelaySurchargePercentage:        DefaultDelaySurchargePercentage,
		NightWeatherSurchargePercentage: DefaultNightWeatherSurchargePercentage,
		HighDemandSurchargePercentage:   DefaultHighDemandSurchargePercentage,
		WaitingTimeSurchargePercentage:  DefaultWaitingTimeSurchargePercentage,
		FreeWaitingTimeMinutes:          DefaultFreeWaitingTimeMinutes,
		MaxDelayMinutesPerKm:            DefaultMaxDelayMinutesPerKm,
		Currency:                        DefaultCurrency,
		IsActive:                        true,
		IsDefault:                       true,
	}
}

// FareConfigurationInput is the operator form. Nil fields keep the current value.
type FareConfigurationInput struct {
	BaseFarePerKm                   *Amount  `json:"base_fare_per_km"`
	DelaySurchargePercentage        *float64 `json:"delay_surcharge_percentage"`
	NightWeatherSurchargePercentage *float64 `json:"night_weather_surcharge_percentage"`
	HighDemandSurchargePercentage   *float64 `json:"high_demand_surcharge_percentage"`
	WaitingTimeSurchargePercentage  *float64 `json:"waiting_time_surcharge_percentage"`
	FreeWaitingTimeMinutes          *float64 `json:"free_waiting_time_minutes"`
	MaxDelayMinutesPerKm            *float64 `json:"max_delay_minutes_per_km"`
	Currency                        *string  `json:"currency"`
}

// Merge lays the input over base and returns a new, inactive configuration
func (in FareConfigurationInput) Merge(base *FareConfiguration) *FareConfiguration {
	if base == nil {
		base = DefaultFareConfiguration()
	}
	out := &FareConfiguration{
		BaseFarePerKm:                   base.BaseFarePerKm,
		DelaySurchargePercentage:        base.DelaySurchargePercentage,
		NightWeatherSurchargePercentage: base.NightWeatherSurchargePercentage,
		HighDemandSurchargePercentage:   base.HighDemandSurchargePercentage,
		WaitingTimeSurchargePercentage:  base.WaitingTimeSurchargePercentage,
		FreeWaitingTimeMinutes:          base.FreeWaitingTimeMinutes,
		MaxDelayMinutesPerKm:            base.MaxDelayMinutesPerKm,
		Currency:                        base.Currency,
	}
	if in.BaseFarePerKm != nil {
		out.BaseFarePerKm = *in.BaseFarePerKm
	}
	if in.DelaySurchargePercentage != nil {
		out.DelaySurchargePercentage = *in.DelaySurchargePercentage
	}
	if in.NightWeatherSurchargePercentage != nil {
		out.NightWeatherSurchargePercentage = *in.NightWeatherSurchargePercentage
	}
	if in.HighDemandSurchargePercentage != nil {
		out.HighDemandSurchargePercentage = *in.HighDemandSurchargePercentage
	}
	if in.WaitingTimeSurchargePercentage != nil {
		out.WaitingTimeSurchargePercentage = *in.WaitingTimeSurchargePercentage
	}
	if in.FreeWaitingTimeMinutes != nil {
		out.FreeWaitingTimeMinutes = *in.FreeWaitingTimeMinutes
	}
	if in.MaxDelayMinutesPerKm != nil {
		out.MaxDelayMinutesPerKm = *in.MaxDelayMinutesPerKm
	}
	if in.Currency != nil {
		out.Currency = *in.Currency
	}
	if out.Currency == "" {
		out.Currency = DefaultCurrency
	}
	return out
}

// SurgePricingRule multiplies fares in an area during a weekly time window
type SurgePricingRule struct {
	ID         string    `json:"id" firestore:"-"`
	Area       string    `json:"area" firestore:"area"`
	Multiplier float64   `json:"multiplier" firestore:"multiplier"`
	StartTime  string    `json:"start_time" firestore:"startTime"` // HH:MM
	EndTime    string    `json:"end_time" firestore:"endTime"`     // HH:MM, may be before StartTime
	Days       []string  `json:"days" firestore:"days"`            // lower-case weekday names
	IsActive   bool      `json:"is_active" firestore:"isActive"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time `json:"updated_at" firestore:"updatedAt"`
}

// SurgeRuleInput creates a rule. IsActive defaults to true.
type SurgeRuleInput struct {
	Area       string   `json:"area" validate:"required"`
	Multiplier float64  `json:"multiplier" validate:"gte=1"`
	StartTime  string   `json:"start_time" validate:"hhmm"`
	EndTime    string   `json:"end_time" validate:"hhmm"`
	Days       []string `json:"days" validate:"min=1,dive,weekday"`
	IsActive   *bool    `json:"is_active"`
}

// SurgeRuleUpdate is a partial update; nil fields are left alone.
// The merged rule is validated as a whole.
type SurgeRuleUpdate struct {
	Area       *string   `json:"area"`
	Multiplier *float64  `json:"multiplier"`
	StartTime  *string   `json:"start_time"`
	EndTime    *string   `json:"end_time"`
	Days       *[]string `json:"days"`
	IsActive   *bool     `json:"is_active"`
}

// IsEmpty reports whether the update changes nothing
func (u SurgeRuleUpdate) IsEmpty() bool {
	return u.Area == nil && u.Multiplier == nil && u.StartTime == nil &&
		u.EndTime == nil && u.Days == nil && u.IsActive == nil
}

// FareCalcParams are the trip facts a fare is priced from
type FareCalcParams struct {
	DistanceKm         float64 `json:"distance_km"`
	ActualTimeMinutes  float64 `json:"actual_time_minutes"`
	WaitingTimeMinutes float64 `json:"waiting_time_minutes"`
	IsNightTime        bool    `json:"is_night_time"`
	IsBadWeather       bool    `json:"is_bad_weather"`
	IsHighDemand       bool    `json:"is_high_demand"`
	Area               string  `json:"area,omitempty"`
}

// FareCalculation is the priced result. It is not persisted.
type FareCalculation struct {
	DistanceKm            float64       `json:"distance_km"`
	BaseFare              Amount        `json:"base_fare"`
	DelaySurcharge        Amount        `json:"delay_surcharge"`
	NightWeatherSurcharge Amount        `json:"night_weather_surcharge"`
	HighDemandSurcharge   Amount        `json:"high_demand_surcharge"`
	WaitingTimeSurcharge  Amount        `json:"waiting_time_surcharge"`
	Subtotal              Amount        `json:"subtotal"`
	TotalFare             Amount        `json:"total_fare"`
	SurgeMultiplier       float64       `json:"surge_multiplier"`
	SurgeRuleID           string        `json:"surge_rule_id,omitempty"`
	DelayMinutes          float64       `json:"delay_minutes"`
	DelayKm               float64       `json:"delay_km"`
	Currency              string        `json:"currency"`
	ConfigurationID       string        `json:"configuration_id,omitempty"`
	Breakdown             FareBreakdown `json:"breakdown"`
}

// FareBreakdown mirrors the components under the console's display names
type FareBreakdown struct {
	BaseFare           Amount `json:"baseFare"`
	DelayAdjustment    Amount `json:"delayAdjustment"`
	NightWeatherCharge Amount `json:"nightWeatherCharge"`
	HighDemandCharge   Amount `json:"highDemandCharge"`
	WaitingTimeCharge  Amount `json:"waitingTimeCharge"`
	Total              Amount `json:"total"`
}

// SurgeResolution describes which rule, if any, applies to an area right now
type SurgeResolution struct {
	Area        string            `json:"area"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
	Multiplier  float64           `json:"multiplier"`
	Rule        *SurgePricingRule `json:"rule,omitempty"`
	MatchedIDs  []string          `json:"matched_ids,omitempty"`
}
