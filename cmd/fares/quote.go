package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/richxcame/delivery-fares/internal/clock"
	"github.com/richxcame/delivery-fares/internal/fares"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newQuoteCmd prices a single trip with the default configuration, offline
func newQuoteCmd() *cobra.Command {
	var (
		params   fares.FareCalcParams
		surge    float64
		timezone string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a trip with the default fare configuration",
		Example: "  fares quote --distance 5 --actual-minutes 42 --night\n" +
			"  fares quote --distance 12 --area Kampala --surge 1.5",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", timezone, err)
			}

			ctx := context.Background()
			rules := fares.NewMemorySurgeRuleStore()
			svc := fares.NewService(fares.ServiceParams{
				Configs:    fares.NewMemoryConfigStore(),
				SurgeRules: rules,
				Clock:      clock.SystemClock{},
				Location:   loc,
				Logger:     zap.NewNop(),
			})

			// --surge applies an all-week rule to --area for this quote only.
			// 00:01-00:00 wraps midnight and so covers every minute.
			if surge > 0 {
				if params.Area == "" {
					params.Area = "quote"
				}
				if _, err := svc.CreateSurgePricing(ctx, fares.SurgeRuleInput{
					Area:       params.Area,
					Multiplier: surge,
					StartTime:  "00:01",
					EndTime:    "00:00",
					Days:       []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
				}); err != nil {
					return err
				}
			}

			calc, err := svc.CalculateFare(ctx, params)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(calc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&params.DistanceKm, "distance", 0, "trip distance in km")
	f.Float64Var(&params.ActualTimeMinutes, "actual-minutes", 0, "actual trip duration in minutes")
	f.Float64Var(&params.WaitingTimeMinutes, "waiting-minutes", 0, "time spent waiting at pickup in minutes")
	f.BoolVar(&params.IsNightTime, "night", false, "night trip")
	f.BoolVar(&params.IsBadWeather, "bad-weather", false, "bad weather")
	f.BoolVar(&params.IsHighDemand, "high-demand", false, "high demand period")
	f.StringVar(&params.Area, "area", "", "delivery area for surge lookup")
	f.Float64Var(&surge, "surge", 0, "apply this surge multiplier (>= 1)")
	f.StringVar(&timezone, "timezone", "Africa/Kampala", "time zone surge windows are evaluated in")
	_ = cmd.MarkFlagRequired("distance")
	return cmd
}
