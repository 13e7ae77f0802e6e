package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/detect"
	"github.com/sells-group/prospector-cli/internal/pipeline"
	"github.com/sells-group/prospector-cli/pkg/composer"
	"github.com/sells-group/prospector-cli/pkg/hunter"
	"github.com/sells-group/prospector-cli/pkg/mailer"
	"github.com/sells-group/prospector-cli/pkg/places"
)

var (
	prospectKeyword  string
	prospectLocation string
	prospectRadius   int
	prospectType     string
	prospectDryRun   bool
)

var prospectCmd = &cobra.Command{
	Use:   "prospect",
	Short: "Search for businesses and run the qualification pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("prospect"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(
			st,
			newPlacesClient(),
			newResolver(),
			newProber(),
			detect.NewClassifier(),
			newHunterClient(),
			newComposer(),
			newMailer(),
		)

		params := pipeline.Params{
			Keyword:      valueOr(prospectKeyword, cfg.Search.Keyword),
			Location:     valueOr(prospectLocation, cfg.Search.Location),
			RadiusMeters: prospectRadius,
			Type:         prospectType,
			MaxResults:   cfg.Search.MaxResults,
			DryRun:       prospectDryRun,
		}
		if params.RadiusMeters <= 0 {
			params.RadiusMeters = cfg.Search.RadiusMeters
		}

		summary, err := p.Run(ctx, params)
		if err != nil {
			return eris.Wrap(err, "prospect run")
		}

		zap.L().Info("prospecting complete",
			zap.Int("processed", summary.Processed),
			zap.Int("sent", summary.Sent),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func newProber() *detect.Prober {
	return detect.NewProber(time.Duration(cfg.Probe.TimeoutSecs)*time.Second, cfg.Probe.RatePerSec)
}

func newResolver() *detect.Resolver {
	return detect.NewResolver(newProber())
}

func newPlacesClient() places.Client {
	opts := []places.Option{places.WithBaseURL(cfg.Places.BaseURL)}
	if cfg.Simulation {
		opts = append(opts, places.WithSimulation())
	}
	return places.NewClient(cfg.Places.Key, opts...)
}

func newHunterClient() hunter.Client {
	opts := []hunter.Option{hunter.WithBaseURL(cfg.Hunter.BaseURL)}
	if cfg.Simulation {
		opts = append(opts, hunter.WithSimulation())
	}
	return hunter.NewClient(cfg.Hunter.Key, opts...)
}

func newComposer() composer.Composer {
	opts := []composer.Option{
		composer.WithModel(cfg.Anthropic.Model),
		composer.WithMaxTokens(cfg.Anthropic.MaxTokens),
	}
	if cfg.Simulation {
		opts = append(opts, composer.WithSimulation())
	}
	return composer.New(cfg.Anthropic.Key, opts...)
}

func newMailer() mailer.Mailer {
	return mailer.New(mailer.Config{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		Username:   cfg.SMTP.Username,
		Password:   cfg.SMTP.Password,
		From:       cfg.SMTP.From,
		Simulation: cfg.Simulation,
	})
}

func valueOr(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

func init() {
	prospectCmd.Flags().StringVar(&prospectKeyword, "keyword", "", "keyword to search for (default from config)")
	prospectCmd.Flags().StringVar(&prospectLocation, "location", "", "lat,lng search center (default from config)")
	prospectCmd.Flags().IntVar(&prospectRadius, "radius", 0, "search radius in meters (default from config)")
	prospectCmd.Flags().StringVar(&prospectType, "type", "", "specific business type (e.g. restaurant, plumber)")
	prospectCmd.Flags().BoolVar(&prospectDryRun, "dry-run", false, "run without sending emails")
	rootCmd.AddCommand(prospectCmd)
}
