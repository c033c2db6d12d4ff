package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spendwise/internal/logger"
	"spendwise/internal/pipeline"
)

const (
	defaultAPIURL   = "http://localhost:8080"
	defaultTimeout  = 30 * time.Second
	defaultInterval = 15 * time.Minute
)

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := viper.New()

	root := &cobra.Command{
		Use:           "sweeper",
		Short:         "Convert due auto-convert upcoming expenses",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sweeper.yaml)")
	root.PersistentFlags().String("api-url", defaultAPIURL, "base URL of the spendwise API")
	root.PersistentFlags().String("api-key", "", "pipeline API key")
	root.PersistentFlags().Duration("timeout", defaultTimeout, "per-request timeout")
	root.PersistentFlags().String("env", "development", "logging environment (development, production)")

	_ = v.BindPFlag("api_url", root.PersistentFlags().Lookup("api-url"))
	_ = v.BindPFlag("api_key", root.PersistentFlags().Lookup("api-key"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	_ = v.BindPFlag("env", root.PersistentFlags().Lookup("env"))

	root.AddCommand(onceCmd(v), watchCmd(v))
	return root
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sweeper")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SPENDWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", "SPENDWISE_API_KEY", "PIPELINE_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.Init(v.GetString("env"))
	return nil
}

func newSweeper(v *viper.Viper) (*pipeline.Sweeper, error) {
	apiKey := v.GetString("api_key")
	if apiKey == "" {
		return nil, errors.New("api key is required (--api-key, SPENDWISE_API_KEY or PIPELINE_API_KEY)")
	}

	client := pipeline.NewClient(
		v.GetString("api_url"),
		apiKey,
		&http.Client{Timeout: v.GetDuration("timeout")},
	)
	return pipeline.NewSweeper(client, logger.Named("sweeper")), nil
}

func onceCmd(v *viper.Viper) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSweeper(v)
			if err != nil {
				return err
			}

			result, err := s.RunOnce(cmd.Context(), asOf)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "converted %d, failed %d\n", result.Converted, len(result.Failed))
			if len(result.Failed) > 0 {
				return errPartialFailure
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "sweep as of this date (YYYY-MM-DD or RFC 3339); defaults to the server clock")
	return cmd
}

func watchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sweep repeatedly until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interval := v.GetDuration("interval")
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			s, err := newSweeper(v)
			if err != nil {
				return err
			}
			return s.Watch(cmd.Context(), interval)
		},
	}

	cmd.Flags().Duration("interval", defaultInterval, "time between sweeps")
	_ = v.BindPFlag("interval", cmd.Flags().Lookup("interval"))
	return cmd
}
