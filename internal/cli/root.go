// Package cli implements the infographic command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"infographic/internal/gateway/app"
	"infographic/internal/gateway/config"
	"infographic/internal/logger"
)

// env carries what every subcommand needs.
type env struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
	build  func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app.Components, error)
}

func (e *env) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(e.v)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.New(cfg.LogLevel, cfg.LogPretty, e.stderr), nil
}

// NewRootCmd builds the "infographic" command tree writing to stdout and
// stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return newRootCmd(&env{v: config.New(), stdout: stdout, stderr: stderr, build: app.Build})
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "infographic",
		Short:         "Generate structured infographic reports with LLM backends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("default-provider", "", "provider used when none is given")
	_ = e.v.BindPFlag("config", flags.Lookup("config"))
	_ = e.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = e.v.BindPFlag("default_provider", flags.Lookup("default-provider"))

	root.AddCommand(
		newServeCmd(e),
		newGenerateCmd(e),
		newProvidersCmd(e),
		newModelsCmd(e),
		newSectionsCmd(e),
	)
	return root
}
