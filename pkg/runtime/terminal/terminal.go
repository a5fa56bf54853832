package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/de-tools/realty-atlas/pkg/logger"
	"github.com/de-tools/realty-atlas/pkg/runtime/bootstrap"
	"github.com/de-tools/realty-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/realty-atlas/pkg/services/config"
	"github.com/de-tools/realty-atlas/pkg/services/explorer"
	"github.com/de-tools/realty-atlas/pkg/services/region"
	duckdbtrades "github.com/de-tools/realty-atlas/pkg/store/duckdb/trades"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLI represents the command-line interface
type CLI struct {
	rootCmd    *cobra.Command
	viper      *viper.Viper
	streams    commands.IO
	httpClient *http.Client

	configPath string
	cfg        *config.Config
	runtime    *bootstrap.Runtime
}

// Options contain configuration for the CLI
type Options struct {
	Output    io.Writer
	ErrOutput io.Writer
	// HTTPClient is handed to the transaction client; nil uses the default.
	HTTPClient *http.Client
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}

	cli := &CLI{
		viper:      viper.New(),
		streams:    commands.IO{Out: opts.Output, Err: opts.ErrOutput},
		httpClient: opts.HTTPClient,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	defer cli.close()
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "atlas",
		Short:             "Apartment trade explorer for Korean regions",
		SilenceUsage:      true,
		PersistentPreRunE: cli.setup,
	}
	cmd.SetOut(cli.streams.Out)
	cmd.SetErr(cli.streams.Err)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.configPath, "config", "c", "", "Path to a config file (yaml, toml or json)")
	flags.String("regions-file", "", "Region directory JSON (default: built-in directory)")
	flags.String("profile-file", "", "Credentials file with service_key profiles (default $HOME/.atlascfg)")
	flags.StringP("profile", "p", config.DefaultProfile, "Credentials profile")
	flags.String("service-key", "", "Portal service key; overrides the profile")
	flags.String("endpoint", "", "Trade API endpoint")
	flags.Int("concurrency", 1, "Sub-regions fetched in parallel")
	flags.Float64("rate-limit", 5, "Portal requests per second (0 for unlimited)")
	flags.String("engine", "", "Summary engine: memory or duckdb")
	flags.String("db", "", "DuckDB file for the trade cache and job history (default: in-memory)")
	flags.Bool("cache", true, "Reuse trades of settled months stored in DuckDB")
	flags.String("log-level", "", "Log level")
	flags.String("log-format", "", "Log format: console or json")

	for key, flag := range map[string]string{
		"regions_file": "regions-file",
		"profile_file": "profile-file",
		"profile":      "profile",
		"service_key":  "service-key",
		"endpoint":     "endpoint",
		"concurrency":  "concurrency",
		"rate_limit":   "rate-limit",
		"engine":       "engine",
		"db_path":      "db",
		"cache":        "cache",
		"log_level":    "log-level",
		"log_format":   "log-format",
	} {
		_ = cli.viper.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(commands.NewRegionsCmd(cli, cli.streams))
	cmd.AddCommand(commands.NewFetchCmd(cli, cli.streams))
	cmd.AddCommand(commands.NewSummaryCmd(cli, cli.streams))
	cmd.AddCommand(commands.NewReportCmd(cli, cli.streams))
	cmd.AddCommand(commands.NewCacheCmd(cli, cli.streams))

	return cmd
}

// setup loads configuration and attaches the logger to the command context.
func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cli.viper, cli.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, cli.streams.Err)
	if err != nil {
		return err
	}
	cmd.SetContext(log.WithContext(cmd.Context()))
	cli.cfg = cfg
	return nil
}

func (cli *CLI) build(ctx context.Context) (*bootstrap.Runtime, error) {
	if cli.runtime == nil {
		rt, err := bootstrap.Build(ctx, cli.cfg, bootstrap.Options{HTTPClient: cli.httpClient})
		if err != nil {
			return nil, err
		}
		cli.runtime = rt
	}
	return cli.runtime, nil
}

func (cli *CLI) Explorer(ctx context.Context) (explorer.Explorer, error) {
	rt, err := cli.build(ctx)
	if err != nil {
		return nil, err
	}
	return rt.Explorer, nil
}

func (cli *CLI) CacheStats(ctx context.Context) (*duckdbtrades.Stats, error) {
	rt, err := cli.build(ctx)
	if err != nil {
		return nil, err
	}
	if rt.Cache == nil {
		return nil, errors.New("trade cache is disabled: pass --db or --engine duckdb with --cache")
	}
	return rt.Cache.GetStats(ctx)
}

func (cli *CLI) Directory() (explorer.Directory, error) {
	if cli.cfg.RegionsFile != "" {
		return region.Load(cli.cfg.RegionsFile)
	}
	return region.Default()
}

func (cli *CLI) close() {
	if cli.runtime == nil {
		return
	}
	if err := cli.runtime.Close(); err != nil {
		fmt.Fprintf(cli.streams.Err, "failed to close runtime: %v\n", err)
	}
	cli.runtime = nil
}
