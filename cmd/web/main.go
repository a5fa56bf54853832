package main

import (
	"fmt"
	"os"

	"github.com/de-tools/realty-atlas/pkg/logger"
	"github.com/de-tools/realty-atlas/pkg/runtime/bootstrap"
	"github.com/de-tools/realty-atlas/pkg/server"
	"github.com/de-tools/realty-atlas/pkg/services/config"
	"github.com/de-tools/realty-atlas/pkg/services/workflow"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgPath string
	v       = viper.New()
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "atlas-web",
		Short:        "Start the web server for Realty Atlas",
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a config file (yaml, toml or json)")
	rootCmd.Flags().String("addr", "", "Listen address (default localhost:8080)")
	rootCmd.Flags().String("engine", "", "Summary engine: memory or duckdb")
	rootCmd.Flags().String("db", "", "DuckDB file keeping job history (default in-memory)")
	_ = v.BindPFlag("server_addr", rootCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = v.BindPFlag("db_path", rootCmd.Flags().Lookup("db"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file loaded: %v\n", err)
	}

	cfg, err := config.Load(v, cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}
	ctx := log.WithContext(cmd.Context())

	rt, err := bootstrap.Build(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close runtime")
		}
	}()

	log.Info().
		Int("regions", rt.Directory.Len()).
		Str("engine", cfg.Engine).
		Int("concurrency", cfg.Concurrency).
		Msg("services initialized")

	if rt.Cache != nil {
		stats, err := rt.Cache.GetStats(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to read trade cache stats")
		} else {
			log.Info().Int64("months", stats.Months).Int64("records", stats.Records).Msg("trade cache ready")
		}
	}

	var ctrlOpts []workflow.Option
	if rt.Jobs != nil {
		ctrlOpts = append(ctrlOpts, workflow.WithStore(rt.Jobs))
	}
	workflowCtrl := workflow.NewController(rt.Explorer, ctrlOpts...)
	if err := workflowCtrl.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize workflow controller: %w", err)
	}

	api := server.NewWebAPI(server.Config{
		Addr: cfg.ServerAddr,
		Dependencies: server.Dependencies{
			Explorer: rt.Explorer,
			Jobs:     workflowCtrl,
			Logger:   log,
		},
	})
	return api.Start()
}
