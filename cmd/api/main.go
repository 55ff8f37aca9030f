package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/config"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/db"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/handlers"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/server"
)

var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "freelancehub",
	Short:   "Freelance marketplace API server",
	Version: Version,
	// no subcommand means serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and chat relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")
		return serve(cfg, !skipMigrate)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and reporting views, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		gdb, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		logger.Logger.Info().Msg("migrations applied")
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("skip-migrate", false, "do not run migrations on startup")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func bootstrap() (config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, JSONOutput: cfg.LogJSON})
	return cfg, nil
}

func serve(cfg config.Config, migrate bool) error {
	log := logger.WithComponent("main")

	gdb, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if migrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Stop()

	// chat keeps working on a single instance when redis is down
	var rdb *redis.Client
	if c := realtime.NewRedis(cfg); c.Ping(ctx).Err() != nil {
		log.Warn().Str("addr", cfg.RedisAddr).Msg("redis unreachable, chat delivery is local only")
		_ = c.Close()
	} else {
		rdb = c
		defer rdb.Close()
	}
	relay := realtime.NewRelay(rdb, hub)
	go relay.Run(ctx)

	app := server.New(handlers.Deps{
		DB:     gdb,
		Config: cfg,
		Hub:    hub,
		Relay:  relay,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("listening")
		errCh <- app.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
