package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mold_autotest/internal/config"
	"mold_autotest/internal/console"
	"mold_autotest/internal/logger"
	"mold_autotest/internal/repository"
	"mold_autotest/internal/repository/db"
	"mold_autotest/internal/service"
	"mold_autotest/internal/source"

	"github.com/spf13/viper"
)

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatalw("invalid config", "err", err)
	}
	log.SetLevel(cfg.LogLevel)

	// open DB
	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	plant, err := service.NewPlant(cfg)
	if err != nil {
		log.Fatalw("invalid mold layout", "err", err)
	}
	src, closeSrc, err := openSource(cfg)
	if err != nil {
		log.Fatalw("failed to open data source", "err", err, "kind", cfg.Source.Kind)
	}
	defer closeSrc()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, plant, src, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Settings.Load(ctx); err != nil {
		log.Warnw("stored settings not loaded, using config", "err", err)
	}
	if _, err := services.Testing.Reset(ctx); err != nil {
		log.Errorw("failed to record session start", "err", err)
	}

	// start polling the data source
	go services.Poller.Run(ctx, cfg.PollInterval)
	log.Infow("autotest started", "mold", cfg.Mold.Name(), "source", cfg.Source.Kind,
		"poll_interval", cfg.PollInterval, "direction", cfg.Direction)

	done := make(chan struct{})
	if cfg.Console {
		go runConsole(ctx, services, log, done)
	}

	// graceful shutdown
	waitForShutdown(cancel, done, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening sqlite", "path", cfg.DBPath)
	return db.InitDB(cfg.DBPath)
}

// openSource builds the configured data source, optionally recording every
// batch it serves. The returned func releases the recording file.
func openSource(cfg config.Config) (source.DataSource, func(), error) {
	var src source.DataSource
	switch cfg.Source.Kind {
	case config.SourceReplay:
		rp, err := source.OpenReplay(cfg.Source.ReplayPath)
		if err != nil {
			return nil, nil, err
		}
		src = rp
	default:
		layout, err := cfg.Mold.Layout()
		if err != nil {
			return nil, nil, err
		}
		src = source.NewSimulator(cfg.Simulator, layout)
	}

	if cfg.Source.RecordPath == "" {
		return src, func() {}, nil
	}
	f, err := os.Create(cfg.Source.RecordPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create recording: %w", err)
	}
	return source.NewRecorder(src, f), func() { _ = f.Close() }, nil
}

// runConsole serves operator commands on stdin and closes done when the
// operator quits or stdin ends.
func runConsole(ctx context.Context, services *service.Service, log *logger.Logger, done chan<- struct{}) {
	defer close(done)
	if err := console.NewConsole(services, log).Run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Errorw("console stopped", "err", err)
	}
}

// waitForShutdown blocks until a termination signal or the end of the
// console session, then stops background goroutines.
func waitForShutdown(cancel context.CancelFunc, done <-chan struct{}, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Infow("shutting down...")
	case <-done:
		log.Infow("console closed, shutting down...")
	}

	// stop background goroutines
	cancel()
}
