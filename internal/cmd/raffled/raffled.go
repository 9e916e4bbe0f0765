// Package raffled parses raffle service flags and launches the service.
package raffled

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/School-of-Solana/program-thelotux/internal/platform/cmd"
	"github.com/School-of-Solana/program-thelotux/internal/platform/logging"
	raffleapi "github.com/School-of-Solana/program-thelotux/internal/services/raffle/api/http"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/app"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/domain/raffle"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage/bolt"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/storage/sqlite"
)

// Storage driver names accepted by THELOTUX_STORAGE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Config holds raffle service configuration.
type Config struct {
	Addr          string `env:"THELOTUX_ADDR" envDefault:":8080"`
	StorageDriver string `env:"THELOTUX_STORAGE_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"THELOTUX_DB_PATH" envDefault:"data/raffle.db"`
	RecordDeposit uint64 `env:"THELOTUX_RECORD_DEPOSIT" envDefault:"0"`
	LogLevel      string `env:"THELOTUX_LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"THELOTUX_LOG_FILE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The HTTP listen address")
	fs.StringVar(&cfg.StorageDriver, "storage-driver", cfg.StorageDriver, "The record store driver (sqlite or bolt)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The record store file path")
	fs.Uint64Var(&cfg.RecordDeposit, "record-deposit", cfg.RecordDeposit, "The storage deposit debited per raffle record")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "The minimum log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Optional JSON log file path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the raffle ledger API service.
func Run(ctx context.Context, cfg Config) error {
	if cfg.RecordDeposit > raffle.MaxLedgerAmount {
		return fmt.Errorf("record deposit %d is beyond the ledger range", cfg.RecordDeposit)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRaffle, func(ctx context.Context) error {
		store, err := openStore(cfg.StorageDriver, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close raffle store: %v", err)
			}
		}()

		logger, err := logging.New(logging.Config{
			Level:   cfg.LogLevel,
			Console: true,
			File:    cfg.LogFile,
		})
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		service, err := app.NewService(app.Config{
			Store:         store,
			Logger:        logger,
			RecordDeposit: cfg.RecordDeposit,
		})
		if err != nil {
			return err
		}

		authCfg, err := raffleapi.LoadAuthConfigFromEnv(nil)
		if err != nil {
			return err
		}

		srv, err := raffleapi.NewServer(raffleapi.Config{
			Addr:    cfg.Addr,
			Service: service,
			Auth:    authCfg,
		})
		if err != nil {
			return err
		}
		defer srv.Close()

		log.Printf("raffle api listening on %s (driver %s)", cfg.Addr, cfg.StorageDriver)
		return srv.ListenAndServe(ctx)
	})
}

// openStore opens the configured record store, creating the parent directory
// when needed.
func openStore(driver, path string) (storage.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite:
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open raffle sqlite store: %w", err)
		}
		return store, nil
	case DriverBolt:
		store, err := bolt.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open raffle bolt store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
