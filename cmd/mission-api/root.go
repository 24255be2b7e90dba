package main

import (
	"fmt"

	"github.com/servicemarket/missions/internal/config"
	"github.com/servicemarket/missions/internal/store"
	"github.com/servicemarket/missions/pkg/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:          "mission-api",
	Short:        "Service marketplace mission lifecycle",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(seedCmd)
}

// setup reads the configuration, installs the global logger and opens the
// store. The returned func flushes the logger and closes the store.
func setup() (*config.Config, *gorm.DB, store.Store, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("reading configuration: %w", err)
	}

	logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
	undo := zap.ReplaceGlobals(logger)

	zap.S().Info("Initializing data store")
	db, err := store.InitDB(cfg)
	if err != nil {
		undo()
		return nil, nil, nil, nil, fmt.Errorf("initializing data store: %w", err)
	}

	s := store.NewStore(db)
	return cfg, db, s, func() {
		_ = s.Close()
		_ = logger.Sync()
		undo()
	}, nil
}
