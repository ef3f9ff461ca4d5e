package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"econforge/econogix"
)

const (
	defaultCatalogFile = "econforge/catalog.json"

	envCatalogFile  = "econforge_catalog_file"
	envSnapshotFile = "econforge_snapshot_file"
)

// noinspection GoUnusedExportedFunction
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	initStart := time.Now()

	logger.Info("Loading Econforge Nakama plugin...")

	config := &econogix.Config{
		CatalogFile:  defaultCatalogFile,
		RegisterRpcs: true,
	}
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if path := env[envCatalogFile]; path != "" {
			config.CatalogFile = path
		}
		if path := env[envSnapshotFile]; path != "" {
			config.SnapshotFile = path
		}
	}

	if _, err := econogix.Init(ctx, logger, nk, initializer, config); err != nil {
		logger.Error("Failed to initialize economy engine: %v", err)
		return err
	}

	logger.Info("Econforge Nakama plugin loaded in '%d' msec.", time.Now().Sub(initStart).Milliseconds())
	return nil
}
