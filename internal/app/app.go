package app

import (
	"fmt"

	"blockpage/internal/config"
	"blockpage/internal/logger"
	"blockpage/internal/secret"
	"blockpage/internal/service"
	"blockpage/internal/storage"
)

// App wires storage, services and logging from a Config. The CLI and the
// MCP server both run on top of it.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	db     *storage.DB
	Pages  *service.PageService
	Blocks *service.BlockService
}

// New opens the configured database and builds the services.
func New(cfg *config.Config) (*App, error) {
	build := logger.New().WithLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		build = build.FromPath(cfg.Log.File)
	}
	log, err := build.Make()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	conn := cfg.ConnConfig()
	if ref := cfg.Database.PasswordRef; ref != "" {
		conn.Password, err = secret.Resolve(ref, secret.DefaultStores())
		if err != nil {
			log.Close()
			return nil, fmt.Errorf("database password: %w", err)
		}
	}

	db, err := storage.Open(conn)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug().Str("driver", cfg.Database.Driver).Msg("database ready")

	emitter := service.LogEmitter{Log: log.Component("events")}
	a := &App{
		Config: cfg,
		Log:    log,
		db:     db,
		Pages:  service.NewPageService(db, emitter, log.Component("pages")),
		Blocks: service.NewBlockService(db, emitter,
			service.WithLogger(log.Component("blocks")),
			service.WithRetryPolicy(service.RetryPolicy{
				Retries:  cfg.Engine.ConflictRetries,
				MinDelay: cfg.Engine.RetryMinDelay,
				MaxDelay: cfg.Engine.RetryMaxDelay,
			}),
		),
	}
	return a, nil
}

// Close releases the database and the log file.
func (a *App) Close() error {
	err := a.db.Close()
	if cerr := a.Log.Close(); err == nil {
		err = cerr
	}
	return err
}
