package app

import (
	"context"
	"log/slog"

	"github.com/ShiftPioneer/nexus-app-sub003/internal/auth"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/config"
	"github.com/ShiftPioneer/nexus-app-sub003/internal/storage"
)

// SinkInfo records which store a session ended up on.
type SinkInfo struct {
	Backend  string
	Identity *auth.Identity
	Degraded bool
}

// NewAuthProvider prefers a configured user id, then a Firebase ID token.
func NewAuthProvider(cfg *config.Config) auth.Provider {
	return auth.Chain{
		auth.Static{UserID: cfg.Auth.UserID},
		&auth.Firebase{CredentialsFile: cfg.Auth.FirebaseCredentials, IDToken: cfg.Auth.IDToken},
	}
}

// openSink picks the configured backend. Remote backends need a signed-in
// user; without one, or when the remote is unreachable, the session falls
// back to the local store, and from there to memory.
func openSink(ctx context.Context, cfg *config.Config, provider auth.Provider, logger *slog.Logger) (storage.Sink, SinkInfo) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemorySink(), SinkInfo{Backend: config.BackendMemory}
	case config.BackendPostgres, config.BackendMongo:
		id, err := provider.Current(ctx)
		if err != nil {
			logger.Warn("resolving identity failed", "err", err)
		}
		if id == nil {
			logger.Warn("no signed-in user, remote store unavailable, using local store", "backend", cfg.Backend)
			return openLocal(cfg, logger)
		}
		var (
			sink storage.Sink
			oerr error
		)
		if cfg.Backend == config.BackendPostgres {
			sink, oerr = storage.OpenPostgres(ctx, cfg.Postgres.DSN, id.UserID)
		} else {
			sink, oerr = storage.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, id.UserID)
		}
		if oerr != nil {
			logger.Warn("remote store unavailable, using local store", "backend", cfg.Backend, "err", oerr)
			return openLocal(cfg, logger)
		}
		return sink, SinkInfo{Backend: cfg.Backend, Identity: id}
	default:
		return openLocal(cfg, logger)
	}
}

func openLocal(cfg *config.Config, logger *slog.Logger) (storage.Sink, SinkInfo) {
	sink, err := storage.OpenSQLite(cfg.DataPath, storage.LocalNamespace)
	if err != nil {
		logger.Warn("local store unavailable, changes will not persist", "path", cfg.DataPath, "err", err)
		return storage.NewMemorySink(), SinkInfo{Backend: config.BackendMemory, Degraded: true}
	}
	return sink, SinkInfo{Backend: config.BackendLocal}
}
