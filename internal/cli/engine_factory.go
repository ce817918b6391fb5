package cli

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
)

// CreateEngine initializes an arbor engine with standard CLI conventions.
func CreateEngine(opts Options, logger *slog.Logger, extra ...arbor.Option) (*arbor.Engine, error) {
	sev, err := threshold(opts)
	if err != nil {
		return nil, err
	}

	engineOpts := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithTreeOptions(bt.WithDebug(opts.Debug), bt.WithLogLevel(sev)),
		arbor.WithLifecycleHooks(opts.Hooks),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, arbor.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}

	sessions, err := createSessionManager(opts, logger)
	if err != nil {
		return nil, err
	}
	if sessions != nil {
		engineOpts = append(engineOpts, arbor.WithSessionManager(sessions))
	}

	return arbor.New(append(engineOpts, extra...)...), nil
}

// createSessionManager builds the snapshot store selected by opts, wrapped in
// the redaction and encryption middlewares. It returns nil when persistence is off.
func createSessionManager(opts Options, logger *slog.Logger) (*session.Manager, error) {
	var (
		store   ports.SnapshotStore
		manager []session.Option
	)
	manager = append(manager, session.WithLogger(logger))

	switch opts.Store {
	case StoreNone:
		return nil, nil
	case StoreMemory:
		store = memory.NewStore()
	case StoreFile:
		store = file.New(opts.Dir)
	case StoreRedis:
		rs := redis.New(opts.RedisAddr, redisOptions(opts)...)
		store = rs
		if opts.DistributedLock {
			prefix := opts.RedisPrefix
			if prefix == "" {
				prefix = redis.DefaultPrefix
			}
			manager = append(manager, session.WithLocker(redis.NewLocker(rs.Client(), prefix+"lock:")))
		}
	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s or %s)", opts.Store, StoreMemory, StoreFile, StoreRedis)
	}

	// Redaction runs before encryption so masked values are what gets sealed.
	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		red, err := middleware.NewRedactMiddleware(opts.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, red)
	}
	if opts.EncryptionKey != "" {
		key, err := hex.DecodeString(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}

	return session.NewManager(middleware.Chain(store, mws...), manager...), nil
}

func redisOptions(opts Options) []redis.Option {
	var out []redis.Option
	if opts.RedisPrefix != "" {
		out = append(out, redis.WithPrefix(opts.RedisPrefix))
	}
	if opts.SnapshotTTL > 0 {
		out = append(out, redis.WithTTL(opts.SnapshotTTL))
	}
	return out
}
