package cli

import (
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

// Store backends accepted by Options.Store.
const (
	StoreNone   = ""
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Options holds the settings shared by the CLI commands.
type Options struct {
	// Debug enables lifecycle tracing and debug logs on stderr.
	Debug bool
	// LogLevel is the syslog severity threshold outside debug mode.
	LogLevel string
	// JSONLogs switches the stderr logger to JSON.
	JSONLogs bool

	// Store selects where snapshots are persisted. Empty disables persistence.
	Store string
	// Dir is the snapshot directory of the file store.
	Dir string
	// RedisAddr is the address of the Redis server.
	RedisAddr string
	// RedisPrefix namespaces the Redis keys.
	RedisPrefix string
	// SnapshotTTL expires Redis snapshots. Zero keeps them forever.
	SnapshotTTL time.Duration
	// DistributedLock serializes ticks across processes through Redis.
	DistributedLock bool

	// Redact lists regular expressions of blackboard keys masked before persisting.
	Redact []string
	// EncryptionKey is a hex encoded AES key sealing persisted blackboards.
	EncryptionKey string

	// Hooks are registered on every loaded tree.
	Hooks domain.LifecycleHooks
}

// DefaultOptions returns the CLI defaults.
func DefaultOptions() Options {
	return Options{
		LogLevel:    domain.SeverityWarning.String(),
		RedisAddr:   "localhost:6379",
		SnapshotTTL: 24 * time.Hour,
	}
}
