package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
)

var globalOpts = cli.DefaultOptions()

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "arbor runs behavior trees",
	Long: `arbor loads behavior trees declared in YAML or JSON, ticks them,
persists their blackboards and exposes them over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&globalOpts.Debug, "debug", globalOpts.Debug, "Trace node lifecycles and log at debug level")
	flags.StringVar(&globalOpts.LogLevel, "log-level", globalOpts.LogLevel, "Syslog severity threshold (emerg..debug)")
	flags.BoolVar(&globalOpts.JSONLogs, "log-json", globalOpts.JSONLogs, "Write logs as JSON")

	flags.StringVar(&globalOpts.Store, "store", globalOpts.Store, "Snapshot store: memory, file or redis (empty disables persistence)")
	flags.StringVar(&globalOpts.Dir, "store-dir", globalOpts.Dir, "Directory of the file store")
	flags.StringVar(&globalOpts.RedisAddr, "redis-addr", globalOpts.RedisAddr, "Redis address")
	flags.StringVar(&globalOpts.RedisPrefix, "redis-prefix", globalOpts.RedisPrefix, "Redis key prefix")
	flags.DurationVar(&globalOpts.SnapshotTTL, "snapshot-ttl", globalOpts.SnapshotTTL, "Expiry of Redis snapshots (0 keeps them)")
	flags.BoolVar(&globalOpts.DistributedLock, "lock", globalOpts.DistributedLock, "Serialize ticks across processes with a Redis lock")
	flags.StringSliceVar(&globalOpts.Redact, "redact", globalOpts.Redact, "Regular expressions of blackboard keys to mask before persisting")
	flags.StringVar(&globalOpts.EncryptionKey, "encryption-key", globalOpts.EncryptionKey, "Hex encoded AES key sealing persisted blackboards")
}
