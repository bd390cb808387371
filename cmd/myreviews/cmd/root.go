package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"myreviews/internal/localstore"
	"myreviews/internal/preferences"
	"myreviews/internal/syncapi"
	"myreviews/internal/syncer"
)

var (
	dataDir string

	store  *localstore.Store
	prefs  *preferences.Preferences
	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "myreviews",
	Short: "Offline-first restaurant review journal",
	Long: `myreviews keeps your restaurant reviews in a local database and can
sync them with a shared server. All commands work offline; run 'myreviews sync'
whenever you want to push your changes and pull everyone else's.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	defer func() {
		if store != nil {
			store.Close()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".myreviews")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = l.Sugar()

	prefs, err = preferences.Load(dataDir)
	if err != nil {
		return err
	}

	store, err = localstore.Open(filepath.Join(dataDir, "myreviews.db"))
	if err != nil {
		return err
	}
	return nil
}

// newSyncer wires the sync stack against the configured server, or errors
// when no server is set up yet.
func newSyncer() (*syncer.Syncer, error) {
	if !prefs.HasValidServerConfig() {
		return nil, fmt.Errorf("no sync server configured; run 'myreviews settings --server HOST [--port PORT]' first")
	}
	client := syncapi.NewClient(prefs.ServerBaseURL())
	return syncer.New(store, client, logger), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.myreviews)")
}
