// Package cmd - Settings administration
// Operators import new settings revisions here; running servers pick them
// up by polling or through a Redis notification.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"move-quote/adapters/notify"
	"move-quote/adapters/storage"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Pricing settings administration",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings document in force",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Load settings from the configured backend and report the result",
	Args:  cobra.NoArgs,
	RunE:  runSettingsReload,
}

var settingsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the settings database",
	Args:  cobra.NoArgs,
	RunE:  runSettingsMigrate,
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <settings.json>",
	Short: "Validate a settings document and store it as the next revision",
	Long: `Validate a settings document and store it as the next revision.

The document is rejected as a whole if any value is invalid; nothing is
written in that case. With --notify the new revision is announced on the
configured Redis channel.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsImport,
}

var settingsNotifyCmd = &cobra.Command{
	Use:   "notify <revision>",
	Short: "Announce a settings revision to running servers",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsNotify,
}

var (
	importNote   string
	importNotify bool
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsReloadCmd)
	settingsCmd.AddCommand(settingsMigrateCmd)
	settingsCmd.AddCommand(settingsImportCmd)
	settingsCmd.AddCommand(settingsNotifyCmd)

	settingsImportCmd.Flags().StringVar(&importNote, "note", "", "note stored with the revision")
	settingsImportCmd.Flags().BoolVar(&importNotify, "notify", false, "announce the revision on Redis")
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.LoadSettings(ctx)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap.Document())
}

func runSettingsReload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	w := newWriter(cmd)
	snap, err := a.Settings.Reload(ctx)
	if err != nil {
		w.Error("Reload from %s failed: %v", a.Settings.SourceName(), err)
		return err
	}
	w.Success("Loaded revision %d from %s", snap.Revision, snap.Source)
	w.Info("Hash: %s", snap.Hash.Hex())
	return nil
}

func runSettingsMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := appConfig.StorageConfig()
	w := newWriter(cmd)

	switch cfg.Backend {
	case storage.BackendSQLite:
		store, err := storage.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		version, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		w.Success("SQLite schema at version %d (%s)", version, cfg.Path)
	case storage.BackendPostgres:
		store, err := storage.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		w.Success("PostgreSQL schema is up to date")
	default:
		return fmt.Errorf("backend %s has no schema to migrate", cfg.Backend)
	}
	return nil
}

func runSettingsImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	doc, err := storage.DecodeDocument(data)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, appConfig.StorageConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	importer, ok := store.(storage.Importer)
	if !ok {
		return fmt.Errorf("backend %s does not accept imports", appConfig.Settings.Backend)
	}

	w := newWriter(cmd)
	revision, err := importer.Import(ctx, doc, importNote)
	if err != nil {
		w.Error("Import rejected: %v", err)
		return err
	}
	w.Success("Stored revision %d in %s", revision, store.Name())

	if importNotify {
		return announce(cmd, revision)
	}
	return nil
}

func runSettingsNotify(cmd *cobra.Command, args []string) error {
	revision, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || revision < 0 {
		return fmt.Errorf("revision must be a non-negative integer, got %q", args[0])
	}
	return announce(cmd, revision)
}

func announce(cmd *cobra.Command, revision int64) error {
	if appConfig.Notify.RedisAddr == "" {
		return fmt.Errorf("notify.redis_addr is not configured")
	}
	client := notify.NewClient(appConfig.Notify.RedisAddr)
	defer client.Close()

	if err := notify.Publish(cmd.Context(), client, appConfig.Notify.Channel, revision); err != nil {
		return fmt.Errorf("publish revision %d: %w", revision, err)
	}
	newWriter(cmd).Success("Announced revision %d on %s", revision, appConfig.Notify.Channel)
	return nil
}
