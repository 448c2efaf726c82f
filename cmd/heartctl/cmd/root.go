// Package cmd contains the CLI commands for heartctl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cenk2025/hardpath/internal/storage"
)

// defaultDBPath is the default database path, can be overridden via HEARTPATH_DB_PATH env var
var defaultDBPath = "data/heartpath.db"

func init() {
	if envPath := os.Getenv("HEARTPATH_DB_PATH"); envPath != "" {
		defaultDBPath = envPath
	}
}

var (
	verbose bool
	output  string
	dbPath  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "heartctl",
	Short: "heartctl - HeartPath operator CLI",
	Long: `heartctl manages a HeartPath database directly: user accounts,
care-team alerts, readiness scoring and patient data exports.

Commands that read encrypted fields need HEARTPATH_MASTER_KEY.

Examples:
  # List all users
  heartctl user list

  # Show unresolved alerts
  heartctl alerts list --filter active

  # Export a patient record, encrypted
  heartctl export --patient 3f2a... --out patient.json.enc`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath, "path to SQLite database file")
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// masterKey returns HEARTPATH_MASTER_KEY.
func masterKey() ([]byte, error) {
	key := os.Getenv("HEARTPATH_MASTER_KEY")
	if key == "" {
		return nil, fmt.Errorf("HEARTPATH_MASTER_KEY environment variable is required")
	}
	return []byte(key), nil
}

// openDatabase opens an existing SQLite database and applies pending migrations.
func openDatabase(path string) (*storage.SQLiteStorage, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", path)
	}
	key, err := masterKey()
	if err != nil {
		return nil, err
	}

	store := storage.NewSQLiteStorage(path, key)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}
