package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fim-go/internal/app"
	"fim-go/internal/config"
	"fim-go/internal/encryption"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates a FIMApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "scan", "run").
func newApp(command string) (*app.FIMApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFIMApp(cfg, command)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "fimd",
	Short:        "File integrity monitoring agent",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if envFile == "" {
			return nil
		}
		return app.LoadDotEnv(envFile)
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		agentID := uuid.New().String()
		cfg := config.NewConfig(agentID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Agent ID: %s\n", agentID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Add [[watches]] entries to start monitoring.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.ApplyDefaults()

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Agent ID:  %s\n", cfg.AgentID)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Frequency: %ds\n", cfg.Scan.Frequency)
		fmt.Printf("Sink:      %s\n", cfg.Sink.Type)
		fmt.Printf("Archive:   %s\n", cfg.Archive.Type)
		fmt.Println("Watches:")
		if len(cfg.Watches) == 0 {
			fmt.Println("  (none)")
		}
		for _, w := range cfg.Watches {
			fmt.Printf("  %s  %v", w.Path, w.Options)
			if w.Realtime {
				fmt.Print("  realtime")
			}
			if w.Tag != "" {
				fmt.Printf("  tag=%s", w.Tag)
			}
			fmt.Println()
		}
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("scan")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.RunCycle()
		if r != nil {
			kind := "cycle"
			if r.Prescan {
				kind = "pre-scan"
			}
			fmt.Printf("%s %s: %d scanned, %d created, %d modified, %d deleted, %d errors\n",
				kind, r.ID, r.Scanned, r.Created, r.Modified, r.Deleted, r.Errors)
		}
		return err
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitor continuously until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("run")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Run(ctx)
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View scan cycle history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		cycles, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(cycles) == 0 {
			fmt.Println("No scan cycles recorded.")
			return nil
		}

		for _, c := range cycles {
			kind := "cycle"
			if c.Prescan {
				kind = "prescan"
			}
			fmt.Printf("%s  %-7s  %s  %8s  scanned=%d created=%d modified=%d deleted=%d errors=%d\n",
				c.ID,
				kind,
				c.StartedAt.Local().Format("2006-01-02 15:04:05"),
				c.FinishedAt.Sub(c.StartedAt).Truncate(time.Millisecond),
				c.Scanned, c.Created, c.Modified, c.Deleted, c.Errors,
			)
		}
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Maintain the local database",
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a consistent copy of the database to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("db-backup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.BackupDatabase(args[0]); err != nil {
			return err
		}
		fmt.Printf("Database backed up to %s\n", args[0])
		return nil
	},
}

// baseline command
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect, export and import the baseline",
}

var baselineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked paths and their stored checksums",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("baseline-list")
		if err != nil {
			return err
		}
		defer a.Close()

		entries := a.Baseline()
		if len(entries) == 0 {
			fmt.Println("Baseline is empty.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.Checksum, e.Path)
		}
		return nil
	},
}

var baselineExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Encrypt the baseline and store it in the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("baseline-export")
		if err != nil {
			return err
		}
		defer a.Close()

		version, n, err := a.ExportBaseline()
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d entries as version %d\n", n, version)
		return nil
	},
}

var baselineImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the local baseline with an archived export",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")

		a, err := newApp("baseline-import")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		n, err := a.ImportBaseline(from, passphrase)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d entries\n", n)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used for baseline exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		enc := encryption.NewAgeEncryptor(cfg.Encryption)
		if enc.IsConfigured() {
			return fmt.Errorf("keys already exist at %s", cfg.Encryption.PublicKeyPath)
		}

		passphrase, err := readNewPassphrase()
		if err != nil {
			return err
		}
		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		recipient, err := enc.Recipient()
		if err != nil {
			return err
		}
		fmt.Printf("Public key: %s\n", recipient)
		return nil
	},
}

// decode command
var decodeCmd = &cobra.Command{
	Use:   "decode CHECKSUM [AUDIT]",
	Short: "Print the fields of a checksum line",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var audit *string
		if len(args) == 2 {
			audit = &args[1]
		}
		out, err := describeChecksum(args[0], audit)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Load environment variables from this file if it exists")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// baseline subcommands
	baselineCmd.AddCommand(baselineListCmd)
	baselineCmd.AddCommand(baselineExportCmd)
	baselineCmd.AddCommand(baselineImportCmd)
	baselineImportCmd.Flags().String("from", "", "Agent ID whose export to import (default: this agent)")

	keysCmd.AddCommand(keysInitCmd)

	dbCmd.AddCommand(dbBackupCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of cycles to show")
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(decodeCmd)
}
