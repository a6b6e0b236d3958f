package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mdbport/mdbport/internal/config"
)

var (
	cfgFile       string
	verbose       bool
	toolKind      string
	consoleScript string
	strategy      string
	toolTimeout   int

	v   = viper.New()
	log *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "mdbport",
	Short: "Migrate legacy Access databases to SQLite and verify the result",
	Long: `mdbport converts a Microsoft Access database (.mdb/.accdb) into a
SQLite database using external Access tooling (the UCanAccess console or
mdb-tools), and verifies a migrated database against a trusted reference.`,
	SilenceUsage:      true,
	PersistentPreRunE: initLoggerAndConfig,
}

// initLoggerAndConfig builds the logger and resolves configuration before any
// subcommand runs.
func initLoggerAndConfig(cmd *cobra.Command, args []string) error {
	var err error
	log, err = newLogger(verbose)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
		v.AddConfigPath(".")
		v.SetConfigName("mdbport")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// An absent implicit config file is fine; an explicitly requested
		// one that cannot be read is not.
		if cfgFile != "" {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		log.Debugw("using config file", "path", v.ConfigFileUsed())
	}
	return nil
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mdbport.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&toolKind, "tool", "", "source tool suite (ucanaccess or mdbtools)")
	rootCmd.PersistentFlags().StringVar(&consoleScript, "console-script", "", "path to the UCanAccess console launcher")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "", "transfer strategy (csv or bulk)")
	rootCmd.PersistentFlags().IntVar(&toolTimeout, "tool-timeout", 0, "per-invocation tool timeout in seconds (0 disables)")

	v.BindPFlag("tool.kind", rootCmd.PersistentFlags().Lookup("tool"))
	v.BindPFlag("tool.console_script", rootCmd.PersistentFlags().Lookup("console-script"))
	v.BindPFlag("transfer.strategy", rootCmd.PersistentFlags().Lookup("strategy"))
	v.BindPFlag("tool.timeout_seconds", rootCmd.PersistentFlags().Lookup("tool-timeout"))
	config.SetDefaults(v)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(verifyCmd)
}
