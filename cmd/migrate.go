package cmd

import (
	"fmt"
	"os"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"github.com/mdbport/mdbport/internal/access"
	"github.com/mdbport/mdbport/internal/config"
	"github.com/mdbport/mdbport/internal/migrate"
	"github.com/mdbport/mdbport/internal/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <source-path> <target-path>",
	Short: "Migrate an Access database into a new SQLite database",
	Long: `migrate discovers the tables of the source Access database through the
configured external tool, maps their schemas onto SQLite, and transfers all
rows. An existing file at the target path is replaced.`,
	Args: cobra.ExactArgs(2),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sourcePath, targetPath := args[0], args[1]

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("source database not found at %s", sourcePath)
	}
	// Rerunning against the same source must produce the same result.
	if err := os.Remove(targetPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing existing target %s: %w", targetPath, err)
	}

	source, strategy, err := buildPipeline(cfg, sourcePath)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(targetPath)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := migrate.NewEngine(source, store, strategy, log)

	uiprogress.Start()
	var bar *uiprogress.Bar
	engine.OnDiscover = func(count int) {
		bar = uiprogress.AddBar(count).AppendCompleted().PrependElapsed()
	}
	engine.OnTable = func(string) {
		if bar != nil {
			bar.Incr()
		}
	}

	result, err := engine.Run(cmd.Context())
	uiprogress.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("\nMigration complete: %d tables migrated, %d skipped.\n",
		result.TablesMigrated, result.TablesSkipped)
	if result.RowsSkipped > 0 {
		fmt.Printf("Skipped %d rows (see warnings above).\n", result.RowsSkipped)
	}
	fmt.Printf("Total rows imported across all tables: %d\n", result.RowsCommitted)
	return nil
}

// buildPipeline wires the configured tool suite to its matching transfer
// strategy. Config validation already rejected incompatible combinations.
func buildPipeline(cfg *config.Config, sourcePath string) (access.Source, migrate.TransferStrategy, error) {
	switch cfg.Tool.Kind {
	case config.ToolUCanAccess:
		console, err := access.NewConsole(cfg.Tool.ConsoleScript, sourcePath, cfg.Tool.Timeout(), log)
		if err != nil {
			return nil, nil, err
		}
		extractor := access.NewExtractor(console, access.DefaultRetryOptions, log)
		return extractor, migrate.NewCSVStrategy(extractor, cfg.Transfer.Delimiter(), log), nil
	case config.ToolMDBTools:
		tools, err := access.NewMDBTools(sourcePath, cfg.Tool.Timeout(), log)
		if err != nil {
			return nil, nil, err
		}
		return tools, migrate.NewBulkStrategy(tools, log), nil
	default:
		return nil, nil, fmt.Errorf("unsupported tool kind: %q", cfg.Tool.Kind)
	}
}
