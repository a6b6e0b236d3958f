package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Tool kinds and transfer strategies selectable via configuration.
const (
	ToolUCanAccess = "ucanaccess"
	ToolMDBTools   = "mdbtools"

	StrategyCSV  = "csv"
	StrategyBulk = "bulk"
)

// Config holds all configuration for one run. Values are resolved once from
// flags/config file and passed into components at construction; there is no
// process-wide mutable default.
type Config struct {
	Tool     ToolConfig     `mapstructure:"tool"`
	Transfer TransferConfig `mapstructure:"transfer"`
}

// ToolConfig locates the external source-database tooling.
type ToolConfig struct {
	// Kind selects the tool suite: "ucanaccess" (interactive console) or
	// "mdbtools" (mdb-tables / mdb-schema / mdb-export).
	Kind string `mapstructure:"kind"`
	// ConsoleScript is the UCanAccess console launcher path.
	ConsoleScript string `mapstructure:"console_script"`
	// TimeoutSeconds bounds each tool invocation; 0 disables the deadline.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// TransferConfig selects and tunes the transfer strategy.
type TransferConfig struct {
	// Strategy is "csv" (conservative, per-row) or "bulk" (tool-generated
	// statement batch).
	Strategy string `mapstructure:"strategy"`
	// CSVDelimiter is the field separator of the console's export format.
	CSVDelimiter string `mapstructure:"csv_delimiter"`
}

func (t ToolConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Delimiter returns the CSV separator as a rune, defaulting to ';'.
func (t TransferConfig) Delimiter() rune {
	if t.CSVDelimiter == "" {
		return ';'
	}
	return []rune(t.CSVDelimiter)[0]
}

// SetDefaults registers configuration defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tool.kind", ToolUCanAccess)
	v.SetDefault("tool.console_script", "UCanAccess-5.0.1.bin/console.sh")
	v.SetDefault("tool.timeout_seconds", 120)
	v.SetDefault("transfer.strategy", StrategyCSV)
	v.SetDefault("transfer.csv_delimiter", ";")
}

// Load unmarshals and validates the resolved configuration.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown or incompatible selections. The CSV path needs
// the console's export command; the bulk path needs mdb-export.
func (c *Config) Validate() error {
	switch c.Tool.Kind {
	case ToolUCanAccess, ToolMDBTools:
	default:
		return fmt.Errorf("unsupported tool kind: %q (only %s and %s are supported)",
			c.Tool.Kind, ToolUCanAccess, ToolMDBTools)
	}
	switch c.Transfer.Strategy {
	case StrategyCSV, StrategyBulk:
	default:
		return fmt.Errorf("unsupported transfer strategy: %q (only %s and %s are supported)",
			c.Transfer.Strategy, StrategyCSV, StrategyBulk)
	}
	if c.Transfer.Strategy == StrategyCSV && c.Tool.Kind != ToolUCanAccess {
		return fmt.Errorf("the %s strategy requires the %s tool", StrategyCSV, ToolUCanAccess)
	}
	if c.Transfer.Strategy == StrategyBulk && c.Tool.Kind != ToolMDBTools {
		return fmt.Errorf("the %s strategy requires the %s tool", StrategyBulk, ToolMDBTools)
	}
	return nil
}
