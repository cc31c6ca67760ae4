package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Annarex/test-app-sub000/internal/diff"
	"github.com/Annarex/test-app-sub000/internal/model"
	"github.com/Annarex/test-app-sub000/internal/store"
)

// FileName is the configuration file at the root of a workspace.
const FileName = "budgetcheck.yaml"

// EnvPrefix prefixes environment overrides, e.g. BUDGETCHECK_DATABASE_DSN.
const EnvPrefix = "BUDGETCHECK"

// Config represents the top-level budgetcheck.yaml configuration.
type Config struct {
	Project  string         `yaml:"project" mapstructure:"project"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Columns  ColumnsConfig  `yaml:"columns" mapstructure:"columns"`
	Check    CheckConfig    `yaml:"check" mapstructure:"check"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
}

// DatabaseConfig selects the store backend. A relative sqlite DSN is taken
// relative to the workspace root.
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ColumnsConfig lists the value columns of the form, in order.
type ColumnsConfig struct {
	Budget       []string `yaml:"budget" mapstructure:"budget"`
	Consolidated []string `yaml:"consolidated" mapstructure:"consolidated"`
}

// CheckConfig holds the diff thresholds. A nil MaxLevel means the default
// ceiling; 0 checks only the section totals.
type CheckConfig struct {
	Tolerance string `yaml:"tolerance" mapstructure:"tolerance"` // decimal text, e.g. "0.00001"
	MaxLevel  *int   `yaml:"max_level,omitempty" mapstructure:"max_level"`
}

// PathsConfig names workspace directories, relative to the root.
type PathsConfig struct {
	Import  string `yaml:"import" mapstructure:"import"`
	Exports string `yaml:"exports" mapstructure:"exports"`
	Logs    string `yaml:"logs" mapstructure:"logs"`
}

// Load reads a budgetcheck.yaml file from disk. Environment variables with
// the BUDGETCHECK_ prefix override scalar settings.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default(""))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("project", d.Project)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("columns.budget", d.Columns.Budget)
	v.SetDefault("columns.consolidated", d.Columns.Consolidated)
	v.SetDefault("check.tolerance", d.Check.Tolerance)
	v.SetDefault("check.max_level", *d.Check.MaxLevel)
	v.SetDefault("paths.import", d.Paths.Import)
	v.SetDefault("paths.exports", d.Paths.Exports)
	v.SetDefault("paths.logs", d.Paths.Logs)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(project string) *Config {
	cols := model.DefaultColumns()
	return &Config{
		Project: project,
		Database: DatabaseConfig{
			Driver: store.DriverSQLite,
			DSN:    "budgetcheck.db",
		},
		Columns: ColumnsConfig{
			Budget:       cols.Budget,
			Consolidated: cols.Consolidated,
		},
		Check: CheckConfig{
			Tolerance: diff.DefaultTolerance.String(),
			MaxLevel:  IntPtr(diff.DefaultMaxLevel),
		},
		Paths: PathsConfig{
			Import:  "import",
			Exports: "exports",
			Logs:    "logs",
		},
	}
}

// FormColumns returns the configured columns, falling back to the form's
// standard columns for an empty list.
func (c *Config) FormColumns() model.Columns {
	cols := model.DefaultColumns()
	if len(c.Columns.Budget) > 0 {
		cols.Budget = c.Columns.Budget
	}
	if len(c.Columns.Consolidated) > 0 {
		cols.Consolidated = c.Columns.Consolidated
	}
	return cols
}

// Checker builds the diff checker from the check settings.
func (c *Config) Checker() (diff.Checker, error) {
	ch := diff.Default()
	if s := strings.TrimSpace(c.Check.Tolerance); s != "" {
		tol, err := decimal.NewFromString(s)
		if err != nil {
			return diff.Checker{}, fmt.Errorf("parsing check.tolerance %q: %w", s, err)
		}
		if tol.IsNegative() {
			return diff.Checker{}, fmt.Errorf("check.tolerance must not be negative, got %s", s)
		}
		ch.Tolerance = tol
	}
	if c.Check.MaxLevel != nil {
		if *c.Check.MaxLevel < 0 {
			return diff.Checker{}, fmt.Errorf("check.max_level must not be negative, got %d", *c.Check.MaxLevel)
		}
		ch.MaxLevel = *c.Check.MaxLevel
	}
	return ch, nil
}

// DSN returns the database DSN, resolving a relative sqlite path against root.
func (c *Config) DSN(root string) string {
	if d, err := store.NormalizeDriver(c.Database.Driver); err == nil && d == store.DriverSQLite {
		return Resolve(root, c.Database.DSN)
	}
	return c.Database.DSN
}

// IntPtr returns a pointer to n, for optional settings.
func IntPtr(n int) *int {
	return &n
}

// Resolve joins a relative path to root; absolute paths pass through.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
