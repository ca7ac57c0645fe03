package pageplan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// Config holds the deploy-time paging settings.
type Config struct {
	// Dialect forces a dialect preset. Empty means detect it from the gorm
	// dialector.
	Dialect string `mapstructure:"dialect"`
	// EnableMemoryPaging allows the in-process paging fallback.
	EnableMemoryPaging bool `mapstructure:"enable_memory_paging"`
	// InstallDistinctRank installs the distinct-rank function during Setup on
	// dialects able to host it.
	InstallDistinctRank bool `mapstructure:"install_distinct_rank"`
	MaxPageSize         int  `mapstructure:"max_page_size"`
	// ConcurrentQueries issues count and page queries concurrently.
	ConcurrentQueries bool `mapstructure:"concurrent_queries"`
}

// LoadConfig loads configuration with precedence env > config file > defaults.
// Environment variables use the PAGEPLAN_ prefix, e.g.
// PAGEPLAN_ENABLE_MEMORY_PAGING=true. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PAGEPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}

		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		MaxPageSize: MaxPageSize,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "")
	v.SetDefault("enable_memory_paging", false)
	v.SetDefault("install_distinct_rank", false)
	v.SetDefault("max_page_size", MaxPageSize)
	v.SetDefault("concurrent_queries", false)
}

// Setup resolves the dialect of db and settles the distinct-rank function:
// it is installed when cfg asks for it, otherwise its presence is probed.
// The returned Dialect is read-only configuration for every Pager of db.
func Setup(ctx context.Context, db *gorm.DB, cfg *Config) (Dialect, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var (
		d   Dialect
		err error
	)
	if cfg.Dialect != "" {
		d, err = LookupDialect(cfg.Dialect)
	} else {
		d, err = DialectFor(db)
	}
	if err != nil {
		return Dialect{}, fmt.Errorf("cannot set up paging: %w", err)
	}

	if !d.MultiColumnDistinctRank {
		return d, nil
	}

	if cfg.InstallDistinctRank {
		d, err = InstallDistinctRank(ctx, db, d)
		if err != nil {
			return Dialect{}, fmt.Errorf("cannot set up paging: %w", err)
		}

		return d, nil
	}

	installed, err := ProbeDistinctRank(ctx, db)
	if err != nil {
		return Dialect{}, fmt.Errorf("cannot set up paging: %w", err)
	}
	if !installed {
		slog.WarnContext(ctx, "distinct rank function is not installed, collection ordered paging falls back to memory",
			slog.String("dialect", d.Name))
	}

	return d.WithDistinctRankInstalled(installed), nil
}

// NewPagerFromConfig builds a Pager with the flags of cfg applied.
func NewPagerFromConfig(executor Executor, d Dialect, cfg *Config) *Pager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return NewPager(executor, d).
		WithMemoryPaging(cfg.EnableMemoryPaging).
		WithConcurrentQueries(cfg.ConcurrentQueries).
		WithMaxPageSize(cfg.MaxPageSize)
}
