package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/contacts-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Columns  ColumnsConfig  `yaml:"columns" mapstructure:"columns"`
	Validate ValidateConfig `yaml:"validate" mapstructure:"validate"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PipelineConfig configures normalization, merging and output of a run.
type PipelineConfig struct {
	DDIDefault           string        `yaml:"ddi_default" mapstructure:"ddi_default"`
	AssumeDDI            bool          `yaml:"assume_ddi" mapstructure:"assume_ddi"`
	BatchSize            int           `yaml:"batch_size" mapstructure:"batch_size"`
	Label                string        `yaml:"label" mapstructure:"label"`
	PhonePrefixPlus      bool          `yaml:"phone_prefix_plus" mapstructure:"phone_prefix_plus"`
	MinPhoneLen          int           `yaml:"min_phone_len" mapstructure:"min_phone_len"`
	MaxPhoneLen          int           `yaml:"max_phone_len" mapstructure:"max_phone_len"`
	GroupSeparator       string        `yaml:"group_separator" mapstructure:"group_separator"`
	ContactLimitWarn     int           `yaml:"contact_limit_warn" mapstructure:"contact_limit_warn"`
	DedupeEnabled        bool          `yaml:"dedupe_enabled" mapstructure:"dedupe_enabled"`
	TreatDotAsEmpty      bool          `yaml:"treat_dot_as_empty" mapstructure:"treat_dot_as_empty"`
	ProtectGoodName      bool          `yaml:"protect_good_name" mapstructure:"protect_good_name"`
	RenamePhoneLikeNames bool          `yaml:"rename_phone_like_names" mapstructure:"rename_phone_like_names"`
	ExplodePhones        bool          `yaml:"explode_phones" mapstructure:"explode_phones"`
	FallbackPrefix       string        `yaml:"fallback_prefix" mapstructure:"fallback_prefix"`
	ProgressEvery        int           `yaml:"progress_every" mapstructure:"progress_every"`
	ProgressInterval     time.Duration `yaml:"progress_interval" mapstructure:"progress_interval"`
	RepairMojibake       bool          `yaml:"repair_mojibake" mapstructure:"repair_mojibake"`
}

// ColumnsConfig holds default CRM column overrides and an optional YAML profile.
type ColumnsConfig struct {
	Profile               string `yaml:"profile" mapstructure:"profile"`
	model.ColumnOverrides `yaml:",inline" mapstructure:",squash"`
}

// ValidateConfig configures the pre-flight validation scan.
type ValidateConfig struct {
	PreviewLimit       int   `yaml:"preview_limit" mapstructure:"preview_limit"`
	FastScanLimitBytes int64 `yaml:"fast_scan_limit_bytes" mapstructure:"fast_scan_limit_bytes"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP driver.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate rejects pipeline settings no run can honor.
func (c PipelineConfig) Validate() error {
	if c.BatchSize < 1 {
		return eris.Errorf("config: pipeline.batch_size must be >= 1, got %d", c.BatchSize)
	}
	if c.MinPhoneLen > c.MaxPhoneLen {
		return eris.Errorf("config: pipeline.min_phone_len (%d) exceeds max_phone_len (%d)", c.MinPhoneLen, c.MaxPhoneLen)
	}
	return nil
}

// DefaultPipeline returns the pipeline settings used when nothing is configured.
func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		DDIDefault:           "55",
		AssumeDDI:            true,
		BatchSize:            3000,
		Label:                "CRM_2025",
		PhonePrefixPlus:      false,
		MinPhoneLen:          12,
		MaxPhoneLen:          13,
		GroupSeparator:       " ::: ",
		ContactLimitWarn:     25000,
		DedupeEnabled:        true,
		TreatDotAsEmpty:      true,
		ProtectGoodName:      true,
		RenamePhoneLikeNames: true,
		ExplodePhones:        true,
		FallbackPrefix:       "Cliente",
		ProgressEvery:        200,
		RepairMojibake:       true,
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONTACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	d := DefaultPipeline()
	v.SetDefault("pipeline.ddi_default", d.DDIDefault)
	v.SetDefault("pipeline.assume_ddi", d.AssumeDDI)
	v.SetDefault("pipeline.batch_size", d.BatchSize)
	v.SetDefault("pipeline.label", d.Label)
	v.SetDefault("pipeline.phone_prefix_plus", d.PhonePrefixPlus)
	v.SetDefault("pipeline.min_phone_len", d.MinPhoneLen)
	v.SetDefault("pipeline.max_phone_len", d.MaxPhoneLen)
	v.SetDefault("pipeline.group_separator", d.GroupSeparator)
	v.SetDefault("pipeline.contact_limit_warn", d.ContactLimitWarn)
	v.SetDefault("pipeline.dedupe_enabled", d.DedupeEnabled)
	v.SetDefault("pipeline.treat_dot_as_empty", d.TreatDotAsEmpty)
	v.SetDefault("pipeline.protect_good_name", d.ProtectGoodName)
	v.SetDefault("pipeline.rename_phone_like_names", d.RenamePhoneLikeNames)
	v.SetDefault("pipeline.explode_phones", d.ExplodePhones)
	v.SetDefault("pipeline.fallback_prefix", d.FallbackPrefix)
	v.SetDefault("pipeline.progress_every", d.ProgressEvery)
	v.SetDefault("pipeline.progress_interval", "0s")
	v.SetDefault("pipeline.repair_mojibake", d.RepairMojibake)
	v.SetDefault("columns.profile", "")
	for _, role := range []string{"name", "phone", "ddi", "tags", "created", "notes", "labels"} {
		v.SetDefault("columns."+role, "")
	}
	v.SetDefault("validate.preview_limit", 50)
	v.SetDefault("validate.fast_scan_limit_bytes", 20*1024*1024)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "contacts.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
