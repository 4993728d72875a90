package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Extract     ExtractConfig     `yaml:"extract" mapstructure:"extract"`
	Eligibility EligibilityConfig `yaml:"eligibility" mapstructure:"eligibility"`
	Accuracy    AccuracyConfig    `yaml:"accuracy" mapstructure:"accuracy"`
	Summary     SummaryConfig     `yaml:"summary" mapstructure:"summary"`
	Labels      LabelsConfig      `yaml:"labels" mapstructure:"labels"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the patient and reference label files.
type InputConfig struct {
	Patients string `yaml:"patients" mapstructure:"patients"`
	Labels   string `yaml:"labels" mapstructure:"labels"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	Sheet    string `yaml:"sheet" mapstructure:"sheet"`
}

// OutputConfig names the files written by a run.
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	Extraction  string `yaml:"extraction" mapstructure:"extraction"`
	Eligibility string `yaml:"eligibility" mapstructure:"eligibility"`
}

// ExtractConfig configures note extraction.
type ExtractConfig struct {
	PackYearsPattern string `yaml:"pack_years_pattern" mapstructure:"pack_years_pattern"`
	QuitYearsPattern string `yaml:"quit_years_pattern" mapstructure:"quit_years_pattern"`
	AbsentPackYears  string `yaml:"absent_pack_years" mapstructure:"absent_pack_years"`
	Concurrency      int    `yaml:"concurrency" mapstructure:"concurrency"`
	Augment          bool   `yaml:"augment" mapstructure:"augment"`
}

// EligibilityConfig points at an optional guideline YAML file.
type EligibilityConfig struct {
	GuidelineFile string `yaml:"guideline_file" mapstructure:"guideline_file"`
}

// AccuracyConfig configures label comparison.
type AccuracyConfig struct {
	LabelPolicy string `yaml:"label_policy" mapstructure:"label_policy"`
}

// SummaryConfig configures aggregate reporting.
type SummaryConfig struct {
	TopComorbidities int    `yaml:"top_comorbidities" mapstructure:"top_comorbidities"`
	SampleSize       int    `yaml:"sample_size" mapstructure:"sample_size"`
	Seed             uint64 `yaml:"seed" mapstructure:"seed"`
}

// LabelsConfig configures mock label generation.
type LabelsConfig struct {
	Count int `yaml:"count" mapstructure:"count"`
}

// AnthropicConfig holds Anthropic API settings for note augmentation.
type AnthropicConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxAttempts       int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.patients", "data/raw/synthetic_patients.csv")
	v.SetDefault("input.labels", "data/labeled/labeled_notes.csv")
	v.SetDefault("input.charset", "")
	v.SetDefault("input.sheet", "")
	v.SetDefault("output.dir", "data/processed")
	v.SetDefault("output.extraction", "nlp_extracted.csv")
	v.SetDefault("output.eligibility", "eligibility_flags.csv")
	v.SetDefault("extract.pack_years_pattern", `(?i)(\d+)\s*pack[- ]?years?`)
	v.SetDefault("extract.quit_years_pattern", `(?i)quit\s*(\d+)\s*years?`)
	v.SetDefault("extract.absent_pack_years", "fallthrough")
	v.SetDefault("extract.concurrency", 8)
	v.SetDefault("extract.augment", false)
	v.SetDefault("eligibility.guideline_file", "")
	v.SetDefault("accuracy.label_policy", "canonical")
	v.SetDefault("summary.top_comorbidities", 3)
	v.SetDefault("summary.sample_size", 5)
	v.SetDefault("summary.seed", 1)
	v.SetDefault("labels.count", 50)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 256)
	v.SetDefault("anthropic.requests_per_second", 2.0)
	v.SetDefault("anthropic.max_attempts", 3)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "screening.db")
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

// Validate checks the settings a command depends on. mode is the command name.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run", "extract":
		errs = append(errs, c.validateExtract()...)
		if mode == "run" {
			errs = append(errs, c.validateAccuracy()...)
			errs = append(errs, c.validateStore()...)
		}
	case "eligibility", "summarize", "validate", "labels":
	case "evaluate":
		errs = append(errs, c.validateAccuracy()...)
	case "runs":
		errs = append(errs, c.validateStore()...)
		if c.Store.Driver == "none" {
			errs = append(errs, "store.driver must not be none to inspect runs")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Labels.Count < 0 {
		errs = append(errs, "labels.count must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateExtract() []string {
	var errs []string
	if c.Extract.Concurrency < 1 || c.Extract.Concurrency > 64 {
		errs = append(errs, "extract.concurrency must be between 1 and 64")
	}
	switch c.Extract.AbsentPackYears {
	case "fallthrough", "unknown":
	default:
		errs = append(errs, fmt.Sprintf("extract.absent_pack_years must be fallthrough or unknown, got %q", c.Extract.AbsentPackYears))
	}
	if c.Extract.Augment {
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required when extract.augment is enabled")
		}
		if c.Anthropic.RequestsPerSecond <= 0 {
			errs = append(errs, "anthropic.requests_per_second must be > 0")
		}
	}
	return errs
}

func (c *Config) validateAccuracy() []string {
	switch c.Accuracy.LabelPolicy {
	case "", "canonical", "strict":
		return nil
	}
	return []string{fmt.Sprintf("accuracy.label_policy must be canonical or strict, got %q", c.Accuracy.LabelPolicy)}
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite", "none":
		return nil
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required for the postgres driver"}
		}
		return nil
	}
	return []string{fmt.Sprintf("store.driver must be sqlite, postgres, or none, got %q", c.Store.Driver)}
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
