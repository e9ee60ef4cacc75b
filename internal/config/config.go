// Package config loads and validates the process-wide parser configuration.
// Configuration is read once at startup and treated as read-only afterwards;
// every pipeline component receives it by injection.
package config

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/spf13/viper"

	"github.com/wealthdesk/stmtparse/internal/common"
)

// Config is the root configuration for the service.
type Config struct {
	Identifiers Identifiers `mapstructure:"identifiers"`
	Keywords    Keywords    `mapstructure:"keywords"`
	Confidence  Confidence  `mapstructure:"confidence"`
	Thresholds  Thresholds  `mapstructure:"thresholds"`
	Classifier  Classifier  `mapstructure:"classifier"`
	Merge       Merge       `mapstructure:"merge"`
	Server      Server      `mapstructure:"server"`
	Audit       Audit       `mapstructure:"audit"`
	Logging     Logging     `mapstructure:"logging"`
}

// Identifiers configures the structural patterns for identifier extraction.
type Identifiers struct {
	// Patterns maps identifier kind to its regular expression. Matching is
	// performed on upper-cased text.
	Patterns map[string]string `mapstructure:"patterns"`
	// DIFalsePositives lists upper-case words that satisfy the DI-code
	// pattern but are ordinary English words.
	DIFalsePositives []string `mapstructure:"di_false_positives"`
}

// KeywordGroup holds the keyword lists for one statement type.
type KeywordGroup struct {
	Primary   []string `mapstructure:"primary"`
	Secondary []string `mapstructure:"secondary"`
	Weight    float64  `mapstructure:"weight"`
}

// Blanket lists phrases that select entire label groups at once.
type Blanket struct {
	AllStatements []string `mapstructure:"all_statements"`
	AllPMS        []string `mapstructure:"all_pms"`
	AllAIF        []string `mapstructure:"all_aif"`
}

// Keywords configures the rule-based statement classifier.
type Keywords struct {
	// Categories maps category -> statement type -> keyword group.
	Categories map[string]map[string]KeywordGroup `mapstructure:"categories"`
	Blanket    Blanket                            `mapstructure:"blanket"`
	// MinScore is the inclusion threshold for a type's accumulated weight.
	MinScore float64 `mapstructure:"min_score"`
	// SecondaryFactor scales the group weight for secondary keyword hits.
	SecondaryFactor float64 `mapstructure:"secondary_factor"`
}

// Weights are the confidence sub-score weights. They must sum to 1.0.
type Weights struct {
	StatementType float64 `mapstructure:"statement_type"`
	DateParsing   float64 `mapstructure:"date_parsing"`
	Identifiers   float64 `mapstructure:"identifiers"`
}

// Confidence configures the confidence scorer.
type Confidence struct {
	Weights Weights `mapstructure:"weights"`
	// MLBlendWeight is the share the statistical classifier's confidence
	// contributes when its output is blended into the final score.
	MLBlendWeight float64 `mapstructure:"ml_blend_weight"`
}

// Thresholds gate the fallback orchestrator. Both values are required
// configuration inputs; there is no hard-coded default in the pipeline.
type Thresholds struct {
	High   float64 `mapstructure:"high"`
	Medium float64 `mapstructure:"medium"`
}

// Classifier configures the statistical classifier boundary.
type Classifier struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	Enabled    bool          `mapstructure:"enabled"`
}

// Merge configures result-merger conflict resolution.
type Merge struct {
	// Margin is the weight difference above which one source's label set
	// wins outright for a category.
	Margin float64 `mapstructure:"margin"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `mapstructure:"addr"`
}

// Audit configures the outcome recorder. An empty path selects the
// log-only recorder.
type Audit struct {
	Path string `mapstructure:"path"`
}

// Logging configures the global logger.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file, layered over the built-in
// defaults, and validates it. The confidence thresholds must be present in
// the file; they are deliberately not defaulted.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("STMTPARSE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrMissingConfig, path, err)
	}

	if !v.IsSet("thresholds.high") || !v.IsSet("thresholds.medium") {
		return nil, fmt.Errorf("%w: thresholds.high and thresholds.medium are required", common.ErrMissingConfig)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the configuration invariants. Any violation is fatal at
// startup, never per-request.
func (c *Config) Validate() error {
	w := c.Confidence.Weights
	sum := w.StatementType + w.DateParsing + w.Identifiers
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("%w: confidence weights must sum to 1.0, got %.4f", common.ErrInvalidConfig, sum)
	}

	if c.Confidence.MLBlendWeight < 0 || c.Confidence.MLBlendWeight > 1 {
		return fmt.Errorf("%w: ml_blend_weight must be within [0,1], got %.4f", common.ErrInvalidConfig, c.Confidence.MLBlendWeight)
	}

	if c.Thresholds.High <= 0 || c.Thresholds.High > 100 {
		return fmt.Errorf("%w: thresholds.high must be within (0,100], got %.2f", common.ErrInvalidConfig, c.Thresholds.High)
	}
	if c.Thresholds.Medium <= 0 || c.Thresholds.Medium >= c.Thresholds.High {
		return fmt.Errorf("%w: thresholds.medium must be within (0, high), got %.2f", common.ErrInvalidConfig, c.Thresholds.Medium)
	}

	if len(c.Identifiers.Patterns) == 0 {
		return fmt.Errorf("%w: identifiers.patterns is empty", common.ErrMissingConfig)
	}
	for kind, pattern := range c.Identifiers.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: identifier pattern %q: %v", common.ErrInvalidConfig, kind, err)
		}
	}

	if len(c.Keywords.Categories) == 0 {
		return fmt.Errorf("%w: keywords.categories is empty", common.ErrMissingConfig)
	}
	for category, types := range c.Keywords.Categories {
		for stmtType, group := range types {
			if group.Weight <= 0 || group.Weight > 1 {
				return fmt.Errorf("%w: keyword weight for %s/%s must be within (0,1], got %.4f",
					common.ErrInvalidConfig, category, stmtType, group.Weight)
			}
			if len(group.Primary) == 0 {
				return fmt.Errorf("%w: %s/%s has no primary keywords", common.ErrInvalidConfig, category, stmtType)
			}
		}
	}
	if c.Keywords.MinScore <= 0 || c.Keywords.MinScore > 1 {
		return fmt.Errorf("%w: keywords.min_score must be within (0,1], got %.4f", common.ErrInvalidConfig, c.Keywords.MinScore)
	}
	if c.Keywords.SecondaryFactor <= 0 || c.Keywords.SecondaryFactor > 1 {
		return fmt.Errorf("%w: keywords.secondary_factor must be within (0,1], got %.4f", common.ErrInvalidConfig, c.Keywords.SecondaryFactor)
	}

	if c.Classifier.Enabled {
		if c.Classifier.Endpoint == "" {
			return fmt.Errorf("%w: classifier.endpoint is required when the classifier is enabled", common.ErrMissingConfig)
		}
		if c.Classifier.Timeout <= 0 {
			return fmt.Errorf("%w: classifier.timeout must be positive", common.ErrInvalidConfig)
		}
	}

	if c.Merge.Margin < 0 || c.Merge.Margin > 1 {
		return fmt.Errorf("%w: merge.margin must be within [0,1], got %.4f", common.ErrInvalidConfig, c.Merge.Margin)
	}

	return nil
}
