package kb

import (
	"log/slog"

	"github.com/Aman-CERP/amankb/internal/config"
	"github.com/Aman-CERP/amankb/internal/corpus"
	"github.com/Aman-CERP/amankb/internal/search"
	"github.com/Aman-CERP/amankb/internal/store"
	"github.com/Aman-CERP/amankb/internal/telemetry"
)

// Defaults for result counts.
const (
	DefaultResults = 3
	MaxResults     = 10
)

// Options configures a Service.
type Options struct {
	// Sources are read in order; the first is the ground truth.
	Sources []corpus.Source

	// MinScore is the relevance threshold. Zero means search.DefaultMinScore.
	MinScore float64

	// DefaultResults is used when Search is called with n == 0.
	DefaultResults int

	// MaxResults caps the requested count.
	MaxResults int

	// StopWords names the stop word list ("english" or "none").
	StopWords string

	// CacheSize bounds the result cache.
	CacheSize int

	Logger  *slog.Logger
	Metrics *telemetry.QueryMetrics
}

// DefaultOptions returns options for the given sources with stock settings.
func DefaultOptions(sources ...corpus.Source) Options {
	return Options{
		Sources:        sources,
		MinScore:       search.DefaultMinScore,
		DefaultResults: DefaultResults,
		MaxResults:     MaxResults,
		StopWords:      store.StopWordsEnglish,
		CacheSize:      search.DefaultCacheSize,
	}
}

// OptionsFromConfig maps a loaded configuration onto service options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Sources:        append([]corpus.Source(nil), cfg.Sources...),
		MinScore:       cfg.Search.MinScore,
		DefaultResults: cfg.Search.DefaultResults,
		MaxResults:     cfg.Search.MaxResults,
		StopWords:      cfg.Search.StopWords,
		CacheSize:      cfg.Cache.Size,
		Logger:         logger,
	}
}

func (o *Options) applyDefaults() {
	if o.MinScore <= 0 {
		o.MinScore = search.DefaultMinScore
	}
	if o.DefaultResults <= 0 {
		o.DefaultResults = DefaultResults
	}
	if o.MaxResults <= 0 {
		o.MaxResults = MaxResults
	}
	if o.DefaultResults > o.MaxResults {
		o.DefaultResults = o.MaxResults
	}
	if o.CacheSize <= 0 {
		o.CacheSize = search.DefaultCacheSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = telemetry.NewQueryMetrics(telemetry.Config{})
	}
}
