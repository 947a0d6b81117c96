package embed

import (
	"context"
	"fmt"
	"time"

	porterr "github.com/jacnlabs/docport/internal/errors"
)

// Providers selectable via configuration.
const (
	ProviderOllama = "ollama"
	ProviderStatic = "static"
)

// FactoryConfig selects and tunes an embedding provider.
type FactoryConfig struct {
	Provider   string
	Model      string
	OllamaHost string
	Dimensions int
	BatchSize  int
	Timeout    time.Duration
	CacheSize  int
}

// NewEmbedder builds the configured provider wrapped in an LRU cache.
func NewEmbedder(ctx context.Context, cfg FactoryConfig) (Embedder, error) {
	var inner Embedder
	switch cfg.Provider {
	case ProviderStatic:
		inner = NewStaticEmbedder()
	case ProviderOllama, "":
		ollama, err := NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       cfg.OllamaHost,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		inner = ollama
	default:
		return nil, porterr.New(porterr.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown embedding provider %q", cfg.Provider), nil)
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
