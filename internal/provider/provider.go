// Package provider is the gateway to the remote image services. Both
// providers sit behind the same contract: one call, one encoded result image
// or an error with a human-readable message. No retries happen here.
package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brushup/internal/config"
	"brushup/internal/record"
)

// Gateway is the uniform contract over the two remote operations. Both return
// the result image as a data URL. Calls for different records are independent
// and may run concurrently.
type Gateway interface {
	// Generate produces an image from text alone.
	Generate(ctx context.Context, prompt string) (string, error)

	// Edit produces an image from text plus one or more source images, each
	// given as a data URL.
	Edit(ctx context.Context, prompt string, images []string) (string, error)
}

// ErrNoImage is the failure message used when a provider answers without a
// usable image.
const ErrNoImage = "provider returned no image"

// New returns the gateway for the given provider choice.
func New(ctx context.Context, choice record.Provider, cfg *config.Config) (Gateway, error) {
	timeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second
	switch choice {
	case record.ProviderOpenAI:
		return newOpenAI(cfg, timeout), nil
	case record.ProviderGemini:
		return newGemini(ctx, cfg, timeout)
	default:
		return nil, fmt.Errorf("unknown provider %q", choice)
	}
}

// Selector hands out gateways per submission so each record can target the
// provider selected at its submission time.
type Selector func(ctx context.Context, choice record.Provider) (Gateway, error)

// NewSelector builds a Selector that constructs clients lazily and reuses
// them across calls. Safe for concurrent submissions.
func NewSelector(cfg *config.Config) Selector {
	var mu sync.Mutex
	cache := make(map[record.Provider]Gateway)
	return func(ctx context.Context, choice record.Provider) (Gateway, error) {
		mu.Lock()
		defer mu.Unlock()
		if gw, ok := cache[choice]; ok {
			return gw, nil
		}
		gw, err := New(ctx, choice, cfg)
		if err != nil {
			return nil, err
		}
		cache[choice] = gw
		return gw, nil
	}
}
