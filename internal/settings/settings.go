// Package settings holds the per-caller pipeline preferences and the port
// they are persisted through.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	llmclient "topicgrid/internal/llm/client"
)

// PreferenceKey is the key the provider choice is stored under.
const PreferenceKey = "llmProvider"

// ErrUnknownProvider is returned by Save for a provider outside the known set.
var ErrUnknownProvider = errors.New("settings: unknown provider")

// Settings is passed explicitly into every pipeline entry point.
type Settings struct {
	Provider llmclient.Name `json:"provider"`
}

func Default() Settings {
	return Settings{Provider: llmclient.OpenAI}
}

// Store is a string key/value port. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Key returns the storage key for scope; an empty scope is the global default.
func Key(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return PreferenceKey
	}
	return PreferenceKey + ":" + scope
}

// Load reads the settings for scope. A missing or unrecognized value yields
// Default() without error; only store failures are returned.
func Load(ctx context.Context, st Store, scope string) (Settings, error) {
	if st == nil {
		return Default(), nil
	}
	v, ok, err := st.Get(ctx, Key(scope))
	if err != nil {
		return Default(), fmt.Errorf("settings: load %s: %w", Key(scope), err)
	}
	if !ok {
		return Default(), nil
	}
	name, valid := llmclient.ParseName(v)
	if !valid {
		return Default(), nil
	}
	return Settings{Provider: name}, nil
}

func Save(ctx context.Context, st Store, scope string, s Settings) error {
	name, ok := llmclient.ParseName(string(s.Provider))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
	if st == nil {
		return errors.New("settings: no store configured")
	}
	if err := st.Set(ctx, Key(scope), string(name)); err != nil {
		return fmt.Errorf("settings: save %s: %w", Key(scope), err)
	}
	return nil
}
