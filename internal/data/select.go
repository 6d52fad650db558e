package data

import (
	"fmt"
	"os"
)

// MassiveAPIKeyEnv names the environment variable holding the Massive API key.
const MassiveAPIKeyEnv = "MASSIVE_API_KEY"

// Select builds the provider chain for kind ("auto", "massive", "local" or
// "synthetic") and returns it with a short description. "auto" prefers
// Massive when an API key is set, then local files when dir is set, then
// synthetic data. Massive falls back to local files when dir is set.
func Select(kind, apiKey, dir string, seed int64) (Provider, string, error) {
	if kind == "auto" {
		switch {
		case apiKey != "":
			kind = "massive"
		case dir != "":
			kind = "local"
		default:
			kind = "synthetic"
		}
	}

	switch kind {
	case "massive":
		if apiKey == "" {
			return nil, "", fmt.Errorf("massive provider needs %s", MassiveAPIKeyEnv)
		}
		var secondary Provider
		desc := "massive"
		if dir != "" {
			secondary = NewLocalFileDataProvider(dir, nil)
			desc = "massive, local fallback " + dir
		}
		return NewMassiveDataProvider(apiKey, secondary), desc, nil
	case "local":
		if _, err := os.Stat(dir); err != nil {
			return nil, "", fmt.Errorf("local provider: %w", err)
		}
		return NewLocalFileDataProvider(dir, nil), "local " + dir, nil
	case "synthetic":
		return NewSyntheticProvider(seed), fmt.Sprintf("synthetic seed=%d", seed), nil
	}
	return nil, "", fmt.Errorf("unknown provider %q", kind)
}
