package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Settings maps a setting name to its JSON value.
type Settings map[string]json.RawMessage

// DefaultSettings returns the appearance a new desktop starts with.
func DefaultSettings() Settings {
	return Settings{
		"background": json.RawMessage(`{"color":"#0a0a0a","image":""}`),
		"theme":      json.RawMessage(`"dark"`),
		"accent":     json.RawMessage(`"#3a72ff"`),
	}
}

// withDefaults overlays stored values on top of the defaults.
func withDefaults(stored Settings) Settings {
	out := DefaultSettings()
	for k, v := range stored {
		out[k] = v
	}
	return out
}

func checkSetting(key string, value json.RawMessage) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("setting key is empty")
	}
	if !json.Valid(value) {
		return fmt.Errorf("setting %q: value is not valid JSON", key)
	}
	return nil
}
