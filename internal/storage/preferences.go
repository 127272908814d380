package storage

import (
	"slices"
	"strconv"

	"github.com/Mohsinsiddi/memefactory/internal/config"
	"github.com/Mohsinsiddi/memefactory/internal/errs"
)

// Preferences are the user's display and transaction defaults.
type Preferences struct {
	Theme           string `json:"theme"`
	AutoRefresh     bool   `json:"autoRefresh"`
	Notifications   bool   `json:"notifications"`
	DefaultGasLimit string `json:"defaultGasLimit"`
}

// PreferenceKeys lists the names accepted by UpdatePreference.
var PreferenceKeys = []string{"theme", "autoRefresh", "notifications", "defaultGasLimit"}

// DefaultPreferences returns the preferences of a fresh install.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:           "dark",
		AutoRefresh:     true,
		Notifications:   true,
		DefaultGasLimit: config.DefaultGasLimit,
	}
}

// GasLimit parses DefaultGasLimit, falling back to the built-in default.
func (p Preferences) GasLimit() uint64 {
	if n, err := strconv.ParseUint(p.DefaultGasLimit, 10, 64); err == nil && n > 0 {
		return n
	}
	n, _ := strconv.ParseUint(config.DefaultGasLimit, 10, 64)
	return n
}

// Preferences returns the stored preferences, or the defaults.
func (s *Store) Preferences() (Preferences, error) {
	p := DefaultPreferences()
	if _, err := s.getJSON(PreferencesKey, &p); err != nil {
		return DefaultPreferences(), err
	}
	return p, nil
}

// SetPreferences replaces the stored preferences.
func (s *Store) SetPreferences(p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putJSON(PreferencesKey, p)
}

// UpdatePreference sets one preference by name from its string form.
func (s *Store) UpdatePreference(key, value string) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := DefaultPreferences()
	if _, err := s.getJSON(PreferencesKey, &p); err != nil {
		return p, err
	}
	switch key {
	case "theme":
		if value != "dark" && value != "light" {
			return p, errs.Invalid("theme must be dark or light")
		}
		p.Theme = value
	case "autoRefresh", "notifications":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return p, errs.Invalid("%s must be true or false", key)
		}
		if key == "autoRefresh" {
			p.AutoRefresh = b
		} else {
			p.Notifications = b
		}
	case "defaultGasLimit":
		if n, err := strconv.ParseUint(value, 10, 64); err != nil || n == 0 {
			return p, errs.Invalid("defaultGasLimit must be a positive integer")
		}
		p.DefaultGasLimit = value
	default:
		return p, errs.Invalid("unknown preference %q (want one of %v)", key, slices.Clone(PreferenceKeys))
	}
	return p, s.putJSON(PreferencesKey, p)
}

// ResetPreferences restores the defaults.
func (s *Store) ResetPreferences() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(PreferencesKey)
}
