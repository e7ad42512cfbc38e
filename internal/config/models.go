package config

import (
	"sort"
	"time"
)

// Registry represents the entire user configuration file: preferences for
// the joymap commands and the stores this machine has talked to.
type Registry struct {
	Version     int               `yaml:"version"`
	Preferences *Preferences      `yaml:"preferences,omitempty"`
	Stores      map[string]*Store `yaml:"stores,omitempty"` // Keyed by store name
}

// Store remembers one mapping store.
type Store struct {
	URL      string    `yaml:"url"`                 // Base URL, e.g. http://raspberrypi.local:3000
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last successful load or discovery
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultStore    string `yaml:"default_store,omitempty"` // Store name or URL used when --store is absent
	Timeout         int    `yaml:"timeout"`                 // HTTP timeout in seconds
	Retries         int    `yaml:"retries"`                 // Load retry attempts
	AutoDiscover    bool   `yaml:"auto_discover"`           // Browse mDNS when no store is configured
	DiscoverTimeout int    `yaml:"discover_timeout"`        // mDNS discovery timeout in seconds
	Strict          bool   `yaml:"strict"`                  // Reject non-numeric input instead of saving null
}

// DefaultPreferences returns the preferences of a fresh registry.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Timeout:         10,
		Retries:         3,
		AutoDiscover:    true,
		DiscoverTimeout: 5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Preferences: DefaultPreferences(),
		Stores:      make(map[string]*Store),
	}
}

// GetStore retrieves a remembered store by name.
// Returns nil if the store doesn't exist in the registry.
func (r *Registry) GetStore(name string) *Store {
	return r.Stores[name]
}

// RememberStore records that the store named name answered at url.
func (r *Registry) RememberStore(name, url string) {
	if r.Stores == nil {
		r.Stores = make(map[string]*Store)
	}
	st, ok := r.Stores[name]
	if !ok {
		st = &Store{}
		r.Stores[name] = st
	}
	st.URL = url
	st.LastSeen = time.Now()
}

// StoreNames returns the remembered store names in sorted order.
func (r *Registry) StoreNames() []string {
	names := make([]string, 0, len(r.Stores))
	for name := range r.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveStore turns a --store value into a base URL. An empty value falls
// back to the default store. A remembered store name resolves to its URL;
// anything else is taken as an address. ok is false when nothing is
// configured.
func (r *Registry) ResolveStore(value string) (url string, ok bool) {
	if value == "" && r.Preferences != nil {
		value = r.Preferences.DefaultStore
	}
	if value == "" {
		return "", false
	}
	if st := r.Stores[value]; st != nil && st.URL != "" {
		return st.URL, true
	}
	return value, true
}
