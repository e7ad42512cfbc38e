package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Store represents a joymap-store instance discovered on the network
type Store struct {
	// Instance is the advertised instance name (e.g., "joymap on raspberrypi")
	Instance string

	// Hostname is the mDNS hostname (e.g., "raspberrypi.local.")
	Hostname string

	// IP is the store address, IPv4 when one was advertised
	IP string

	// Port is the HTTP port (typically 3000)
	Port int

	// Metadata contains the mDNS TXT record data
	// Common fields: "version=1.2.0", "file=mapping.json"
	Metadata map[string]string

	// DiscoveredAt is when the store was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the store
func (s *Store) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.Hostname, net.JoinHostPort(s.IP, strconv.Itoa(s.Port)))
}

// BaseURL returns the HTTP base URL for the store
func (s *Store) BaseURL() string {
	return "http://" + net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Store) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
