package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type joymap-store advertises
	ServiceType = "_joymap._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for store discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an advertisement carries no port
	DefaultPort = 3000
)

// Scanner handles mDNS store discovery
type Scanner struct {
	// Timeout is the maximum time to wait for store discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForStores browses until the timeout (or ctx) expires and returns every
// store seen, sorted by instance name.
func (s *Scanner) ScanForStores(ctx context.Context) ([]*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	found := make(map[string]*Store)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if st := s.parseServiceEntry(entry); st != nil {
					mu.Lock()
					found[st.Instance] = st
					mu.Unlock()
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()

	stores := make([]*Store, 0, len(found))
	for _, st := range found {
		stores = append(stores, st)
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].Instance < stores[j].Instance })
	return stores, nil
}

// FindFirst returns the first store that answers, or an error when none
// does within the timeout.
func (s *Scanner) FindFirst(ctx context.Context) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	storeChan := make(chan *Store, 1)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if st := s.parseServiceEntry(entry); st != nil {
					select {
					case storeChan <- st:
					default:
					}
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case st := <-storeChan:
		return st, nil
	case <-ctx.Done():
		select {
		case st := <-storeChan:
			return st, nil
		default:
		}
		return nil, fmt.Errorf("no joymap store found within %s", s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Store.
// Returns nil if the entry carries no usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Store {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Store{
		Instance:     unescapeInstance(entry.Instance),
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// unescapeInstance undoes the DNS escaping zeroconf applies to spaces and dots
func unescapeInstance(name string) string {
	return strings.NewReplacer(`\ `, " ", `\.`, ".").Replace(name)
}

// ScanForStores is a convenience function to scan with a custom timeout
func ScanForStores(ctx context.Context, timeout time.Duration) ([]*Store, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForStores(ctx)
}
