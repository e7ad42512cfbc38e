package storeserver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/discovery"
	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/version"
)

// defaultInstanceName is "joymap on <hostname>"
func defaultInstanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "joymap"
	}
	return "joymap on " + host
}

// advertise registers the store with mDNS so editors can find it with
// joymap-edit scan
func advertise(instance string, port int, mappingFile string) (*zeroconf.Server, error) {
	if instance == "" {
		instance = defaultInstanceName()
	}

	txt := []string{
		"version=" + version.Version,
		"file=" + filepath.Base(mappingFile),
	}

	srv, err := zeroconf.Register(instance, discovery.ServiceType, discovery.ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising store over mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
	return srv, nil
}
