package storeserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/store"
)

// Config holds the server configuration
type Config struct {
	Host          string
	Port          int
	MappingFile   string        // Path to mapping.json
	StaticDir     string        // Directory served at / (empty = disabled)
	ReloadCmd     []string      // Remapper command restarted after each save (empty = none)
	ReloadTimeout time.Duration // Grace period between SIGINT and SIGKILL
	EnableMDNS    bool          // Advertise the store as _joymap._tcp
	InstanceName  string        // mDNS instance name (empty = "joymap on <hostname>")
	WatchFile     bool          // Notify subscribers of external writes to MappingFile
	LogLines      int           // Remapper output lines kept for /api/logs
	LogLevel      string
}

// Server is the mapping store: it serves mapping.json over HTTP, merges
// saves into it and restarts the remapper so it reloads the file.
type Server struct {
	config     *Config
	files      *FileStore
	hub        *Hub
	logs       *LogBuffer
	supervisor *Supervisor

	httpServer *http.Server
	mdns       *zeroconf.Server
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if config.MappingFile == "" {
		return nil, errors.New("mapping file path is required")
	}
	if config.Port == 0 {
		config.Port = store.DefaultPort
	}

	s := &Server{
		config: config,
		files:  NewFileStore(config.MappingFile),
		hub:    NewHub(),
		logs:   NewLogBuffer(config.LogLines),
	}
	if len(config.ReloadCmd) > 0 {
		s.supervisor = NewSupervisor(config.ReloadCmd, config.ReloadTimeout, s.logs)
	}
	return s, nil
}

// Files returns the server's mapping file store
func (s *Server) Files() *FileStore {
	return s.files
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	if err := s.files.EnsureExists(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	logging.Info("Starting joymap store",
		zap.String("addr", addr),
		zap.String("mapping_file", s.files.Path()),
		zap.Strings("reload_cmd", s.config.ReloadCmd),
		zap.String("static_dir", s.config.StaticDir),
	)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if s.supervisor != nil {
		if err := s.supervisor.Start(); err != nil {
			cancel()
			_ = listener.Close()
			return err
		}
	}

	if s.config.WatchFile {
		watcher := NewWatcher(s.files, func([]byte) {
			s.hub.Broadcast(store.Event{Type: store.EventMappingChanged, Source: store.SourceFile})
		})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := watcher.Run(ctx); err != nil {
				logging.Warn("Mapping file watcher stopped", zap.Error(err))
			}
		}()
	}

	if s.config.EnableMDNS {
		port := listener.Addr().(*net.TCPAddr).Port
		srv, err := advertise(s.config.InstanceName, port, s.files.Path())
		if err != nil {
			// Discovery is a convenience; the store still works by address.
			logging.Warn("mDNS advertisement disabled", zap.Error(err))
		} else {
			s.mdns = srv
		}
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Server listening for connections", zap.String("addr", listener.Addr().String()))

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		_ = s.Shutdown(context.Background())
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if s.mdns != nil {
		s.mdns.Shutdown()
	}

	s.hub.Close()

	var err error
	if s.httpServer != nil {
		if err = s.httpServer.Shutdown(ctx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			_ = s.httpServer.Close()
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if s.supervisor != nil {
		if stopErr := s.supervisor.Stop(); stopErr != nil {
			logging.Error("Failed to stop remapper", zap.Error(stopErr))
		}
	}

	logging.Sync()
	return err
}

// Subscribers returns the number of connected websocket subscribers
func (s *Server) Subscribers() int {
	return s.hub.Count()
}
