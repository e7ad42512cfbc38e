package storeserver

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/mapping"
	"github.com/rawjoystick/joymap/internal/store"
)

// maxMappingSize bounds POST bodies
const maxMappingSize = 4 << 20

// Handler returns the store's HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+store.MappingPath, s.handleGetMapping)
	mux.HandleFunc("POST "+store.MappingPath, s.handlePostMapping)
	mux.HandleFunc("GET "+store.LogsPath, s.handleLogs)
	mux.Handle("GET "+store.WatchPath, s.hub)

	if s.config.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	return logRequests(mux)
}

func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	data, err := s.files.Read()
	if errors.Is(err, os.ErrNotExist) {
		if err = s.files.EnsureExists(); err == nil {
			data, err = s.files.Read()
		}
	}
	if err != nil {
		logging.Error("Failed to read mapping file",
			zap.String("path", s.files.Path()),
			zap.Error(err),
		)
		http.Error(w, "Failed to read mapping", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handlePostMapping(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMappingSize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	patch, err := mapping.Parse(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid mapping document: %v", err), http.StatusBadRequest)
		return
	}

	out, err := s.files.Merge(patch)
	if err != nil {
		logging.Error("Failed to save mapping",
			zap.String("path", s.files.Path()),
			zap.Error(err),
		)
		http.Error(w, "Failed to save mapping", http.StatusInternalServerError)
		return
	}

	logging.LogMappingEvent(s.files.Path(), store.SourcePost, len(out))
	s.hub.Broadcast(store.Event{Type: store.EventMappingChanged, Source: store.SourcePost})

	message := "Mapping saved."
	if s.supervisor != nil {
		if err := s.supervisor.Restart(); err != nil {
			logging.Error("Failed to restart remapper", zap.Error(err))
			http.Error(w, fmt.Sprintf("Mapping saved, but the remapper could not be restarted: %v", err),
				http.StatusInternalServerError)
			return
		}
		message = "Mapping saved and remapper restarted."
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, message)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Logs []string `json:"logs"`
	}{
		Logs: s.logs.Lines(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Warn("Failed to encode logs response", zap.Error(err))
	}
}

// statusRecorder captures the status code for request logging. It passes
// Hijack through so websocket upgrades still work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
