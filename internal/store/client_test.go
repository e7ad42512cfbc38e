package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rawjoystick/joymap/internal/mapping"
)

const mockMapping = `{"global_axis_index":2,"devices":[{"name":"Pad","path":"/dev/input/event3","axes":[{"code":0,"dead_zone":5,"invert":false,"mapped_axis":0}],"buttons":{"288":{"mapped_button":1,"virtual_joystick":0}}}]}`

func TestNewClient(t *testing.T) {
	client := NewClient("raspberrypi.local", 3000)

	if client.BaseURL != "http://raspberrypi.local:3000" {
		t.Errorf("BaseURL = %s, want http://raspberrypi.local:3000", client.BaseURL)
	}

	if client.HTTPClient == nil {
		t.Error("HTTPClient should not be nil")
	}

	if client.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", client.MaxRetries, DefaultMaxRetries)
	}
}

func TestNewClientWithURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://10.0.0.5:3000", "http://10.0.0.5:3000"},
		{"10.0.0.5:3000", "http://10.0.0.5:3000"},
		{"http://10.0.0.5:3000/", "http://10.0.0.5:3000"},
		{" https://store.example ", "https://store.example"},
	}

	for _, tt := range tests {
		client := NewClientWithURL(tt.in)
		if client.BaseURL != tt.want {
			t.Errorf("NewClientWithURL(%q).BaseURL = %s, want %s", tt.in, client.BaseURL, tt.want)
		}
	}
}

func TestSetTimeout(t *testing.T) {
	client := NewClient("localhost", 3000)
	client.SetTimeout(5 * time.Second)

	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.HTTPClient.Timeout)
	}
}

func TestSetRetry(t *testing.T) {
	client := NewClient("localhost", 3000)
	client.SetRetry(5, 2*time.Second)

	if client.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", client.MaxRetries)
	}

	if client.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", client.RetryDelay)
	}
}

func TestPing_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead || r.URL.Path != MappingPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v, want nil", err)
	}
}

func TestPing_NetworkFailure(t *testing.T) {
	client := NewClient("192.0.2.1", 3000) // TEST-NET-1 (guaranteed unreachable)
	client.SetTimeout(100 * time.Millisecond)

	err := client.Ping(context.Background())
	if err == nil {
		t.Fatal("Ping() should return error for network failure")
	}

	if !IsNetworkError(err) {
		t.Errorf("Ping() error should be network error, got %T: %v", err, err)
	}
}

func TestLoad_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Method = %s, want GET", r.Method)
		}
		if r.URL.Path != MappingPath {
			t.Errorf("Path = %s, want %s", r.URL.Path, MappingPath)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mockMapping))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	doc, err := client.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(doc.Devices()) != 1 {
		t.Fatalf("Devices = %d, want 1", len(doc.Devices()))
	}

	if got := doc.Devices()[0].Name(); got != "Pad" {
		t.Errorf("Name = %s, want Pad", got)
	}

	if gai, ok := doc.GlobalAxisIndex(); !ok || gai != 2 {
		t.Errorf("GlobalAxisIndex = %d, %v, want 2, true", gai, ok)
	}
}

func TestLoad_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(mockMapping))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.SetRetry(3, time.Millisecond)

	if _, err := client.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestLoad_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.SetRetry(3, time.Millisecond)

	_, err := client.Load(context.Background())
	if !IsHTTPError(err) {
		t.Fatalf("Load() error = %v, want HTTP error", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestLoad_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not a mapping</html>`))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	_, err := client.Load(context.Background())

	if !IsParseError(err) {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestLoad_ContextCanceledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.SetRetry(5, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Load(ctx)
	if err == nil {
		t.Fatal("Load() should fail when the context expires")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("Load() did not return promptly after cancellation")
	}
}

func TestSave_Success(t *testing.T) {
	var body string
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write([]byte("Mapping saved"))
	}))
	defer server.Close()

	doc, err := mapping.Parse([]byte(mockMapping))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	client := NewClientWithURL(server.URL)
	text, err := client.Save(context.Background(), doc)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if text != "Mapping saved" {
		t.Errorf("Save() text = %q, want %q", text, "Mapping saved")
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", contentType)
	}

	if !strings.HasPrefix(body, "{\n  \"global_axis_index\": 2,") {
		t.Errorf("body is not 2-space indented:\n%s", body)
	}
}

func TestSave_HTTPErrorKeepsText(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Failed to write mapping"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.SetRetry(3, time.Millisecond)

	text, err := client.Save(context.Background(), mapping.EmptyDocument())
	if !IsHTTPError(err) {
		t.Fatalf("Save() error = %v, want HTTP error", err)
	}

	if text != "Failed to write mapping" {
		t.Errorf("Save() text = %q, want %q", text, "Failed to write mapping")
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1 (saves are not retried)", got)
	}
}

func TestLogs_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != LogsPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"logs":["started","axis 0 -> 3"]}`))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	logs, err := client.Logs(context.Background())
	if err != nil {
		t.Fatalf("Logs() error = %v", err)
	}

	if len(logs) != 2 || logs[1] != "axis 0 -> 3" {
		t.Errorf("Logs() = %v", logs)
	}
}

func TestSaveAndVerify_ReportsDroppedEdits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte("ok"))
			return
		}
		// The store ignores whatever was posted.
		_, _ = w.Write([]byte(mockMapping))
	}))
	defer server.Close()

	doc, err := mapping.Parse([]byte(mockMapping))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	doc.Devices()[0].Axes()[0].SetDeadZone(12)

	client := NewClientWithURL(server.URL)
	_, changes, err := client.SaveAndVerify(context.Background(), doc)
	if err != nil {
		t.Fatalf("SaveAndVerify() error = %v", err)
	}

	if len(changes) != 1 {
		t.Fatalf("changes = %v, want 1 entry", changes)
	}
}

func TestWatchURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://pi:3000", "ws://pi:3000/ws"},
		{"https://pi", "wss://pi/ws"},
		{"pi:3000/", "ws://pi:3000/ws"},
	}

	for _, tt := range tests {
		if got := WatchURL(tt.in); got != tt.want {
			t.Errorf("WatchURL(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSaveAndVerify_StoreOrderDiffers(t *testing.T) {
	const sent = `{"devices":[` +
		`{"name":"Stick","path":"/dev/input/event3","axes":[{"code":0,"dead_zone":12}],"buttons":{}},` +
		`{"name":"Pad","path":"/dev/input/event4","axes":[{"code":0,"dead_zone":0}],"buttons":{"288":{"mapped_button":3,"virtual_joystick":0}}}]}`
	// The store lists the devices the other way round.
	const stored = `{"devices":[` +
		`{"name":"Pad","path":"/dev/input/event4","axes":[{"code":0,"dead_zone":0}],"buttons":{"288":{"mapped_button":3,"virtual_joystick":0}}},` +
		`{"name":"Stick","path":"/dev/input/event3","axes":[{"code":0,"dead_zone":12}],"buttons":{}}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte("Mapping saved."))
			return
		}
		_, _ = w.Write([]byte(stored))
	}))
	defer server.Close()

	doc, err := mapping.Parse([]byte(sent))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	client := NewClientWithURL(server.URL)
	_, changes, err := client.SaveAndVerify(context.Background(), doc)
	if err != nil {
		t.Fatalf("SaveAndVerify() error = %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("changes = %v, want none", changes)
	}
}
