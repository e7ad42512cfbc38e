package storeserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rawjoystick/joymap/internal/mapping"
	"github.com/rawjoystick/joymap/internal/store"
)

const storedMapping = `{
  "global_axis_index": 2,
  "devices": [
    {
      "name": "Pad",
      "path": "/dev/input/event0",
      "axes": [
        {"code": 0, "dead_zone": 0, "invert": false},
        {"code": 1, "dead_zone": 0, "invert": false}
      ],
      "buttons": {
        "288": {"mapped_button": 0, "virtual_joystick": 0}
      }
    }
  ]
}`

func newTestServer(t *testing.T, initial string) (*Server, *httptest.Server) {
	t.Helper()
	return newTestServerWithStatic(t, initial, "")
}

func newTestServerWithStatic(t *testing.T, initial, staticDir string) (*Server, *httptest.Server) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mapping.json")
	if initial != "" {
		if err := os.WriteFile(path, []byte(initial), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	s, err := New(&Config{MappingFile: path, StaticDir: staticDir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.hub.Close()
		ts.Close()
	})
	return s, ts
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}

func TestGetMapping_CreatesMissingFile(t *testing.T) {
	s, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + store.MappingPath)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body != "{}" {
		t.Errorf("body = %q, want {}", body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}

	data, err := os.ReadFile(s.Files().Path())
	if err != nil || string(data) != "{}" {
		t.Errorf("mapping file = %q, %v; want {}", data, err)
	}
}

func TestGetMapping_ServesFileVerbatim(t *testing.T) {
	_, ts := newTestServer(t, storedMapping)

	resp, err := http.Get(ts.URL + store.MappingPath)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	if body := readBody(t, resp); body != storedMapping {
		t.Errorf("body differs from file:\n%s", body)
	}
}

func TestPostMapping_MergesIntoFile(t *testing.T) {
	s, ts := newTestServer(t, storedMapping)

	patch := `{"devices":[{"path":"/dev/input/event0","axes":[{"code":1,"dead_zone":9}],"buttons":{"288":{"mapped_button":4}}}]}`
	resp, err := http.Post(ts.URL+store.MappingPath, "application/json", strings.NewReader(patch))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", resp.StatusCode, body)
	}
	if body != "Mapping saved." {
		t.Errorf("body = %q, want %q", body, "Mapping saved.")
	}

	data, err := os.ReadFile(s.Files().Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"global_axis_index\": 2,\n  \"devices\": [") {
		t.Errorf("file is not the indented merge result:\n%s", data)
	}

	doc, err := mapping.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	dev := doc.Devices()[0]
	if dev.Name() != "Pad" {
		t.Errorf("Name = %q, want Pad", dev.Name())
	}
	if len(dev.Axes()) != 2 {
		t.Fatalf("axes = %d, want 2", len(dev.Axes()))
	}
	if got := dev.Axes()[1].DeadZone(); got != 9 {
		t.Errorf("axis 1 dead_zone = %v, want 9", got)
	}
	if got := dev.Axes()[0].DeadZone(); got != 0 {
		t.Errorf("axis 0 dead_zone = %v, want 0", got)
	}
	b, _ := dev.Buttons().Get("288")
	if got := b.MappedButton(); got != 4 {
		t.Errorf("button 288 mapped_button = %v, want 4", got)
	}
	if got := b.VirtualJoystick(); got != 0 {
		t.Errorf("button 288 virtual_joystick = %v, want 0", got)
	}
}

func TestPostMapping_UnparsableStoredFileStartsEmpty(t *testing.T) {
	s, ts := newTestServer(t, "not json")

	resp, err := http.Post(ts.URL+store.MappingPath, "application/json", strings.NewReader(`{"devices":[]}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	_ = readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	data, _ := os.ReadFile(s.Files().Path())
	if string(data) != "{\n  \"devices\": []\n}" {
		t.Errorf("file = %q", data)
	}
}

func TestPostMapping_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"devices":`},
		{"array", `[1,2]`},
		{"null", `null`},
		{"devices not a list", `{"devices":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ts := newTestServer(t, storedMapping)

			resp, err := http.Post(ts.URL+store.MappingPath, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST error = %v", err)
			}
			body := readBody(t, resp)

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if !strings.HasPrefix(body, "Invalid mapping document") {
				t.Errorf("body = %q", body)
			}

			data, _ := os.ReadFile(s.Files().Path())
			if string(data) != storedMapping {
				t.Error("rejected POST modified the mapping file")
			}
		})
	}
}

func TestMapping_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, storedMapping)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+store.MappingPath, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	_ = readBody(t, resp)

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestLogs(t *testing.T) {
	s, ts := newTestServer(t, storedMapping)
	s.logs.Append("remapper started")
	_, _ = s.logs.Write([]byte("axis 0 -> 3\n"))

	resp, err := http.Get(ts.URL + store.LogsPath)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}

	var payload struct {
		Logs []string `json:"logs"`
	}
	if err := json.Unmarshal([]byte(readBody(t, resp)), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := []string{"remapper started", "axis 0 -> 3"}
	if len(payload.Logs) != len(want) {
		t.Fatalf("logs = %v, want %v", payload.Logs, want)
	}
	for i := range want {
		if payload.Logs[i] != want[i] {
			t.Errorf("logs[%d] = %q, want %q", i, payload.Logs[i], want[i])
		}
	}
}

func TestLogs_EmptyIsArray(t *testing.T) {
	_, ts := newTestServer(t, storedMapping)

	resp, err := http.Get(ts.URL + store.LogsPath)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	if body := strings.TrimSpace(readBody(t, resp)); body != `{"logs":[]}` {
		t.Errorf("body = %s, want {\"logs\":[]}", body)
	}
}

func TestStaticFiles(t *testing.T) {
	staticDir := t.TempDir()
	_, ts := newTestServerWithStatic(t, storedMapping, staticDir)
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>joymap</h1>"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	if body := readBody(t, resp); body != "<h1>joymap</h1>" {
		t.Errorf("body = %q", body)
	}
}

func TestClientRoundTrip(t *testing.T) {
	_, ts := newTestServer(t, storedMapping)
	client := store.NewClientWithURL(ts.URL)

	ctx := context.Background()
	doc, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	model := mapping.NewModel()
	model.Load(doc)
	if err := model.WriteAxisField(0, 0, mapping.AxisInvert, "true"); err != nil {
		t.Fatalf("WriteAxisField() error = %v", err)
	}

	text, changes, err := client.SaveAndVerify(ctx, model.Serialize())
	if err != nil {
		t.Fatalf("SaveAndVerify() error = %v", err)
	}
	if text != "Mapping saved." {
		t.Errorf("text = %q", text)
	}
	if len(changes) != 0 {
		t.Errorf("edits not applied: %v", changes)
	}

	reloaded, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reloaded.Devices()[0].Axes()[0].Invert() {
		t.Error("invert was not saved")
	}
	if gbi, ok := reloaded.GlobalButtonIndex(); !ok || gbi != 0 {
		t.Errorf("global_button_index = %d, %v; want 0, true", gbi, ok)
	}
}

func TestWatch_ReceivesPostEvents(t *testing.T) {
	s, ts := newTestServer(t, storedMapping)
	client := store.NewClientWithURL(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := client.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	for s.Subscribers() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if _, err := client.Save(ctx, mapping.EmptyDocument()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != store.EventMappingChanged || ev.Source != store.SourcePost {
			t.Errorf("event = %+v", ev)
		}
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}
