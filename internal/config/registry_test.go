package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != "/tmp/xdg/joymap" {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/joymap", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
	if !strings.Contains(configPath, "joymap") {
		t.Errorf("GetConfigPath() = %v, should contain 'joymap'", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Stores == nil {
		t.Error("NewRegistry().Stores should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if !reg.Preferences.AutoDiscover {
		t.Error("NewRegistry().Preferences.AutoDiscover should be true by default")
	}

	if reg.Preferences.Timeout != 10 {
		t.Errorf("NewRegistry().Preferences.Timeout = %v, want 10", reg.Preferences.Timeout)
	}
}

func TestRegistryRememberStore(t *testing.T) {
	reg := &Registry{}

	reg.RememberStore("pi", "http://10.0.0.2:3000")
	st := reg.GetStore("pi")
	if st == nil {
		t.Fatal("GetStore() = nil after RememberStore()")
	}
	if st.URL != "http://10.0.0.2:3000" {
		t.Errorf("URL = %s", st.URL)
	}
	if time.Since(st.LastSeen) > time.Second {
		t.Errorf("LastSeen not updated: %v", st.LastSeen)
	}

	reg.RememberStore("pi", "http://10.0.0.3:3000")
	if got := reg.GetStore("pi").URL; got != "http://10.0.0.3:3000" {
		t.Errorf("URL after update = %s", got)
	}

	reg.RememberStore("attic", "http://10.0.0.9:3000")
	if got := reg.StoreNames(); strings.Join(got, ",") != "attic,pi" {
		t.Errorf("StoreNames() = %v", got)
	}
}

func TestRegistryResolveStore(t *testing.T) {
	reg := NewRegistry()
	reg.RememberStore("pi", "http://10.0.0.2:3000")

	tests := []struct {
		name         string
		defaultStore string
		value        string
		want         string
		wantOK       bool
	}{
		{"explicit address", "", "10.0.0.7:3000", "10.0.0.7:3000", true},
		{"remembered name", "", "pi", "http://10.0.0.2:3000", true},
		{"default name", "pi", "", "http://10.0.0.2:3000", true},
		{"default address", "http://store:3000", "", "http://store:3000", true},
		{"flag beats default", "pi", "other:3000", "other:3000", true},
		{"nothing configured", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg.Preferences.DefaultStore = tt.defaultStore
			got, ok := reg.ResolveStore(tt.value)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ResolveStore(%q) = %q, %v; want %q, %v", tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joymap", "config.yaml")

	reg := NewRegistry()
	reg.Preferences.DefaultStore = "pi"
	reg.Preferences.Strict = true
	reg.RememberStore("pi", "http://10.0.0.2:3000")

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# joymap configuration") {
		t.Error("saved file is missing the header comment")
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}

	if loaded.Preferences.DefaultStore != "pi" || !loaded.Preferences.Strict {
		t.Errorf("Preferences = %+v", loaded.Preferences)
	}
	if st := loaded.GetStore("pi"); st == nil || st.URL != "http://10.0.0.2:3000" {
		t.Errorf("GetStore(pi) = %+v", st)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestLoadRegistryFrom(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file gives defaults", func(t *testing.T) {
		reg, err := LoadRegistryFrom(filepath.Join(dir, "absent.yaml"))
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if reg.Preferences.Retries != 3 {
			t.Errorf("Retries = %d, want 3", reg.Preferences.Retries)
		}
	})

	t.Run("missing sections are filled in", func(t *testing.T) {
		path := filepath.Join(dir, "bare.yaml")
		if err := os.WriteFile(path, []byte("version: 1\n"), 0600); err != nil {
			t.Fatal(err)
		}
		reg, err := LoadRegistryFrom(path)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if reg.Stores == nil || reg.Preferences == nil {
			t.Errorf("registry not completed: %+v", reg)
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := filepath.Join(dir, "v2.yaml")
		if err := os.WriteFile(path, []byte("version: 2\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRegistryFrom(path); err == nil {
			t.Error("expected error for version 2")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("version: [\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRegistryFrom(path); err == nil {
			t.Error("expected parse error")
		}
	})
}
