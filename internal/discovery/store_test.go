package discovery

import "testing"

func TestStore_String(t *testing.T) {
	st := &Store{
		Instance: "joymap",
		Hostname: "raspberrypi.local.",
		IP:       "192.168.4.16",
		Port:     3000,
	}

	expected := "joymap (raspberrypi.local.) at 192.168.4.16:3000"
	if st.String() != expected {
		t.Errorf("Store.String() = %v, want %v", st.String(), expected)
	}
}

func TestStore_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		store    *Store
		expected string
	}{
		{"ipv4", &Store{IP: "192.168.4.16", Port: 3000}, "http://192.168.4.16:3000"},
		{"custom port", &Store{IP: "10.0.0.5", Port: 8080}, "http://10.0.0.5:8080"},
		{"ipv6", &Store{IP: "fe80::1", Port: 3000}, "http://[fe80::1]:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.store.BaseURL(); got != tt.expected {
				t.Errorf("Store.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStore_GetMetadata(t *testing.T) {
	st := &Store{Metadata: map[string]string{"version": "1.2.0"}}

	if got := st.GetMetadata("version"); got != "1.2.0" {
		t.Errorf("GetMetadata(version) = %q, want 1.2.0", got)
	}
	if got := st.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}

	empty := &Store{}
	if got := empty.GetMetadata("version"); got != "" {
		t.Errorf("GetMetadata on nil metadata = %q, want empty", got)
	}
}
