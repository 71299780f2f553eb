package util

import (
	"testing"
)

func TestFormatAddr(t *testing.T) {
	if got := FormatAddr("1.2.3.4", 22); got != "1.2.3.4:22" {
		t.Errorf("got %q, want %q", got, "1.2.3.4:22")
	}
}

func TestSplitAddr(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"127.0.0.1:9000", "127.0.0.1", 9000, false},
		{"239.1.2.3:5000", "239.1.2.3", 5000, false},
		{"[::1]:80", "", 0, true}, // IPv6 is not accepted
		{"example.com:80", "", 0, true},
		{"127.0.0.1", "", 0, true},
		{"127.0.0.1:http", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, port, err := SplitAddr(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitAddr(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got (%q, %d), want (%q, %d)", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if port < 1 || port > 65535 {
		t.Errorf("port %d out of range", port)
	}
}

func TestFindFreeUDPPort(t *testing.T) {
	port, err := FindFreeUDPPort()
	if err != nil {
		t.Fatal(err)
	}
	if port < 1 || port > 65535 {
		t.Errorf("port %d out of range", port)
	}
}
