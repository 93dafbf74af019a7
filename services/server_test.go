package services

import (
	"net/http/httptest"
	"testing"
)

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins string
		want           bool
	}{
		{"allowed origin", "https://app.example.com", "https://app.example.com", true},
		{"second of several", "https://staging.example.com", "https://app.example.com,https://staging.example.com", true},
		{"whitespace in list", "https://app.example.com", " https://app.example.com , https://other.example.com ", true},
		{"not in list", "https://evil.example.com", "https://app.example.com", false},
		{"no origins configured", "https://app.example.com", "", false},
		{"empty origin header", "", "https://app.example.com", false},
		{"scheme mismatch", "http://app.example.com", "https://app.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := checkOrigin(r, tt.allowedOrigins); got != tt.want {
				t.Errorf("checkOrigin(origin=%q, allowed=%q) = %v, want %v", tt.origin, tt.allowedOrigins, got, tt.want)
			}
		})
	}
}
