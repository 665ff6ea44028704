package util

import (
	"net/http/httptest"
	"testing"
)

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Empty", "", false},
		{"HTTP", "http://localhost:5173/components/", true},
		{"HTTPS", "https://example.com", true},
		{"No scheme", "example.com", false},
		{"FTP", "ftp://example.com", false},
		{"Spaces", "http://exa mple.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidURL(tt.input); got != tt.want {
				t.Errorf("IsValidURL(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://localhost:5173", "/", "http://localhost:5173/"},
		{"http://localhost:5173/", "/components/cards/", "http://localhost:5173/components/cards/"},
		{"http://localhost:5173", "buttons", "http://localhost:5173/buttons"},
		{"http://localhost:5173", "https://other.test/x", "https://other.test/x"},
		{"", "/x", "/x"},
	}
	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Home":              "home",
		"Cards & Surfaces":  "cards-surfaces",
		"/components/list/": "components-list",
		"***":               "page",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetClientIPAddress(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if got := GetClientIPAddress(r); got != "10.0.0.1:1234" {
		t.Errorf("GetClientIPAddress() = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	if got := GetClientIPAddress(r); got != "203.0.113.7" {
		t.Errorf("GetClientIPAddress() with XFF = %q", got)
	}
}
