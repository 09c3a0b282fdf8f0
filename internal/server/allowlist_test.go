package server

import (
	"testing"
)

func TestAllowlist_NilAllowsAll(t *testing.T) {
	var a *Allowlist
	if !a.Allows("anything.com") {
		t.Error("nil allowlist should allow all hosts")
	}
	if !a.AllowsURL("https://anything.com/file.zip") {
		t.Error("nil allowlist should allow any http(s) URL")
	}
}

func TestAllowlist_EmptyStringReturnsNil(t *testing.T) {
	for _, raw := range []string{"", "  "} {
		if a := ParseAllowlist(raw); a != nil {
			t.Errorf("ParseAllowlist(%q) should return nil allowlist", raw)
		}
	}
}

func TestAllowlist_Exact(t *testing.T) {
	tests := []struct {
		host   string
		wantOK bool
	}{
		{"github.com", true},
		{"objects.github.com", true},
		{"github.com.attacker.com", false},
		{"evilgithub.com", false},
		{"github.com:443", true},
		{"GitHub.COM", true},
	}

	a := ParseAllowlist("github.com")
	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			if got := a.Allows(tc.host); got != tc.wantOK {
				t.Errorf("Allows(%q) = %v, want %v", tc.host, got, tc.wantOK)
			}
		})
	}
}

func TestAllowlist_Wildcard(t *testing.T) {
	tests := []struct {
		host   string
		wantOK bool
	}{
		{"objects.githubusercontent.com", true},
		{"a.b.githubusercontent.com", true},
		{"githubusercontent.com", false},
		{"notgithubusercontent.com", false},
	}

	a := ParseAllowlist("*.githubusercontent.com")
	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			if got := a.Allows(tc.host); got != tc.wantOK {
				t.Errorf("Allows(%q) = %v, want %v", tc.host, got, tc.wantOK)
			}
		})
	}
}

func TestAllowlist_AllowsURL(t *testing.T) {
	a := ParseAllowlist("github.com, *.githubusercontent.com")
	tests := []struct {
		url    string
		wantOK bool
	}{
		{"https://github.com/synvert-hq/synvert-gui/releases/download/v1/Synvert.zip", true},
		{"https://objects.githubusercontent.com/x", true},
		{"http://github.com/x", true},
		{"javascript:alert(1)", false},
		{"//github.com/x", false},
		{"/relative/path", false},
		{"https://evil.com/github.com", false},
		{"ftp://github.com/x", false},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			if got := a.AllowsURL(tc.url); got != tc.wantOK {
				t.Errorf("AllowsURL(%q) = %v, want %v", tc.url, got, tc.wantOK)
			}
		})
	}
}

func FuzzAllowlist(f *testing.F) {
	f.Add("github.com", "github.com")
	f.Add("*.githubusercontent.com", "objects.githubusercontent.com")
	f.Add("", "anything")

	f.Fuzz(func(t *testing.T, raw, host string) {
		a := ParseAllowlist(raw)
		a.Allows(host)
	})
}
