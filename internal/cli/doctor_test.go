package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
	"github.com/iamthetwodigiter/rusty-rebase/internal/config"
	"github.com/iamthetwodigiter/rusty-rebase/internal/host"
)

func TestJoinComma(t *testing.T) {
	tests := []struct {
		input []string
		want  string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b", "c"}, "a, b, c"},
	}

	for _, tt := range tests {
		got := joinComma(tt.input)
		if got != tt.want {
			t.Errorf("joinComma(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCheckConfigWithError(t *testing.T) {
	result := checkConfig(config.Config{}, fmt.Errorf("config file unreadable"))

	if result.Status != "error" {
		t.Errorf("got status=%q, want error", result.Status)
	}
	if result.Name != "Config" {
		t.Errorf("got name=%q, want Config", result.Name)
	}
}

func TestCheckConfigValid(t *testing.T) {
	result := checkConfig(config.Default(), nil)

	if result.Status != "ok" {
		t.Errorf("got status=%q, want ok (%s)", result.Status, result.Summary)
	}
}

func TestCheckConfigWarning(t *testing.T) {
	cfg := config.Default()
	cfg.GitHubAPI = "http://github.internal/api/v3"
	result := checkConfig(cfg, nil)

	if result.Status != "warning" {
		t.Errorf("got status=%q, want warning", result.Status)
	}
}

func TestCheckCatalog(t *testing.T) {
	if got := checkCatalog(catalog.Catalog{}, errors.New("missing")); got.Status != "error" {
		t.Errorf("got status=%q, want error", got.Status)
	}
	if got := checkCatalog(catalog.Catalog{}, nil); got.Status != "warning" {
		t.Errorf("got status=%q, want warning for an empty catalog", got.Status)
	}

	cat := catalog.Catalog{Software: map[string]catalog.Spec{
		"git": {DisplayName: "Git", EnabledByDefault: true, Source: catalog.PackageManagerSource{}},
		"rg":  {DisplayName: "ripgrep", Source: catalog.PackageManagerSource{}},
	}}
	got := checkCatalog(cat, nil)
	if got.Status != "ok" || got.Summary != "2 items, 1 enabled by default" {
		t.Errorf("got %+v", got)
	}
}

func TestCheckHostUnknownManager(t *testing.T) {
	d := host.Detector{
		OSRelease: "/nonexistent/os-release",
		Platform: func(context.Context) (string, string, string, error) {
			return "gentoo", "", "x86_64", nil
		},
		LookPath: func(string) error { return errors.New("not found") },
	}
	got := checkHost(context.Background(), d)
	if got.Status != "warning" {
		t.Errorf("got status=%q, want warning", got.Status)
	}
	if !strings.Contains(got.Summary, "gentoo") {
		t.Errorf("summary %q should name the distribution", got.Summary)
	}
}

func TestCheckTools(t *testing.T) {
	missingUnzip := func(name string) (string, error) {
		if name == "unzip" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	got := checkTools(missingUnzip)
	if got.Status != "warning" || got.Summary != "missing unzip" {
		t.Errorf("got %+v", got)
	}

	all := func(name string) (string, error) { return "/usr/bin/" + name, nil }
	if got := checkTools(all); got.Status != "ok" {
		t.Errorf("got status=%q, want ok", got.Status)
	}
}
