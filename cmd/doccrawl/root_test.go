package main

import (
	"testing"

	"github.com/nao1215/doccrawl/internal/config"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "doccrawl [flags] <url>" {
			t.Errorf("expected use 'doccrawl [flags] <url>', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("accepts at most one url", func(t *testing.T) {
		t.Parallel()
		if cmd.Args == nil {
			t.Fatal("expected Args validator")
		}
		if err := cmd.Args(cmd, []string{"https://a.example.com/", "https://b.example.com/"}); err == nil {
			t.Error("expected error for two urls")
		}
		if err := cmd.Args(cmd, []string{"https://a.example.com/"}); err != nil {
			t.Errorf("unexpected error for one url: %v", err)
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has crawl flags with defaults", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			want string
		}{
			{"noresume", "false"},
			{"workers", "5"},
			{"output", config.DefaultOutputDir},
			{"max-depth", "0"},
			{"exclude", ""},
			{"timeout", "30"},
			{"scope", "prefix"},
			{"engine", "http"},
			{"headful", "false"},
			{"user-profile-dir", ""},
			{"browser-type", "chromium"},
			{"browser-dir", ""},
			{"retries", "3"},
			{"checkpoint-every", "10"},
			{"delay", "0s"},
			{"rate", "0"},
			{"respect-robots", "false"},
			{"proxy", ""},
			{"config", ""},
			{"no-db", "false"},
			{"db-dir", ""},
			{"retry-failed", "false"},
			{"no-progress", "false"},
			{"json", "false"},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.DefValue != tt.want {
				t.Errorf("expected %s default %q, got %q", tt.name, tt.want, flag.DefValue)
			}
		}
	})

	t.Run("accepts underscore spellings", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"max_depth", "user_agent"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s to resolve to a flag", name)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{"init": false, "status <url>": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Use]; ok {
				want[sub.Use] = true
			}
		}
		for use, found := range want {
			if !found {
				t.Errorf("expected %q subcommand", use)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}
