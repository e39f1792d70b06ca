package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/splashwatch/internal/config"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"watch", "scan", "history"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("Find(%q) = %v, %v; want the %s command", name, cmd, err, name)
		}
	}
	for _, flag := range []string{"config", "log-level", "poll"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Fatalf("persistent flag --%s missing", flag)
		}
	}
}

func TestHistoryCmd_RejectsNonPositiveLimit(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"history", "--limit", "0"})
	root.SetOut(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "--limit") {
		t.Fatalf("Execute error = %v, want a --limit error", err)
	}
}

func TestScanCmd_PrintsToCommandOutput(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(config.EnvJamfLog, "")
	t.Setenv(config.EnvMunkiLog, "")

	jamfLog := filepath.Join(dir, "jamf.log")
	body := "Mon Oct 19 09:12:01 mac jamf[4211]: Installing Zoom-5.16.pkg...\n"
	if err := os.WriteFile(jamfLog, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	configPath := filepath.Join(dir, "config.toml")
	cfgBody := "jamf_log = \"" + jamfLog + "\"\ndisable_munki = true\njournal_path = \"\"\nlog_level = \"error\"\n"
	if err := os.WriteFile(configPath, []byte(cfgBody), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"scan", "--config", configPath})
	root.SetOut(&out)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Zoom") || !strings.Contains(out.String(), "installing") {
		t.Fatalf("scan output = %q, want Zoom installing", out.String())
	}
}

func TestRootCmd_UnknownSubcommand(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"scna"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("Execute returned nil error for an unknown subcommand")
	}
}
