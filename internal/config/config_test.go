package config

import (
	"os"
	"testing"
)

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JournalDir != "./journal" {
		t.Errorf("journal dir = %q", cfg.JournalDir)
	}
	if len(cfg.FillRules) == 0 {
		t.Error("expected default fill rules to be populated")
	}
	if len(cfg.Listeners) == 0 {
		t.Error("expected default listeners to be populated")
	}
	fixListener, ok := cfg.Listeners["fix"]
	if !ok || !fixListener.Enabled {
		t.Errorf("fix listener = %+v, ok=%v", fixListener, ok)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	path := writeTempConfig(t, `
journal_dir: /tmp/custom-journal
fill_seed: 99
listeners:
  fix:
    enabled: true
    addr: ":7001"
    sender_comp_id: MYSENDER
    target_comp_id: MYTARGET
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JournalDir != "/tmp/custom-journal" {
		t.Errorf("journal dir = %q", cfg.JournalDir)
	}
	if cfg.FillSeed != 99 {
		t.Errorf("fill seed = %d", cfg.FillSeed)
	}
	if cfg.Listeners["fix"].SenderCompID != "MYSENDER" {
		t.Errorf("listener = %+v", cfg.Listeners["fix"])
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/config.yaml"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
