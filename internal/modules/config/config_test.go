package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfig кладёт yaml в временный configs/ и переводит тест туда,
// потому что NewConfig читает относительный путь.
func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "configs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "configs", "values_local.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
}

const baseYAML = `
telegram:
  token: ""
  channel_id: 0
  chat_id: 0
trading:
  live: false
`

func TestReconcileIntervalFromYAML(t *testing.T) {
	writeConfig(t, baseYAML+"  reconcile_interval: 5s\n")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Trading.ReconcileInterval != 5*time.Second {
		t.Errorf("reconcile interval = %s, want 5s", cfg.Trading.ReconcileInterval)
	}
}

func TestReconcileIntervalDefault(t *testing.T) {
	writeConfig(t, baseYAML)

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Trading.ReconcileInterval != 30*time.Second {
		t.Errorf("reconcile interval = %s, want default 30s", cfg.Trading.ReconcileInterval)
	}
}

func TestReconcileIntervalEnvBeatsYAML(t *testing.T) {
	writeConfig(t, baseYAML+"  reconcile_interval: 5s\n")
	t.Setenv(reconcileIntervalENV, "7s")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Trading.ReconcileInterval != 7*time.Second {
		t.Errorf("reconcile interval = %s, want env 7s", cfg.Trading.ReconcileInterval)
	}
}

func TestReconcileIntervalRejectsGarbage(t *testing.T) {
	writeConfig(t, baseYAML+"  reconcile_interval: soon\n")

	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error for unparseable reconcile_interval")
	}
}

func TestTradingDefaults(t *testing.T) {
	writeConfig(t, baseYAML)

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Trading.BalanceFraction != 0.15 {
		t.Errorf("balance fraction = %v, want 0.15", cfg.Trading.BalanceFraction)
	}
	if cfg.Trading.StopROIPct != 170 {
		t.Errorf("stop roi = %v, want 170", cfg.Trading.StopROIPct)
	}
	if len(cfg.Trading.TPFractions) != 2 {
		t.Errorf("tp fractions = %v, want two legs", cfg.Trading.TPFractions)
	}
}
