package config

import (
	"testing"
	"time"
)

func TestS3ConfigIsConfigured(t *testing.T) {
	t.Run("empty config is not configured", func(t *testing.T) {
		if (S3Config{}).IsConfigured() {
			t.Fatal("expected IsConfigured=false for empty config")
		}
	})

	t.Run("required fields set is configured", func(t *testing.T) {
		cfg := S3Config{
			Endpoint:        "https://storage.example.com",
			Region:          "eu-central-1",
			Bucket:          "plans",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}
		if !cfg.IsConfigured() {
			t.Fatal("expected IsConfigured=true when all required fields are set")
		}
	})
}

func TestS3ConfigMissingRequired(t *testing.T) {
	missing := S3Config{Endpoint: "https://storage.example.com", Bucket: "plans"}.MissingRequired()

	want := []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"}
	if len(missing) != len(want) {
		t.Fatalf("expected %d missing fields, got %d (%v)", len(want), len(missing), missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("expected missing[%d]=%s, got %s", i, want[i], missing[i])
		}
	}
}

func TestS3ConfigDiagnostics(t *testing.T) {
	level, code, _ := (S3Config{}).Diagnostics()
	if level != "INFO" || code != "s3_not_configured" {
		t.Fatalf("expected INFO/s3_not_configured, got %s/%s", level, code)
	}

	level, code, _ = (S3Config{Endpoint: "https://storage.example.com"}).Diagnostics()
	if level != "WARN" || code != "s3_partial_config" {
		t.Fatalf("expected WARN/s3_partial_config, got %s/%s", level, code)
	}
}

func TestGateInterval(t *testing.T) {
	g := GateConfig{MaxCallsPerMinute: 3, Safety: 2 * time.Second}
	if got := g.Interval(); got != 22*time.Second {
		t.Fatalf("expected 22s, got %s", got)
	}
	if got := (GateConfig{}).Interval(); got != 0 {
		t.Fatalf("expected disabled gate to have zero interval, got %s", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AI_MODE", "")
	t.Setenv("ACQ_MAX_ATTEMPTS", "")
	t.Setenv("ACQ_CALORIE_TOLERANCE_KCAL", "")
	t.Setenv("CATALOG_SLOT_CAP", "")

	cfg := Load()
	if cfg.AIMode != AIModeMock {
		t.Errorf("expected ai mode mock, got %s", cfg.AIMode)
	}
	if cfg.Acquisition.MaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.Acquisition.MaxAttempts)
	}
	if cfg.Acquisition.CalorieToleranceKcal != 150 {
		t.Errorf("expected tolerance 150, got %v", cfg.Acquisition.CalorieToleranceKcal)
	}
	if cfg.CatalogSlotCap != 25 {
		t.Errorf("expected slot cap 25, got %d", cfg.CatalogSlotCap)
	}
	if cfg.AISystemInstruction != DefaultSystemInstruction {
		t.Errorf("unexpected system instruction %q", cfg.AISystemInstruction)
	}
}

func TestLoadNormalizesAcquisition(t *testing.T) {
	t.Setenv("AI_MODE", "bogus")
	t.Setenv("ACQ_MAX_ATTEMPTS", "2")
	t.Setenv("ACQ_MAX_TRANSIENT_ATTEMPTS", "9")
	t.Setenv("ACQ_MIN_DAYS_WITHIN", "12")
	t.Setenv("ACQ_BASE_BACKOFF_MS", "500")
	t.Setenv("ACQ_MAX_BACKOFF_MS", "100")

	cfg := Load()
	if cfg.AIMode != AIModeMock {
		t.Errorf("expected unknown mode to fall back to mock, got %s", cfg.AIMode)
	}
	acq := cfg.Acquisition
	if acq.MaxTransientAttempts != 2 {
		t.Errorf("expected transient ceiling clamped to 2, got %d", acq.MaxTransientAttempts)
	}
	if acq.MinDaysWithin != 4 {
		t.Errorf("expected min days fallback 4, got %d", acq.MinDaysWithin)
	}
	if acq.MaxBackoff != 500*time.Millisecond {
		t.Errorf("expected max backoff raised to base, got %s", acq.MaxBackoff)
	}
}
