package config

import "testing"

func TestLoadBatchDefaults(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "")
	t.Setenv("MAX_BATCH_FILES", "")
	t.Setenv("MAX_FILE_MB", "")
	t.Setenv("SEMANTIC_RATE_PER_SECOND", "")

	cfg := Load()
	if cfg.BatchWorkers != 4 {
		t.Fatalf("expected default batch workers 4, got %d", cfg.BatchWorkers)
	}
	if cfg.MaxBatchFiles != 8 {
		t.Fatalf("expected default max batch files 8, got %d", cfg.MaxBatchFiles)
	}
	if cfg.MaxFileMB != 75 {
		t.Fatalf("expected default max file size 75, got %d", cfg.MaxFileMB)
	}
	if cfg.SemanticRatePerSec != 2 {
		t.Fatalf("expected default semantic rate 2, got %v", cfg.SemanticRatePerSec)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "12")
	t.Setenv("SEMANTIC_ENABLED", "false")
	t.Setenv("SEMANTIC_RATE_PER_SECOND", "0.5")
	t.Setenv("NATS_SUBJECT", "invoices.test")

	cfg := Load()
	if cfg.BatchWorkers != 12 {
		t.Fatalf("expected batch workers 12, got %d", cfg.BatchWorkers)
	}
	if cfg.SemanticEnabled {
		t.Fatalf("expected semantic disabled")
	}
	if cfg.SemanticRatePerSec != 0.5 {
		t.Fatalf("expected semantic rate 0.5, got %v", cfg.SemanticRatePerSec)
	}
	if cfg.NATSSubject != "invoices.test" {
		t.Fatalf("expected subject override, got %q", cfg.NATSSubject)
	}
}

func TestLoadFallsBackOnBadNumbers(t *testing.T) {
	t.Setenv("BATCH_WORKERS", "not-a-number")

	cfg := Load()
	if cfg.BatchWorkers != 4 {
		t.Fatalf("expected fallback batch workers 4, got %d", cfg.BatchWorkers)
	}
}
