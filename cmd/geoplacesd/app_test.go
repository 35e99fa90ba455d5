package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/geoplaces/core/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Storage.DSN = "file:" + filepath.Join(t.TempDir(), "test.db")
	return cfg
}

func TestNewAppWiresEveryFlow(t *testing.T) {
	application, err := newApp(testConfig(t))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer application.Close()

	if application.places == nil || application.events == nil || application.rates == nil || application.accts == nil {
		t.Fatal("newApp left a flow unwired")
	}
}

func TestReindexAllOnEmptyStore(t *testing.T) {
	application, err := newApp(testConfig(t))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer application.Close()

	n, err := application.reindexAll(context.Background())
	if err != nil {
		t.Fatalf("reindexAll: %v", err)
	}
	if n != 0 {
		t.Fatalf("reindexAll() = %d; want 0 on a fresh store", n)
	}
}

func TestSweepOnceWithoutReminderDoesNotPanic(t *testing.T) {
	application, err := newApp(testConfig(t))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer application.Close()

	application.sweepOnce(context.Background(), nil)
}
