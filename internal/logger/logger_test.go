package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		wantNil bool
	}{
		{in: "debug"},
		{in: "info"},
		{in: "warn"},
		{in: "error"},
		{in: "verbose", wantNil: true},
		{in: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseLevel(tt.in)
			if (got == nil) != tt.wantNil {
				t.Errorf("parseLevel(%q) = %v, wantNil %v", tt.in, got, tt.wantNil)
			}
			if got != nil && got.String() != tt.in {
				t.Errorf("parseLevel(%q) = %v", tt.in, got)
			}
		})
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := New("info", false, path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	log.Named("collector").Info("collection cycle finished", Int64("count", 7))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"logger":"collector"`, `"level":"info"`, `"msg":"collection cycle finished"`, `"count":7`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
}

func TestNamedKeepsComponent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := Wrap(zap.New(core)).Named("scheduler")

	log.Warnf("job %s late", "collect")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "scheduler" {
		t.Errorf("LoggerName = %q, want scheduler", entries[0].LoggerName)
	}
	if entries[0].Message != "job collect late" {
		t.Errorf("Message = %q", entries[0].Message)
	}
}
