package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// parseLogLine はJSONログ1行をパースして返す。
func parseLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("JSONログのパースに失敗: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestSetup_WritesJSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("gig fetched", slog.String("operation", "list_gigs"), slog.Int("count", 3))

	entry := parseLogLine(t, &buf)
	if entry["msg"] != "gig fetched" {
		t.Errorf("msg = %q, want %q", entry["msg"], "gig fetched")
	}
	if entry["operation"] != "list_gigs" {
		t.Errorf("operation = %q, want %q", entry["operation"], "list_gigs")
	}
	if entry["count"] != float64(3) {
		t.Errorf("count = %v, want 3", entry["count"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %q, want INFO", entry["level"])
	}
}

func TestSetup_DefaultLevelSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("should not appear")

	if buf.Len() != 0 {
		t.Errorf("デフォルトレベルではDEBUGは出力されないべき: got %s", buf.String())
	}
}

func TestSetup_LogLevelFromEnv(t *testing.T) {
	tests := []struct {
		envValue  string
		wantEmpty bool
	}{
		{"debug", false},
		{"error", true},
		{"", true},
		{"bogus", true},
	}

	for _, tt := range tests {
		t.Run("LOG_LEVEL="+tt.envValue, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.envValue)

			var buf bytes.Buffer
			l := Setup(&buf)
			l.Debug("debug line")

			if tt.wantEmpty && buf.Len() != 0 {
				t.Errorf("LOG_LEVEL=%qでDEBUGが出力された: %s", tt.envValue, buf.String())
			}
			if !tt.wantEmpty && buf.Len() == 0 {
				t.Errorf("LOG_LEVEL=%qでDEBUGが出力されなかった", tt.envValue)
			}
		})
	}
}

func TestSetupDefault_InstallsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Warn("token rejected")

	entry := parseLogLine(t, &buf)
	if entry["msg"] != "token rejected" {
		t.Errorf("msg = %q, want %q", entry["msg"], "token rejected")
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %q, want WARN", entry["level"])
	}
}
