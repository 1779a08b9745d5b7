package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigureProductionUsesJSON(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	configure(l, &buf, "debug", "production")

	l.WithField("component", "test").Debug("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if line["msg"] != "hello" || line["component"] != "test" {
		t.Errorf("unexpected JSON line: %v", line)
	}
}

func TestConfigureInvalidLevelFallsBackToInfo(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	configure(l, &buf, "chatty", "development")

	if l.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info", l.GetLevel())
	}
	if !strings.Contains(buf.String(), "Invalid log level") {
		t.Errorf("expected a warning about the invalid level, got %q", buf.String())
	}
}
