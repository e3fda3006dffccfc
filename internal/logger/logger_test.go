package logger

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetupLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	dir := t.TempDir()
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{in: "info", want: logrus.InfoLevel},
		{in: "warn", want: logrus.WarnLevel},
		{in: "chatty", want: logrus.DebugLevel},
	}
	for _, tt := range tests {
		if w := Setup(filepath.Join(dir, "app.log"), tt.in); w == nil {
			t.Fatalf("Setup(%q) returned nil writer", tt.in)
		}
		if got := logrus.GetLevel(); got != tt.want {
			t.Errorf("Setup(%q) level = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGormLogger(t *testing.T) {
	if GormLogger() == nil {
		t.Fatal("GormLogger() = nil")
	}
}
