package logging

import "testing"

func TestNew(t *testing.T) {
	for _, tt := range []struct{ level, format string }{
		{"info", "console"},
		{"debug", ""},
		{"WARN", "json"},
		{"error", "console"},
	} {
		log, err := New(tt.level, tt.format)
		if err != nil || log == nil {
			t.Errorf("New(%q, %q) = %v, %v", tt.level, tt.format, log, err)
		}
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", "console"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
