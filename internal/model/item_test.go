package model

import "testing"

func TestNormalizeResolution(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1080p", "1080p"},
		{"1080", "1080p"},
		{"720P", "720p"},
		{"1080p60", "1080p"},
		{" 480p ", "480p"},
		{"", ""},
		{"hd", "hd"},
	}

	for _, test := range tests {
		result := NormalizeResolution(test.input)
		if result != test.expected {
			t.Errorf("NormalizeResolution(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestMode(t *testing.T) {
	if got := AudioOnlyMode().String(); got != "audio-only" {
		t.Errorf("Expected 'audio-only', got %s", got)
	}
	if got := VideoMode("720").String(); got != "video(720p)" {
		t.Errorf("Expected 'video(720p)', got %s", got)
	}
	if err := VideoMode("").Validate(); err == nil {
		t.Error("Expected error for empty resolution")
	}
	if err := VideoMode("hd").Validate(); err == nil {
		t.Error("Expected error for non-numeric resolution")
	}
	if err := AudioOnlyMode().Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestSourceItem_HasCaptionLanguage(t *testing.T) {
	item := &SourceItem{CaptionLanguages: []string{"en", "pt-BR"}}

	if !item.HasCaptionLanguage("en") {
		t.Error("Expected en to be available")
	}
	if item.HasCaptionLanguage("pt") {
		t.Error("Expected pt to be unavailable (exact match only)")
	}
}

func TestResolutionFromHeight(t *testing.T) {
	if got := ResolutionFromHeight(1080); got != "1080p" {
		t.Errorf("Expected 1080p, got %s", got)
	}
	if got := ResolutionFromHeight(0); got != "" {
		t.Errorf("Expected empty, got %s", got)
	}
}
