package services

import (
	"context"
	"errors"
	"testing"
)

func TestResolveVoice(t *testing.T) {
	tests := []struct {
		voice    string
		language string
		want     string
	}{
		{"female", "en", "en-US-JennyNeural"},
		{"male", "en", "en-US-GuyNeural"},
		{"neutral", "zh", "zh-CN-YunyangNeural"},
		{"female", "ar", "ar-SA-ZariyahNeural"},
		{"female", "unknown-lang", "en-US-JennyNeural"}, // language fallback
		{"en-GB-SoniaNeural", "en", "en-GB-SoniaNeural"}, // full IDs pass through
		{"whisper", "en", "en-US-JennyNeural"},           // unknown alias gets the default
	}

	for _, tt := range tests {
		if got := ResolveVoice(tt.voice, tt.language); got != tt.want {
			t.Errorf("ResolveVoice(%q, %q) = %q, want %q", tt.voice, tt.language, got, tt.want)
		}
	}
}

func TestVoiceLocale(t *testing.T) {
	if got := voiceLocale("zh-CN-XiaoxiaoNeural"); got != "zh-CN" {
		t.Errorf("voiceLocale = %q, want zh-CN", got)
	}
	if got := voiceLocale("broken"); got != "en-US" {
		t.Errorf("voiceLocale fallback = %q, want en-US", got)
	}
}

func TestEscapeXML(t *testing.T) {
	if got := escapeXML(`Tom & Jerry say "5 < 6"`); got != "Tom &amp; Jerry say &quot;5 &lt; 6&quot;" {
		t.Errorf("escapeXML = %q", got)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	azure := NewAzureTTSService("key", "eastus", t.TempDir())
	if _, err := azure.Synthesize(context.Background(), "   ", "female", "en"); !errors.Is(err, ErrEmptyNarration) {
		t.Errorf("azure: expected ErrEmptyNarration, got %v", err)
	}

	eleven := NewElevenLabsService("key", "", t.TempDir())
	if _, err := eleven.Synthesize(context.Background(), "", "female", "en"); !errors.Is(err, ErrEmptyNarration) {
		t.Errorf("elevenlabs: expected ErrEmptyNarration, got %v", err)
	}
}

func TestIsLegacyVoiceAlias(t *testing.T) {
	for _, alias := range []string{"male", "female", "neutral"} {
		if !isLegacyVoiceAlias(alias) {
			t.Errorf("%q should be a legacy alias", alias)
		}
	}
	if isLegacyVoiceAlias("pNInz6obpgDQGcFmaJgB") {
		t.Error("ElevenLabs voice ID misdetected as legacy alias")
	}
}
