package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Azure Speech Text-to-Speech
// POSTs SSML to the regional endpoint; the response body is the audio file.
// ---------------------------------------------------------------------------

const (
	azureTTSEndpoint     = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	azureOutputFormat    = "audio-24khz-96kbitrate-mono-mp3"
	azureRequestTimeout  = 120 * time.Second
	azureDefaultVoice    = "en-US-JennyNeural"
)

// legacyVoices resolves the male/female/neutral aliases per language,
// kept for callers that predate full Neural voice IDs.
var legacyVoices = map[string]map[string]string{
	"en": {"male": "en-US-GuyNeural", "female": "en-US-JennyNeural", "neutral": "en-US-AriaNeural"},
	"zh": {"male": "zh-CN-YunxiNeural", "female": "zh-CN-XiaoxiaoNeural", "neutral": "zh-CN-YunyangNeural"},
	"ar": {"male": "ar-SA-HamedNeural", "female": "ar-SA-ZariyahNeural", "neutral": "ar-SA-HamedNeural"},
}

type AzureTTSService struct {
	apiKey  string
	region  string
	tempDir string
	client  *http.Client
}

var _ TTSService = (*AzureTTSService)(nil)

func NewAzureTTSService(apiKey, region, tempDir string) *AzureTTSService {
	return &AzureTTSService{
		apiKey:  apiKey,
		region:  region,
		tempDir: tempDir,
		client:  &http.Client{Timeout: azureRequestTimeout},
	}
}

// Synthesize converts text to an mp3 file in the temp directory and returns
// its path. The file is owned by the pipeline run that requested it.
func (s *AzureTTSService) Synthesize(ctx context.Context, text, voice, language string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyNarration
	}

	voiceName := ResolveVoice(voice, language)
	outputPath := fmt.Sprintf("%s/voiceover_%s.mp3", s.tempDir, randomToken())

	ssml := fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		voiceLocale(voiceName), voiceName, escapeXML(text),
	)

	url := fmt.Sprintf(azureTTSEndpoint, s.region)
	req, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(ssml))
	if err != nil {
		return "", fmt.Errorf("failed to create TTS request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	req.Header.Set("User-Agent", "clipsmith")

	log.Printf("[AzureTTS] Synthesizing (voice=%s, textLen=%d)", voiceName, len(text))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrSynthesisFailed, resp.StatusCode, string(body))
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil || closeErr != nil || written == 0 {
		// Partial or empty files must not leak into the pipeline.
		os.Remove(outputPath)
		if err == nil {
			err = closeErr
		}
		return "", fmt.Errorf("%w: incomplete audio (%d bytes): %v", ErrSynthesisFailed, written, err)
	}

	log.Printf("[AzureTTS] Audio written (%d bytes)", written)
	return outputPath, nil
}

// ResolveVoice turns a legacy alias (male/female/neutral) into a Neural
// voice ID for the given language; full voice IDs pass through unchanged.
func ResolveVoice(voice, language string) string {
	if strings.Contains(voice, "Neural") || strings.Contains(voice, "-") {
		return voice
	}

	perLang, ok := legacyVoices[language]
	if !ok {
		perLang = legacyVoices["en"]
	}
	if resolved, ok := perLang[voice]; ok {
		return resolved
	}
	return azureDefaultVoice
}

// voiceLocale extracts the locale prefix ("en-US") from a Neural voice ID.
func voiceLocale(voiceName string) string {
	parts := strings.SplitN(voiceName, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "en-US"
}

func escapeXML(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
		`"`, "&quot;",
	)
	return r.Replace(text)
}
