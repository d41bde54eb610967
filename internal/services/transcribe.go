package services

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/clipsmith/clipsmith/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// ---------------------------------------------------------------------------
// Transcript aligner — word-level timing for a finished narration track.
//
// Whisper does the actual alignment. The whole call runs under a deadline
// derived from the audio's own length, and recognizer failures are absorbed:
// the pipeline renders without subtitles rather than failing the job.
// ---------------------------------------------------------------------------

// alignBuffer is added to the audio duration to form the recognition deadline.
const alignBuffer = 15 * time.Second

type TranscriptAligner struct {
	client *openai.Client
	ffmpeg *FFmpegService
}

func NewTranscriptAligner(apiKey string, ffmpeg *FFmpegService) *TranscriptAligner {
	return &TranscriptAligner{
		client: openai.NewClient(apiKey),
		ffmpeg: ffmpeg,
	}
}

// Align transcribes the audio file and returns word timings ordered by start
// time, plus the plain transcript for the degenerate-cue fallback. Errors
// never propagate: an empty result means "no subtitles available".
func (a *TranscriptAligner) Align(ctx context.Context, audioPath, language string) ([]models.WordTiming, string) {
	if language == "" {
		language = "en"
	}

	// Deadline scales with the audio itself: recognition of a healthy file
	// finishes well within its own play length plus a fixed buffer.
	timeout := 60 * time.Second
	if duration, err := a.ffmpeg.ProbeDuration(ctx, audioPath); err == nil {
		timeout = time.Duration(duration*float64(time.Second)) + alignBuffer
	}

	alignCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	f, err := os.Open(audioPath)
	if err != nil {
		log.Printf("[Whisper] Cannot open audio for alignment: %v", err)
		return nil, ""
	}
	defer f.Close()

	resp, err := a.client.CreateTranscription(alignCtx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   f,
		FilePath: "narration.mp3", // filename hint required by the library
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: language,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		log.Printf("[Whisper] Transcription failed, rendering without subtitles: %v", err)
		return nil, ""
	}

	words := make([]models.WordTiming, 0, len(resp.Words))
	for _, w := range resp.Words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		words = append(words, models.WordTiming{
			Text:         text,
			StartSeconds: w.Start,
			EndSeconds:   w.End,
		})
	}

	if len(words) == 0 {
		log.Printf("[Whisper] No word timestamps returned (text: %q)", truncateString(resp.Text, 80))
		return nil, resp.Text
	}

	log.Printf("[Whisper] Aligned %d words (%.1fs of audio)", len(words), resp.Duration)
	return words, resp.Text
}

// truncateString limits a string to maxLen characters for log output.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
