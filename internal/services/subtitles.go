package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
)

// ---------------------------------------------------------------------------
// Subtitle cue builder — groups word-level timings into display cues.
// ---------------------------------------------------------------------------

// DefaultCueWords is how many consecutive words form one subtitle cue.
const DefaultCueWords = 6

// BuildCues partitions words into consecutive runs of chunkSize (the last
// run may be shorter). Each run becomes one cue spanning the first word's
// start to the last word's end, text joined by single spaces. An empty input
// yields an empty cue list; the composer then skips the overlay entirely.
//
// When the recognizer produced no structured words but did return a
// transcript, a single degenerate cue {0, 0, transcript} is emitted so the
// text is not silently lost; the composer treats it as non-renderable.
func BuildCues(words []models.WordTiming, transcript string, chunkSize int) []models.SubtitleCue {
	if chunkSize < 1 {
		chunkSize = DefaultCueWords
	}

	if len(words) == 0 {
		if t := strings.TrimSpace(transcript); t != "" {
			return []models.SubtitleCue{{StartSeconds: 0, EndSeconds: 0, Text: t}}
		}
		return nil
	}

	cues := make([]models.SubtitleCue, 0, (len(words)+chunkSize-1)/chunkSize)
	for i := 0; i < len(words); i += chunkSize {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		run := words[i:end]

		texts := make([]string, len(run))
		for j, w := range run {
			texts[j] = w.Text
		}

		cues = append(cues, models.SubtitleCue{
			StartSeconds: run[0].StartSeconds,
			EndSeconds:   run[len(run)-1].EndSeconds,
			Text:         strings.Join(texts, " "),
		})
	}

	return cues
}

// WriteSRT saves cues as a SubRip file next to the finished video. This is a
// convenience export; failures are the caller's to log and ignore.
func WriteSRT(cues []models.SubtitleCue, outputPath string) error {
	var sb strings.Builder

	n := 0
	for _, cue := range cues {
		if !cue.Renderable() {
			continue
		}
		n++
		sb.WriteString(fmt.Sprintf("%d\n", n))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", formatSRTTime(cue.StartSeconds), formatSRTTime(cue.EndSeconds)))
		sb.WriteString(cue.Text)
		sb.WriteString("\n\n")
	}

	if n == 0 {
		return fmt.Errorf("no renderable cues to write")
	}

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write SRT file: %w", err)
	}

	return nil
}

// formatSRTTime converts seconds to the SubRip timestamp format HH:MM:SS,mmm.
func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
