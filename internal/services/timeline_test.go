package services

import (
	"math"
	"testing"

	"github.com/clipsmith/clipsmith/internal/models"
)

func TestResolveResolution(t *testing.T) {
	tests := []struct {
		aspect models.AspectRatio
		tier   models.QualityTier
		want   Resolution
	}{
		{models.AspectLandscape, models.QualityBasic, Resolution{1280, 720}},
		{models.AspectLandscape, models.QualityHD, Resolution{1920, 1080}},
		{models.AspectLandscape, models.QualityPremium, Resolution{1920, 1080}},
		{models.AspectPortrait, models.QualityBasic, Resolution{720, 1280}},
		{models.AspectPortrait, models.QualityHD, Resolution{1080, 1920}},
		{models.AspectPortrait, models.QualityPremium, Resolution{1080, 1920}},
	}

	for _, tt := range tests {
		got := ResolveResolution(tt.aspect, tt.tier)
		if got != tt.want {
			t.Errorf("ResolveResolution(%s, %s) = %dx%d, want %dx%d",
				tt.aspect, tt.tier, got.Width, got.Height, tt.want.Width, tt.want.Height)
		}
	}
}

func TestResolveEncodeSettings(t *testing.T) {
	tests := []struct {
		tier  models.QualityTier
		video string
		audio string
	}{
		{models.QualityBasic, "1000k", "128k"},
		{models.QualityHD, "2500k", "192k"},
		{models.QualityPremium, "5000k", "256k"},
		{models.QualityTier("bogus"), "1000k", "128k"},
	}

	for _, tt := range tests {
		got := ResolveEncodeSettings(tt.tier)
		if got.VideoBitrate != tt.video || got.AudioBitrate != tt.audio {
			t.Errorf("ResolveEncodeSettings(%s) = %s/%s, want %s/%s",
				tt.tier, got.VideoBitrate, got.AudioBitrate, tt.video, tt.audio)
		}
		if got.FPS != 24 {
			t.Errorf("ResolveEncodeSettings(%s).FPS = %d, want 24", tt.tier, got.FPS)
		}
	}
}

func TestClampSegmentSeconds(t *testing.T) {
	tests := []struct {
		name      string
		requested float64
		narration float64
		clips     int
		want      float64
	}{
		{"requested fits", 5, 42, 3, 5},
		{"clamped to even split", 10, 12, 3, 4},
		{"floor of two seconds", 10, 3, 3, 2},
		{"zero clips treated as one", 5, 30, 0, 5},
	}

	for _, tt := range tests {
		got := ClampSegmentSeconds(tt.requested, tt.narration, tt.clips)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: ClampSegmentSeconds(%.1f, %.1f, %d) = %.2f, want %.2f",
				tt.name, tt.requested, tt.narration, tt.clips, got, tt.want)
		}
	}
}

func TestPlanSegmentsCoversNarration(t *testing.T) {
	durations := []float64{12, 8, 20}
	narration := 42.0

	segments := PlanSegments(durations, narration, 5)

	// 42s at 5s per segment needs int(42/5)+1 = 9 segments
	if len(segments) != 9 {
		t.Fatalf("expected 9 segments, got %d", len(segments))
	}

	total := 0.0
	for _, seg := range segments {
		total += seg.Duration()
	}
	if total < narration {
		t.Errorf("planned total %.1fs does not cover %.1fs narration", total, narration)
	}
	if total >= narration+5 {
		t.Errorf("planned total %.1fs overshoots by a full segment", total)
	}
}

func TestPlanSegmentsRoundRobin(t *testing.T) {
	segments := PlanSegments([]float64{10, 10, 10}, 30, 5)

	for i, seg := range segments {
		if seg.ClipIndex != i%3 {
			t.Errorf("segment %d uses clip %d, want %d", i, seg.ClipIndex, i%3)
		}
	}
}

func TestPlanSegmentsContiguous(t *testing.T) {
	segments := PlanSegments([]float64{10, 10}, 25, 5)

	offset := 0.0
	for i, seg := range segments {
		if math.Abs(seg.TargetStart-offset) > 1e-9 {
			t.Errorf("segment %d starts at %.2f, want %.2f", i, seg.TargetStart, offset)
		}
		offset = seg.TargetEnd
	}
}

func TestPlanSegmentsLoopsShortClips(t *testing.T) {
	// A 2s clip filling a 5s segment must loop ceil(5/2)+1 = 4 times
	segments := PlanSegments([]float64{2}, 10, 5)

	if len(segments) == 0 {
		t.Fatal("no segments planned")
	}
	for _, seg := range segments {
		if seg.Loops != 4 {
			t.Errorf("segment loops = %d, want 4", seg.Loops)
		}
	}
}

func TestPlanSegmentsNoLoopForLongClips(t *testing.T) {
	segments := PlanSegments([]float64{30}, 10, 5)

	for _, seg := range segments {
		if seg.Loops != 1 {
			t.Errorf("segment loops = %d, want 1 for clip longer than segment", seg.Loops)
		}
	}
}

func TestPlanSegmentsEmptyInput(t *testing.T) {
	if got := PlanSegments(nil, 30, 5); got != nil {
		t.Errorf("expected nil for no clips, got %d segments", len(got))
	}
	if got := PlanSegments([]float64{10}, 0, 5); got != nil {
		t.Errorf("expected nil for zero narration, got %d segments", len(got))
	}
}

func TestMusicLoopCount(t *testing.T) {
	tests := []struct {
		music     float64
		narration float64
		want      int
	}{
		{10, 42, 5},  // 5 plays * 10s = 50s >= 42s
		{60, 42, 1},  // long enough as-is
		{42, 42, 1},  // exact fit
		{0, 42, 0},   // unreadable music duration
	}

	for _, tt := range tests {
		got := MusicLoopCount(tt.music, tt.narration)
		if got != tt.want {
			t.Errorf("MusicLoopCount(%.0f, %.0f) = %d, want %d", tt.music, tt.narration, got, tt.want)
		}
		if tt.want > 0 && float64(got)*tt.music < tt.narration {
			t.Errorf("MusicLoopCount(%.0f, %.0f): %d plays do not cover narration", tt.music, tt.narration, got)
		}
	}
}

func TestSubtitleYExpr(t *testing.T) {
	if got := SubtitleYExpr(models.SubtitleBottom, 720); got != 570 {
		t.Errorf("bottom on 720p = %d, want 570", got)
	}
	if got := SubtitleYExpr(models.SubtitleTop, 720); got != 100 {
		t.Errorf("top = %d, want 100", got)
	}
	if got := SubtitleYExpr(models.SubtitleCenter, 720); got != 360 {
		t.Errorf("center on 720p = %d, want 360", got)
	}
}
