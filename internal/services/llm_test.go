package services

import (
	"errors"
	"strings"
	"testing"
)

func TestParseScriptResponse(t *testing.T) {
	content := `Scene 1: A bustling city street at dawn
Narration: Every morning, millions of people begin their commute.

Scene 2: Close-up of a coffee cup
Narration: For most, the day starts with a ritual.

Scene 3: Empty office slowly filling up
Narration: By nine, the city is fully awake.`

	script, err := parseScriptResponse(content, "en")
	if err != nil {
		t.Fatalf("parseScriptResponse failed: %v", err)
	}

	if len(script.Scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(script.Scenes))
	}

	if script.Scenes[0].VisualDescription != "A bustling city street at dawn" {
		t.Errorf("scene 0 description = %q", script.Scenes[0].VisualDescription)
	}
	if script.Scenes[1].Narration != "For most, the day starts with a ritual." {
		t.Errorf("scene 1 narration = %q", script.Scenes[1].Narration)
	}
	for i, scene := range script.Scenes {
		if scene.Index != i {
			t.Errorf("scene %d has index %d", i, scene.Index)
		}
	}

	wantNarration := "Every morning, millions of people begin their commute. For most, the day starts with a ritual. By nine, the city is fully awake."
	if script.Narration != wantNarration {
		t.Errorf("joined narration = %q", script.Narration)
	}
	if script.Language != "en" {
		t.Errorf("language = %q, want en", script.Language)
	}
}

func TestParseScriptResponseChinese(t *testing.T) {
	content := "场景1：繁忙的城市街道\n旁白：每天早晨，数百万人开始通勤。\n\n场景2：一杯咖啡的特写\n旁白：对大多数人来说，一天从仪式开始。"

	script, err := parseScriptResponse(content, "zh")
	if err != nil {
		t.Fatalf("parseScriptResponse failed: %v", err)
	}

	if len(script.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(script.Scenes))
	}
	if script.Scenes[0].VisualDescription != "繁忙的城市街道" {
		t.Errorf("scene 0 description = %q", script.Scenes[0].VisualDescription)
	}
	if !strings.Contains(script.Narration, "数百万人") {
		t.Errorf("narration missing scene text: %q", script.Narration)
	}
}

func TestParseScriptResponseGarbage(t *testing.T) {
	_, err := parseScriptResponse("I cannot help with that request.", "en")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse for unparseable content, got %v", err)
	}
}

func TestParseScriptResponseSceneWithoutNarration(t *testing.T) {
	content := `Scene 1: A mountain range
Scene 2: A river valley
Narration: Water carved these valleys over millennia.`

	script, err := parseScriptResponse(content, "en")
	if err != nil {
		t.Fatalf("parseScriptResponse failed: %v", err)
	}

	if len(script.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(script.Scenes))
	}
	if script.Scenes[0].Narration != "" {
		t.Errorf("scene 0 should have no narration, got %q", script.Scenes[0].Narration)
	}
	if script.Narration != "Water carved these valleys over millennia." {
		t.Errorf("narration = %q", script.Narration)
	}
}

func TestCustomScript(t *testing.T) {
	script := CustomScript("Ocean facts", "The ocean covers most of the planet.", "en")

	if len(script.Scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(script.Scenes))
	}
	if script.Scenes[0].VisualDescription != "Ocean facts" {
		t.Errorf("scene description = %q, want the topic", script.Scenes[0].VisualDescription)
	}
	if script.Narration != "The ocean covers most of the planet." {
		t.Errorf("narration = %q", script.Narration)
	}
}

func TestCustomScriptEmptyTopic(t *testing.T) {
	script := CustomScript("", "Some narration.", "en")

	if script.Scenes[0].VisualDescription == "" {
		t.Error("scene description must not be empty even without a topic")
	}
}

func TestBuildScriptPromptMentionsFormat(t *testing.T) {
	prompt := buildScriptPrompt("space travel", 60, "en")

	if !strings.Contains(prompt, "space travel") {
		t.Error("prompt missing the topic")
	}
	if !strings.Contains(prompt, "60-second") {
		t.Error("prompt missing the duration")
	}
	if !strings.Contains(prompt, "Scene 1:") || !strings.Contains(prompt, "Narration:") {
		t.Error("prompt missing the output format the parser expects")
	}
}

func TestBuildSystemPromptFallsBackToEnglish(t *testing.T) {
	if got := buildSystemPrompt("fr"); got != buildSystemPrompt("en") {
		t.Errorf("unknown language should fall back to the English prompt, got %q", got)
	}
}
