package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/clipsmith/clipsmith/internal/models"
)

// ---------------------------------------------------------------------------
// Script generation — provider-neutral prompt building and response parsing.
// OpenAI-compatible endpoints and Gemini both implement ScriptService; the
// worker uses whichever was configured.
// ---------------------------------------------------------------------------

// ScriptService generates a scene-by-scene script for a topic.
type ScriptService interface {
	GenerateScript(ctx context.Context, topic string, durationSeconds int, language string) (*models.Script, error)
}

// buildSystemPrompt returns the system prompt for script generation in the
// requested language.
func buildSystemPrompt(language string) string {
	prompts := map[string]string{
		"en": "You are a professional video script writer. Create engaging, informative scripts for short-form videos.",
		"zh": "你是一位专业的视频脚本作家。为短视频创作引人入胜、信息丰富的脚本。",
		"ar": "أنت كاتب محترف لنصوص الفيديو. قم بإنشاء نصوص جذابة ومفيدة لمقاطع الفيديو القصيرة.",
	}
	if p, ok := prompts[language]; ok {
		return p
	}
	return prompts["en"]
}

// buildScriptPrompt returns the user prompt: topic, duration, and the
// Scene/Narration output format the parser expects.
func buildScriptPrompt(topic string, durationSeconds int, language string) string {
	wordCount := durationSeconds * 2 // roughly two spoken words per second

	switch language {
	case "zh":
		return fmt.Sprintf(`创建一个%d秒的视频脚本，主题：%s

要求：
- 大约%d字
- 包含5-7个不同的场景
- 每个场景应有描述和旁白
- 内容引人入胜且信息丰富

按以下格式回复：
场景1：[视觉描述]
旁白：[要说的内容]

场景2：[视觉描述]
旁白：[要说的内容]
...`, durationSeconds, topic, wordCount)
	case "ar":
		return fmt.Sprintf(`أنشئ نص فيديو مدته %d ثانية حول: %s

المتطلبات:
- حوالي %d كلمة
- يشمل 5-7 مشاهد متميزة
- يجب أن يكون لكل مشهد وصف وسرد

صيغة الرد:
المشهد 1: [الوصف البصري]
السرد: [ما يجب قوله]

المشهد 2: [الوصف البصري]
السرد: [ما يجب قوله]
...`, durationSeconds, topic, wordCount)
	default:
		return fmt.Sprintf(`Create a %d-second video script about: %s

Requirements:
- Approximately %d words
- Include 5-7 distinct scenes
- Each scene should have a description and narration
- Make it engaging and informative
- Include visual suggestions for each scene

Format your response as:
Scene 1: [Visual description]
Narration: [What to say]

Scene 2: [Visual description]
Narration: [What to say]
...`, durationSeconds, topic, wordCount)
	}
}

// sceneMarkers and narrationMarkers cover the output formats across the
// supported prompt languages.
var (
	sceneMarkers     = []string{"scene", "场景", "المشهد"}
	narrationMarkers = []string{"narration", "旁白", "السرد"}
)

// parseScriptResponse turns the model's Scene/Narration text format into a
// structured script. The full narration is the per-scene narrations joined
// in order.
func parseScriptResponse(content, language string) (*models.Script, error) {
	var scenes []models.Scene
	var current *models.Scene

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case hasAnyMarker(lower, sceneMarkers):
			if current != nil {
				scenes = append(scenes, *current)
			}
			current = &models.Scene{Index: len(scenes)}
			if idx := strings.Index(line, ":"); idx >= 0 {
				current.VisualDescription = strings.TrimSpace(line[idx+1:])
			} else if idx := strings.Index(line, "："); idx >= 0 {
				current.VisualDescription = strings.TrimSpace(line[idx+len("："):])
			}
		case hasAnyMarker(lower, narrationMarkers):
			if current == nil {
				continue
			}
			if idx := strings.Index(line, ":"); idx >= 0 {
				current.Narration = strings.TrimSpace(line[idx+1:])
			} else if idx := strings.Index(line, "："); idx >= 0 {
				current.Narration = strings.TrimSpace(line[idx+len("："):])
			}
		}
	}

	if current != nil {
		scenes = append(scenes, *current)
	}

	var narrations []string
	for _, scene := range scenes {
		if scene.Narration != "" {
			narrations = append(narrations, scene.Narration)
		}
	}

	if len(scenes) == 0 || len(narrations) == 0 {
		return nil, fmt.Errorf("%w: no scenes parsed from script response", ErrMalformedResponse)
	}

	return &models.Script{
		Narration: strings.Join(narrations, " "),
		Scenes:    scenes,
		Language:  language,
	}, nil
}

func hasAnyMarker(line string, markers []string) bool {
	for _, m := range markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// CustomScript wraps a user-authored script verbatim: the scene list
// degenerates to a single entry whose search query is the topic.
func CustomScript(topic, script, language string) *models.Script {
	description := topic
	if description == "" {
		description = "Custom video"
	}
	return &models.Script{
		Narration: script,
		Scenes: []models.Scene{
			{Index: 0, VisualDescription: description, Narration: script},
		},
		Language: language,
	}
}
