package prompting

import (
	"strings"
)

// Mood is a tone preset applied to model-generated prompts.
type Mood struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Mood keys.
const (
	MoodDeepReflection          = "deep_reflection"
	MoodFunNostalgia            = "fun_nostalgia"
	MoodCreativeStorytelling    = "creative_storytelling"
	MoodActionGrowth            = "action_growth"
	MoodConnectionRelationships = "connection_relationships"
)

var moods = map[string]Mood{
	MoodDeepReflection: {
		Key:         MoodDeepReflection,
		Label:       "Deep Reflection",
		Description: "thoughtful and introspective, exploring meaning, growth and the moments that shaped you",
	},
	MoodFunNostalgia: {
		Key:         MoodFunNostalgia,
		Label:       "Fun Nostalgia",
		Description: "lighthearted and warm, revisiting playful memories, childhood joys and funny moments",
	},
	MoodCreativeStorytelling: {
		Key:         MoodCreativeStorytelling,
		Label:       "Creative Storytelling",
		Description: "imaginative, inviting vivid scenes, unexpected angles and playful narrative form",
	},
	MoodActionGrowth: {
		Key:         MoodActionGrowth,
		Label:       "Action & Growth",
		Description: "energizing, focused on challenges faced, risks taken and lessons that pushed you forward",
	},
	MoodConnectionRelationships: {
		Key:         MoodConnectionRelationships,
		Label:       "Connection & Relationships",
		Description: "tender, centered on the people who shaped your life and the bonds that matter most",
	},
}

// Moods returns every mood preset ordered by key.
func Moods() []Mood {
	return []Mood{
		moods[MoodActionGrowth],
		moods[MoodConnectionRelationships],
		moods[MoodCreativeStorytelling],
		moods[MoodDeepReflection],
		moods[MoodFunNostalgia],
	}
}

// NormalizeMoodKey lower-cases raw and collapses any run of separators
// (spaces, hyphens, underscores or other punctuation) into a single underscore.
func NormalizeMoodKey(raw string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// ResolveMood maps free text to a mood preset. Unknown or empty values
// resolve to deep reflection.
func ResolveMood(raw string) Mood {
	if m, ok := moods[NormalizeMoodKey(raw)]; ok {
		return m
	}
	return moods[MoodDeepReflection]
}
