package prompting

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Rand is the randomness source used for catalog and template picks.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level generator.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// lockedRand serializes access to a *rand.Rand, which is not goroutine-safe.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// NewSeededRand returns a deterministic source for tests and reproducible
// runs. It is safe for concurrent use.
func NewSeededRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func pick[T any](r Rand, items []T) T {
	return items[r.IntN(len(items))]
}

// NewTopicPrompts is the catalog of open-ended memory questions.
var NewTopicPrompts = []string{
	"Write about a time when you felt completely out of your element. What happened and how did you adapt?",
	"Share a memory involving a specific smell or taste that transports you back to a specific moment.",
	"Describe an encounter with a stranger that left a lasting impression on you.",
	"Write about a tradition in your family or community that has special meaning to you.",
	"Share a story about a journey - either literal or metaphorical - that changed your perspective.",
	"Describe a moment when you had to make a difficult choice between two things you wanted.",
}

// GenericPrompts is the last-resort catalog when nothing else produced text.
var GenericPrompts = []string{
	"Write about a memorable conversation you've had recently.",
	"Describe a place that has special meaning to you.",
	"Share a story about an object you treasure.",
	"Write about a skill you've learned or want to learn.",
}

// SuggestedGenres is offered when history carries no theme information.
var SuggestedGenres = []string{"Memoir", "Personal Development", "Travel Writing", "Coming of Age"}

// SuggestedTitles is offered at the title recommendation stage.
var SuggestedTitles = []string{
	"Echoes of Memory: A Personal Journey",
	"Between the Lines of Life",
	"Moments That Defined Me",
	"The Tapestry of Experience",
}

// DefaultGenre is used for unknown or empty genre keys.
const DefaultGenre = "memoir"

var genreFallbacks = map[string]string{
	"memoir":     "Write about a moment from your childhood that shaped who you are today. What happened, and why does it matter?",
	"adventure":  "Describe a time you stepped outside your comfort zone. What did you discover about yourself?",
	"reflection": "Think about a relationship that changed your perspective. What did you learn?",
	"creative":   "Imagine your life as a book. What would the opening line be, and why?",
}

// FallbackPrompt returns the static prompt for genre, defaulting to memoir.
func FallbackPrompt(genre string) string {
	if p, ok := genreFallbacks[strings.ToLower(strings.TrimSpace(genre))]; ok {
		return p
	}
	return genreFallbacks[DefaultGenre]
}

// KnownGenres lists the genres with a dedicated fallback prompt.
func KnownGenres() []string {
	return []string{"adventure", "creative", "memoir", "reflection"}
}
