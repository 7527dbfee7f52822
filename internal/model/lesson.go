package model

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// AvailableLesson is an entry of the static lesson catalog.
type AvailableLesson struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	EstimatedDuration int        `json:"estimatedDuration,omitempty"`
	Difficulty        Difficulty `json:"difficulty,omitempty"`
}

// LessonRequirement is a catalog lesson annotated with the badge holder's
// completion state.
type LessonRequirement struct {
	AvailableLesson
	IsCompleted bool `json:"isCompleted"`
	Unlocked    bool `json:"unlocked"`
}
