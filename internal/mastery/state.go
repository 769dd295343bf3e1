package mastery

// Level is a coarse proficiency classification derived from a test score.
type Level string

const (
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
)

// levelThreshold pairs a minimum score ratio with the level it earns.
type levelThreshold struct {
	MinRatio float64
	Level    Level
}

// thresholds are evaluated top-down; the first match wins.
var thresholds = []levelThreshold{
	{0.8, LevelC1},
	{0.6, LevelB2},
	{0.4, LevelB1},
}

// Rank orders levels from A2 (0) to C1 (3). Unknown levels rank -1.
func (l Level) Rank() int {
	switch l {
	case LevelA2:
		return 0
	case LevelB1:
		return 1
	case LevelB2:
		return 2
	case LevelC1:
		return 3
	}
	return -1
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l.Rank() >= 0
}

// ParseLevel converts a stored level string back to a Level.
func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	return l, l.Valid()
}

// LevelFor classifies score out of total. A non-positive total is A2.
func LevelFor(score, total int) Level {
	if total <= 0 {
		return LevelA2
	}
	ratio := float64(score) / float64(total)
	for _, t := range thresholds {
		if ratio >= t.MinRatio {
			return t.Level
		}
	}
	return LevelA2
}
