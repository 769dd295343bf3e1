package mastery

// DisplayName returns the CEFR band name shown next to the level code.
func (l Level) DisplayName() string {
	switch l {
	case LevelA2:
		return "Elementary"
	case LevelB1:
		return "Intermediate"
	case LevelB2:
		return "Upper-Intermediate"
	case LevelC1:
		return "Advanced"
	default:
		return "Unknown"
	}
}

// Display renders l as "B2 (Upper-Intermediate)".
func (l Level) Display() string {
	return string(l) + " (" + l.DisplayName() + ")"
}
