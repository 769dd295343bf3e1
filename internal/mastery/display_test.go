package mastery

import "testing"

func TestDisplay(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelA2, "A2 (Elementary)"},
		{LevelB1, "B1 (Intermediate)"},
		{LevelB2, "B2 (Upper-Intermediate)"},
		{LevelC1, "C1 (Advanced)"},
		{Level("Z9"), "Z9 (Unknown)"},
	}
	for _, tt := range tests {
		if got := tt.level.Display(); got != tt.want {
			t.Errorf("%s.Display() = %q, want %q", tt.level, got, tt.want)
		}
	}
}
