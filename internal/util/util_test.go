package util

import (
	"math/rand/v2"
	"regexp"
	"testing"
)

var tagPattern = regexp.MustCompile(`^M[A-Z]{2}$`)

func TestRandomName(t *testing.T) {
	for i := 0; i < 200; i++ {
		name := RandomName(nil)
		if !tagPattern.MatchString(name) {
			t.Fatalf("RandomName() = %q, want M + two uppercase letters", name)
		}
	}
}

func TestRandomName_Seeded(t *testing.T) {
	a := RandomName(rand.New(rand.NewPCG(1, 2)))
	b := RandomName(rand.New(rand.NewPCG(1, 2)))
	if a != b {
		t.Errorf("same seed gave %q and %q", a, b)
	}
}

func TestPlayerName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"explicit", "MAB", "MAB"},
		{"trimmed", "  KXY ", "KXY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlayerName(tt.input, nil); got != tt.want {
				t.Errorf("PlayerName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	if got := PlayerName("   ", nil); !tagPattern.MatchString(got) {
		t.Errorf("PlayerName(blank) = %q, want random tag", got)
	}
}
