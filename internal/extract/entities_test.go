package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntities(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     []string
	}{
		{
			name:     "two entities",
			sentence: "Ridley Scott directed Alien in 1979.",
			want:     []string{"Ridley Scott", "Alien"},
		},
		{
			name:     "sentence opener is not an entity",
			sentence: "The film features Sigourney Weaver.",
			want:     []string{"Sigourney Weaver"},
		},
		{
			name:     "run never starts on a stopword",
			sentence: "She joined The Walt Disney Company last year.",
			want:     []string{"Walt Disney Company"},
		},
		{
			name:     "punctuation closes a run",
			sentence: "They visited Paris. Later Rome followed.",
			want:     []string{"Paris", "Later Rome"},
		},
		{
			name:     "duplicates collapse",
			sentence: "Alien resembles Alien in every way.",
			want:     []string{"Alien"},
		},
		{
			name:     "no entities",
			sentence: "it was raining all day.",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Entities(tt.sentence))
		})
	}
}
