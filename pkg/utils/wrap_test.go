package utils

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{
			name:  "fits",
			in:    "short note",
			width: 60,
			want:  []string{"short note"},
		},
		{
			name:  "disabled",
			in:    "no wrapping at all here",
			width: 0,
			want:  []string{"no wrapping at all here"},
		},
		{
			name:  "breaks at spaces",
			in:    "the quick brown fox jumps over the lazy dog",
			width: 10,
			want:  []string{"the quick", "brown fox", "jumps over", "the lazy", "dog"},
		},
		{
			name:  "breaks after hyphens",
			in:    "state-of-the-art design",
			width: 10,
			want:  []string{"state-of-", "the-art", "design"},
		},
		{
			name:  "hard splits one long token",
			in:    "abcdefghijklmnopqrstuvwxyz",
			width: 10,
			want:  []string{"abcdefghij", "klmnopqrst", "uvwxyz"},
		},
		{
			name:  "empty",
			in:    "",
			width: 5,
			want:  []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.in, tt.width)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrap_LongTokenBetweenWords(t *testing.T) {
	url := "https://www.reddit.com/r/10xPennyStocks/comments/1pp5ldh"
	got := Wrap("see "+url+" now", 20)

	if got[0] != "see" {
		t.Errorf("first line = %q, want %q", got[0], "see")
	}
	for _, line := range got {
		if utf8.RuneCountInString(line) > 20 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	if joined := strings.Join(got[1:], ""); !strings.HasPrefix(joined, url) {
		t.Errorf("url not preserved in order: %q", joined)
	}
}

// Property: Wrap never produces a line wider than the requested width.
func TestProperty_WrapRespectsWidth(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every line fits the width", prop.ForAll(
		func(s string, width int) bool {
			for _, line := range Wrap(s, width) {
				if utf8.RuneCountInString(line) > width {
					t.Logf("line %q wider than %d", line, width)
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t)
}

// Property: when every word fits the width, words are never split.
func TestProperty_WrapKeepsWordsWhole(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("words survive wrapping intact and in order", prop.ForAll(
		func(lengths []int, width int) bool {
			words := make([]string, 0, len(lengths))
			for i, n := range lengths {
				if n > width {
					n = width
				}
				words = append(words, strings.Repeat(string(rune('a'+i%26)), n))
			}
			in := strings.Join(words, " ")

			got := strings.Fields(strings.Join(Wrap(in, width), " "))
			if len(words) == 0 {
				return len(got) == 0
			}
			return reflect.DeepEqual(got, words)
		},
		gen.SliceOf(gen.IntRange(1, 15)),
		gen.IntRange(5, 30),
	))

	properties.TestingRun(t)
}
