package transcript

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		exp   string
	}{
		{
			name:  "empty",
			input: "",
			exp:   "",
		},
		{
			name:  "already clean",
			input: "Grace is not something you earn.",
			exp:   "Grace is not something you earn.",
		},
		{
			name:  "repeated phrase",
			input: "I want to share I want to share I want to share something",
			exp:   "I want to share something",
		},
		{
			name:  "stutter and repeated phrase",
			input: "he he he said I want to share I want to share I want to share something",
			exp:   "he said I want to share something",
		},
		{
			name:  "word stutter case insensitive",
			input: "The the the Lord is good",
			exp:   "The Lord is good",
		},
		{
			name:  "filler run collapses",
			input: "so uh um uh I was reading",
			exp:   "so uh I was reading",
		},
		{
			name:  "filler after sentence boundary dropped",
			input: "That is the point. Um, let us move on",
			exp:   "That is the point. let us move on",
		},
		{
			name:  "leading filler dropped",
			input: "Um, welcome everyone",
			exp:   "welcome everyone",
		},
		{
			name:  "whitespace and punctuation normalized",
			input: "peace  ,  be still .Amen",
			exp:   "peace, be still. Amen",
		},
		{
			name:  "long repeat unit",
			input: strings.Repeat("for God so loved the world that he gave his only son ", 3) + "amen",
			exp:   "for God so loved the world that he gave his only son amen",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if act := Clean(tc.input); act != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, act)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"he he he said I want to share I want to share I want to share something",
		"so uh um uh I was reading. Um, it struck me",
		"cast your cares cast your cares cast your cares on him",
		"The the the Lord is good",
	}
	for _, input := range inputs {
		once := Clean(input)
		if twice := Clean(once); twice != once {
			t.Errorf("not a fixed point: %q -> %q -> %q", input, once, twice)
		}
	}
}

func TestDedupePhrases(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		exp   string
	}{
		{
			name:  "short input untouched",
			input: "let go let go",
			exp:   "let go let go",
		},
		{
			name:  "two word repeat below minimum unit stays",
			input: "let go let go and trust him fully now",
			exp:   "let go let go and trust him fully now",
		},
		{
			name:  "triple repeat of three words",
			input: "be not afraid be not afraid be not afraid tonight",
			exp:   "be not afraid tonight",
		},
		{
			name:  "repeat must be byte identical",
			input: "Be not afraid be not afraid for I am with you always",
			exp:   "Be not afraid be not afraid for I am with you always",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if act := dedupePhrases(tc.input); act != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, act)
			}
		})
	}
}
