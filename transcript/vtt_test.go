package transcript

import (
	"testing"
)

func TestParseVTT(t *testing.T) {
	t.Run("plain cues", func(t *testing.T) {
		content := `WEBVTT
Kind: captions
Language: en

00:00:01.000 --> 00:00:04.000
welcome everyone

00:00:04.000 --> 00:00:07.500
turn with me to psalm twenty three
`
		text, segments := ParseVTT(content)

		if exp := "welcome everyone turn with me to psalm twenty three"; text != exp {
			t.Errorf("exp %q, got %q", exp, text)
		}
		if len(segments) != 2 {
			t.Fatalf("exp 2 segments, got %d", len(segments))
		}
		if segments[0].Start != 1 || segments[0].End != 4 {
			t.Errorf("exp segment times [1,4], got [%v,%v]", segments[0].Start, segments[0].End)
		}
		if segments[1].Start != 4 || segments[1].End != 7.5 {
			t.Errorf("exp segment times [4,7.5], got [%v,%v]", segments[1].Start, segments[1].End)
		}
	})

	t.Run("overlapping cues with identical text are deduplicated", func(t *testing.T) {
		content := `WEBVTT

00:00:01.000 --> 00:00:03.000
cast your cares on him

00:00:02.000 --> 00:00:04.000
cast your cares on him

00:00:04.000 --> 00:00:06.000
for he cares for you
`
		text, segments := ParseVTT(content)

		if exp := "cast your cares on him for he cares for you"; text != exp {
			t.Errorf("exp %q, got %q", exp, text)
		}
		if len(segments) != 2 {
			t.Fatalf("exp 2 segments, got %d", len(segments))
		}
		if segments[0].Start != 1 {
			t.Errorf("exp first occurrence to survive, got start %v", segments[0].Start)
		}
	})

	t.Run("markup and sound labels are stripped", func(t *testing.T) {
		content := `WEBVTT

00:00:01.000 --> 00:00:03.000
<c>he<00:00:01.500><c> restores</c> my soul [Music]

00:00:03.000 --> 00:00:05.000
[Applause]
`
		text, segments := ParseVTT(content)

		if exp := "he restores my soul"; text != exp {
			t.Errorf("exp %q, got %q", exp, text)
		}
		if len(segments) != 1 {
			t.Fatalf("exp 1 segment, got %d", len(segments))
		}
	})

	t.Run("multi line cue text is joined", func(t *testing.T) {
		content := `WEBVTT

01:00:00.000 --> 01:00:05.000
goodness and mercy
shall follow me
`
		text, segments := ParseVTT(content)

		if exp := "goodness and mercy shall follow me"; text != exp {
			t.Errorf("exp %q, got %q", exp, text)
		}
		if segments[0].Start != 3600 {
			t.Errorf("exp start 3600, got %v", segments[0].Start)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		text, segments := ParseVTT("")
		if text != "" {
			t.Errorf("exp empty text, got %q", text)
		}
		if len(segments) != 0 {
			t.Errorf("exp no segments, got %d", len(segments))
		}
	})
}
