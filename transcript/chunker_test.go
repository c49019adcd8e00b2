package transcript

import (
	"strings"
	"testing"

	"ewintr.nl/sermonai/model"
)

func TestChunk(t *testing.T) {
	words := func(n int) string {
		ws := make([]string, n)
		for i := range ws {
			ws[i] = "w"
		}
		return strings.Join(ws, " ")
	}

	for _, tc := range []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		expRanges [][2]int
	}{
		{
			name:      "empty text",
			text:      "",
			chunkSize: 5,
			overlap:   2,
		},
		{
			name:      "eleven words size five overlap two",
			text:      words(11),
			chunkSize: 5,
			overlap:   2,
			expRanges: [][2]int{{0, 5}, {3, 8}, {6, 11}},
		},
		{
			name:      "text shorter than chunk size",
			text:      words(3),
			chunkSize: 5,
			overlap:   2,
			expRanges: [][2]int{{0, 3}},
		},
		{
			name:      "exact fit",
			text:      words(5),
			chunkSize: 5,
			overlap:   2,
			expRanges: [][2]int{{0, 5}},
		},
		{
			name:      "no overlap",
			text:      words(11),
			chunkSize: 5,
			overlap:   0,
			expRanges: [][2]int{{0, 5}, {5, 10}, {10, 11}},
		},
		{
			name:      "overlap not smaller than size",
			text:      words(10),
			chunkSize: 3,
			overlap:   3,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			chunks := Chunk(tc.text, model.VideoID("vid1"), tc.chunkSize, tc.overlap)
			if len(chunks) != len(tc.expRanges) {
				t.Fatalf("exp %d chunks, got %d", len(tc.expRanges), len(chunks))
			}
			for i, c := range chunks {
				if c.ChunkIndex != i {
					t.Errorf("chunk %d: exp index %d, got %d", i, i, c.ChunkIndex)
				}
				if c.VideoID != "vid1" {
					t.Errorf("chunk %d: exp video id vid1, got %s", i, c.VideoID)
				}
				if c.StartWord != tc.expRanges[i][0] || c.EndWord != tc.expRanges[i][1] {
					t.Errorf("chunk %d: exp range %v, got [%d,%d]",
						i, tc.expRanges[i], c.StartWord, c.EndWord)
				}
				if exp := c.EndWord - c.StartWord; len(strings.Fields(c.Text)) != exp {
					t.Errorf("chunk %d: exp %d words in text, got %d", i, exp, len(strings.Fields(c.Text)))
				}
			}
		})
	}
}

func TestChunkCoversWordSequence(t *testing.T) {
	text := "now faith is the assurance of things hoped for the conviction of things not seen by anyone"
	total := len(strings.Fields(text))
	chunkSize, overlap := 5, 2

	chunks := Chunk(text, model.VideoID("vid1"), chunkSize, overlap)
	if len(chunks) == 0 {
		t.Fatal("exp chunks, got none")
	}
	if chunks[0].StartWord != 0 {
		t.Errorf("exp first chunk to start at 0, got %d", chunks[0].StartWord)
	}
	if last := chunks[len(chunks)-1]; last.EndWord != total {
		t.Errorf("exp last chunk to end at %d, got %d", total, last.EndWord)
	}
	for i := 1; i < len(chunks); i++ {
		if exp := chunks[i-1].EndWord - overlap; chunks[i].StartWord != exp {
			t.Errorf("chunk %d: exp start %d, got %d", i, exp, chunks[i].StartWord)
		}
	}
}
