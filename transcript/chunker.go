package transcript

import (
	"strings"

	"ewintr.nl/sermonai/model"
)

// Chunk splits transcript text into overlapping windows of chunkSize words.
// Consecutive windows share overlap words. The walk stops once the remaining
// tail is smaller than the overlap, which keeps short remainders from
// producing degenerate trailing chunks. Indices count from 0.
func Chunk(text string, videoID model.VideoID, chunkSize, overlap int) []model.Chunk {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []model.Chunk
	start := 0
	for start < len(words) {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, model.Chunk{
			VideoID:    videoID,
			ChunkIndex: len(chunks),
			Text:       strings.Join(words[start:end], " "),
			StartWord:  start,
			EndWord:    end,
		})

		start = end - overlap
		if start >= len(words)-overlap {
			break
		}
	}

	return chunks
}
