package model

// Chunk is a window of transcript words prepared for embedding. Chunks are
// produced fresh on every embedding run and never persisted relationally.
type Chunk struct {
	VideoID    VideoID
	ChunkIndex int
	Text       string
	StartWord  int
	EndWord    int
}
