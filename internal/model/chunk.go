package model

// ChunkEmbedding is the joined chunk+vector row the retriever works on.
// Vector is already decoded from the binary column.
type ChunkEmbedding struct {
	ChunkID    int64     `json:"chunk_id"`
	DocumentID int64     `json:"document_id"`
	Content    string    `json:"content"`
	Vector     []float32 `json:"-"`
}
