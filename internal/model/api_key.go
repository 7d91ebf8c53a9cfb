package model

// APIKey is the tenant credential: an opaque key scoping a document
// corpus, its persona instructions and its token accounting to one user.
type APIKey struct {
	Key          string `json:"api_key"`
	UserID       string `json:"user_id"`
	Label        string `json:"label"`
	Instructions string `json:"instructions"`
	// EmbedModel records which embedding model produced the corpus
	// vectors. A query embedded with a different model must be refused.
	EmbedModel string `json:"embed_model"`
	EmbedDim   int    `json:"embed_dim"`
	TokenLimit int64  `json:"token_limit"`
	TokensUsed int64  `json:"tokens_used"`
	Ctime      int64  `json:"ctime"`
	LastUsedAt int64  `json:"last_used_at"`
}

func (k *APIKey) TokensRemaining() int64 {
	if k.TokenLimit <= 0 {
		return -1
	}
	remaining := k.TokenLimit - k.TokensUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
