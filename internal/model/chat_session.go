package model

// ChatSession is the immutable audit record of one question/answer turn.
// It is written once after the answer stream finishes and never updated
// or deleted by the retrieval pipeline.
type ChatSession struct {
	ID           int64  `json:"id"`
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	APIKey       string `json:"api_key,omitempty"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Document     string `json:"document,omitempty"`
	Image        string `json:"image,omitempty"`
	DocumentHits string `json:"document_hits,omitempty"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	TotalTokens  int64  `json:"total_tokens"`
	LatencyMs    int64  `json:"request_latency_ms"`
	StatusCode   int    `json:"status_code"`
	Ctime        int64  `json:"ctime"`
}
