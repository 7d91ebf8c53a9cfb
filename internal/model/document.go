package model

type Document struct {
	ID       int64  `json:"id"`
	APIKey   string `json:"api_key"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	// StorageKey locates the original upload in the file store; empty when
	// the original was not kept.
	StorageKey string `json:"-"`
	Hits       int64  `json:"hits"`
	Ctime      int64  `json:"ctime"`
	LastUsedAt int64  `json:"last_used_at"`
}
