package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type DocumentHandler struct {
	ingest *service.IngestService
	store  filestore.Store
}

func NewDocumentHandler(ingest *service.IngestService, store filestore.Store) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, store: store}
}

// Upload takes a multipart file and ingests it into the tenant's corpus.
func (h *DocumentHandler) Upload(c *gin.Context) {
	key := tenantKey(c)
	if key == "" {
		response.Error(c, errcode.ErrUnauthorized, "api key required")
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "open uploaded file failed")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "read uploaded file failed")
		return
	}
	doc, chunks, err := h.ingest.UploadDocument(c.Request.Context(), key, fileHeader.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"chunks":      chunks,
	})
}

type webhookRequest struct {
	APIKey     string `json:"api_key"`
	StorageKey string `json:"storage_key"`
	Filename   string `json:"filename"`
}

// Webhook ingests a file that an upstream uploader already placed in the
// file store.
func (h *DocumentHandler) Webhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.APIKey == "" || req.StorageKey == "" || req.Filename == "" {
		response.Error(c, errcode.ErrInvalid, "api_key, storage_key and filename are required")
		return
	}
	doc, chunks, err := h.ingest.IngestStored(c.Request.Context(), req.APIKey, req.StorageKey, req.Filename)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"chunks":      chunks,
	})
}

type documentItem struct {
	model.Document
	// URL points at the stored original, when it was kept.
	URL string `json:"url,omitempty"`
}

func (h *DocumentHandler) List(c *gin.Context) {
	key := tenantKey(c)
	if key == "" {
		response.Error(c, errcode.ErrUnauthorized, "api key required")
		return
	}
	docs, err := h.ingest.ListDocuments(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	base := requestBaseURL(c)
	items := make([]documentItem, 0, len(docs))
	for _, doc := range docs {
		item := documentItem{Document: doc}
		if doc.StorageKey != "" && h.store != nil {
			item.URL = h.store.URL(doc.StorageKey, base)
		}
		items = append(items, item)
	}
	response.Success(c, gin.H{"items": items})
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	key := tenantKey(c)
	if key == "" {
		response.Error(c, errcode.ErrUnauthorized, "api key required")
		return
	}
	docID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid document id")
		return
	}
	if err := h.ingest.DeleteDocument(c.Request.Context(), key, docID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
