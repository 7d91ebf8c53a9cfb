package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type APIKeyHandler struct {
	keys *service.APIKeyService
}

func NewAPIKeyHandler(keys *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

type createKeyRequest struct {
	Label        string `json:"label"`
	Instructions string `json:"instructions"`
	TokenLimit   int64  `json:"token_limit"`
}

type updateInstructionsRequest struct {
	Instructions string `json:"instructions"`
}

type updateLimitRequest struct {
	TokenLimit int64 `json:"token_limit"`
}

func (h *APIKeyHandler) Create(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	key, err := h.keys.Create(c.Request.Context(), getUserID(c), req.Label, req.Instructions, req.TokenLimit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, key)
}

func (h *APIKeyHandler) List(c *gin.Context) {
	keys, err := h.keys.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	if keys == nil {
		keys = []model.APIKey{}
	}
	response.Success(c, gin.H{"items": keys})
}

func (h *APIKeyHandler) UpdateInstructions(c *gin.Context) {
	var req updateInstructionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.keys.UpdateInstructions(c.Request.Context(), getUserID(c), c.Param("key"), req.Instructions); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

func (h *APIKeyHandler) UpdateTokenLimit(c *gin.Context) {
	var req updateLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.keys.UpdateTokenLimit(c.Request.Context(), getUserID(c), c.Param("key"), req.TokenLimit); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

func (h *APIKeyHandler) Delete(c *gin.Context) {
	if err := h.keys.Delete(c.Request.Context(), getUserID(c), c.Param("key")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
