package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Ask answers a question synchronously. The whole answer plus the ranked
// source chunks come back in one JSON payload.
func (h *ChatHandler) Ask(c *gin.Context) {
	topK, _ := strconv.Atoi(c.Query("top_k"))
	req := service.AskRequest{
		APIKey:   tenantKey(c),
		Question: c.Query("question"),
		Provider: c.Query("provider"),
		Model:    c.Query("model"),
		TopK:     topK,
	}
	if req.APIKey == "" {
		response.Error(c, errcode.ErrUnauthorized, "api key required")
		return
	}
	result, err := h.chat.Ask(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

type chatRequest struct {
	Question string `json:"question"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Chat streams the answer as server-sent events, one fragment per event.
// The final event carries the token usage. The body is JSON, or multipart
// when images or ad-hoc documents ride along with the question.
func (h *ChatHandler) Chat(c *gin.Context) {
	req, err := parseChatRequest(c)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	req.APIKey = tenantKey(c)
	if req.APIKey == "" {
		response.Error(c, errcode.ErrUnauthorized, "api key required")
		return
	}
	stream, err := h.chat.AskStream(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		frag, ok := <-stream
		if !ok {
			fmt.Fprint(w, "data: [DONE]\n\n")
			return false
		}
		return writeFragment(w, frag)
	})
}

// History returns the caller's recent question/answer turns.
func (h *ChatHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	sessions, err := h.chat.History(c.Request.Context(), getUserID(c), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	if sessions == nil {
		sessions = []model.ChatSession{}
	}
	response.Success(c, gin.H{"items": sessions})
}

func parseChatRequest(c *gin.Context) (service.AskRequest, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var body chatRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			return service.AskRequest{}, err
		}
		return service.AskRequest{
			Question: body.Question,
			Provider: body.Provider,
			Model:    body.Model,
		}, nil
	}
	req := service.AskRequest{
		Question: c.PostForm("question"),
		Provider: c.PostForm("provider"),
		Model:    c.PostForm("model"),
	}
	form, err := c.MultipartForm()
	if err != nil {
		return service.AskRequest{}, err
	}
	req.Images, err = readAttachments(form.File["image"])
	if err != nil {
		return service.AskRequest{}, err
	}
	req.Documents, err = readAttachments(form.File["document"])
	if err != nil {
		return service.AskRequest{}, err
	}
	return req, nil
}

func readAttachments(headers []*multipart.FileHeader) ([]service.Attachment, error) {
	var items []service.Attachment
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		items = append(items, service.Attachment{
			Filename: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return items, nil
}

func writeFragment(w io.Writer, frag ai.Fragment) bool {
	data, err := json.Marshal(frag)
	if err != nil {
		return false
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err == nil
}
