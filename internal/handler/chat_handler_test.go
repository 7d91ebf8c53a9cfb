package handler

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestParseChatRequestJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	body := `{"question":"q","provider":"openai","model":"gpt-4o"}`
	c.Request = httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	req, err := parseChatRequest(c)
	require.NoError(t, err)
	require.Equal(t, "q", req.Question)
	require.Equal(t, "openai", req.Provider)
	require.Empty(t, req.Images)
	require.Empty(t, req.Documents)
}

func TestParseChatRequestMultipartAttachments(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("question", "what is in these"))
	require.NoError(t, writer.WriteField("provider", "gemini"))
	require.NoError(t, writer.WriteField("model", "gemini-2.0-flash"))
	for _, name := range []string{"a.png", "b.png"} {
		part, err := writer.CreateFormFile("image", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes-" + name))
		require.NoError(t, err)
	}
	part, err := writer.CreateFormFile("document", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("some extra context"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/chat", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	req, err := parseChatRequest(c)
	require.NoError(t, err)
	require.Equal(t, "what is in these", req.Question)
	require.Len(t, req.Images, 2)
	require.Equal(t, "a.png", req.Images[0].Filename)
	require.Equal(t, []byte("png-bytes-a.png"), req.Images[0].Data)
	require.Len(t, req.Documents, 1)
	require.Equal(t, "notes.txt", req.Documents[0].Filename)
	require.Equal(t, []byte("some extra context"), req.Documents[0].Data)
}
