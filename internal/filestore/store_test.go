package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error {
	return nil
}

func TestLocalStoreSaveOpenRoundtrip(t *testing.T) {
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)

	payload := []byte("stored original")
	require.NoError(t, store.Save(context.Background(), "doc.txt", memFile{bytes.NewReader(payload)}, int64(len(payload))))

	rc, err := store.Open(context.Background(), "doc.txt")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../etc/passwd")
	require.Error(t, err)
}

func TestLocalStoreURL(t *testing.T) {
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "http://host:1234/api/v1/files/doc.txt", store.URL("doc.txt", "http://host:1234"))

	store, err = createLocalStore(map[string]interface{}{"dir": t.TempDir(), "public_url": "https://cdn.example.com/files"})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/files/doc.txt", store.URL("doc.txt", "http://host:1234"))
}

func TestS3StoreKeysAndURLs(t *testing.T) {
	store := &s3Store{
		prefix:   "uploads",
		endpoint: "minio.local:9000",
		bucket:   "docs",
	}
	require.Equal(t, "uploads/doc.txt", store.objectKey("doc.txt"))
	require.Equal(t, "http://minio.local:9000/docs/uploads/doc.txt", store.URL("doc.txt", ""))

	require.Equal(t, "https://minio.local:9000", ensureScheme("minio.local:9000", true))
	require.Equal(t, "http://minio.local:9000", ensureScheme("http://minio.local:9000", false))
}
