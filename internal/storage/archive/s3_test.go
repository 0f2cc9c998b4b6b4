package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.txt", "file.txt"},
		{"archive", "file.txt", "archive/file.txt"},
		{"/archive/", "backtests/a.csv", "archive/backtests/a.csv"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "b", Region: "us-east-1", Prefix: tt.prefix})
		require.NoError(t, err)
		got, err := s.key(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "prefix %q", tt.prefix)
	}

	s, _ := NewS3(S3Config{Bucket: "b", Region: "us-east-1"})
	_, err := s.key("../x")
	assert.Error(t, err)
}

func TestS3Storage_Relative(t *testing.T) {
	s := &S3Storage{prefix: "archive"}
	assert.Equal(t, "backtests/a.csv", s.relative("archive/backtests/a.csv"))
}

func TestContentType(t *testing.T) {
	assert.Contains(t, contentType("a.json"), "application/json")
	assert.Contains(t, contentType("a.csv"), "csv")
	assert.Equal(t, "application/octet-stream", contentType("a"))
}

func TestS3Storage_WritePutsObject(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		ctype  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path, ctype = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3(S3Config{
		Bucket:    "reports",
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "ats",
	})
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "backtests/IUSQ_S1_BT.json", []byte(`{}`)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/reports/ats/backtests/IUSQ_S1_BT.json", path)
	assert.Equal(t, "application/json", ctype)
}
