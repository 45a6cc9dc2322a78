package quotes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const sampleBody = `[
	{"id":"1","text":"first","author":{"id":"a","name":"A"}},
	{"id":"2","text":"second","author":{"id":"a","name":"A"}},
	{"id":"3","text":"third","author":{"id":"b","name":"B"}}
]`

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		url  string
		err  bool
	}{
		{"Https", "https://api.fisenko.net", false},
		{"Http with trailing slash", "http://localhost:8080/", false},
		{"Empty", "", true},
		{"Relative", "api.fisenko.net", true},
		{"Wrong scheme", "ftp://api.fisenko.net", true},
		{"No host", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.url)
			if tt.err {
				require.ErrorIs(t, err, ErrConfig)
				require.Nil(t, c)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c)
		})
	}

	c, err := NewClient("https://api.fisenko.net/")
	require.NoError(t, err)
	require.Equal(t, "https://api.fisenko.net/v1/", c.BaseURL())
}

func TestFetch(t *testing.T) {
	var gotPath, gotQuery, gotEncoding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotEncoding = r.Header.Get("Accept-Encoding")
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	quotes, err := c.Quotes(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	require.Equal(t, "/v1/quotes/en", gotPath)
	require.Equal(t, "limit=100", gotQuery)
	require.Equal(t, "gzip, zstd", gotEncoding)
	require.Equal(t, Quote{ID: "3", Text: "third", Author: Author{ID: "b", Name: "B"}}, quotes[2])

	_, err = c.Quotes(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, gotQuery)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{"Server error", http.StatusInternalServerError, sampleBody, ErrNetwork},
		{"Not found", http.StatusNotFound, "", ErrNetwork},
		{"Empty body", http.StatusOK, "", ErrNetwork},
		{"Whitespace body", http.StatusOK, "  \n", ErrNetwork},
		{"Object instead of array", http.StatusOK, `{"id":"1"}`, ErrDecode},
		{"Null", http.StatusOK, "null", ErrDecode},
		{"Garbage", http.StatusOK, "<html>", ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			quotes, err := c.Quotes(context.Background(), 1)
			require.ErrorIs(t, err, tt.expected)
			require.Nil(t, quotes)
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)

	_, err = c.Quotes(context.Background(), 1)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestFetchEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	quotes, err := c.Quotes(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, quotes)
	require.Empty(t, quotes)
}

func TestFetchCompressed(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write([]byte(sampleBody))
	gw.Close()

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	require.NoError(t, err)
	zw.Write([]byte(sampleBody))
	zw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
		err      error
	}{
		{"Gzip", "gzip", gz.Bytes(), nil},
		{"Zstd", "zstd", zs.Bytes(), nil},
		{"Unsupported", "br", []byte(sampleBody), ErrDecode},
		{"Broken gzip", "gzip", []byte(sampleBody), ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", tt.encoding)
				w.Write(tt.body)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			quotes, err := c.Quotes(context.Background(), 0)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Len(t, quotes, 3)
		})
	}
}
