package smule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingKey(t *testing.T) {
	assert.Equal(t, "123456789_987654321",
		RecordingKey("https://www.smule.com/recording/some-song/123456789_987654321"))
	assert.Equal(t, "123456789_987654321",
		RecordingKey("https://www.smule.com/recording/some-song/123456789_987654321/"))
	// 直接传key时原样返回
	assert.Equal(t, "123456789_987654321", RecordingKey("123456789_987654321"))
}

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient()
	c.SetAPIBase(srv.URL)
	c.SetCDNBase("https://cdn.test")
	return c, srv
}

func TestFetchRecordingNotFound(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := c.FetchRecording(context.Background(), "abc123", "cookie")
	assert.ErrorIs(t, err, ErrRecordingNotFound)
}

func TestFetchRecordingUpstreamError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := c.FetchRecording(context.Background(), "abc123", "cookie")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRecordingNotFound)
}

func TestFetchRecordingNestedShape(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"performance": {
				"title": "My Way",
				"web_url": "https://media.test/myway.m4a",
				"cover_url": "https://media.test/myway.jpg",
				"created_at": "2025-05-01T10:00:00Z",
				"type": "duet",
				"song_info": {"artist_name": "Frank Sinatra"},
				"owner": {"handle": "singer42", "account_id": 12345}
			}
		}`))
	}))
	defer srv.Close()

	rec, err := c.FetchRecording(context.Background(), "abc123", "session=abc")
	require.NoError(t, err)

	assert.Equal(t, "My Way", rec.Title)
	assert.Equal(t, "Frank Sinatra", rec.Artist)
	assert.Equal(t, "https://media.test/myway.m4a", rec.AudioURL)
	assert.Equal(t, "https://media.test/myway.jpg", rec.CoverURL)
	assert.Equal(t, "singer42", rec.PerformerName)
	assert.Equal(t, "12345", rec.PerformerID)
	assert.Equal(t, "duet", rec.Type)
	assert.Equal(t, "2025-05-01T10:00:00Z", rec.CreatedAt)
}

func TestFetchRecordingFlatShapeWithFallbacks(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// 没有音频和封面字段，退回CDN直链；没有owner，退回performers
		w.Write([]byte(`{
			"song_name": "Hallelujah",
			"performers": [{"handle": "coverqueen", "account_id": "777"}]
		}`))
	}))
	defer srv.Close()

	rec, err := c.FetchRecording(context.Background(), "key777", "")
	require.NoError(t, err)

	assert.Equal(t, "Hallelujah", rec.Title)
	assert.Equal(t, "https://cdn.test/key777.m4a", rec.AudioURL)
	assert.Equal(t, "https://cdn.test/key777.jpg", rec.CoverURL)
	assert.Equal(t, "coverqueen", rec.PerformerName)
	assert.Equal(t, "solo", rec.Type)
	assert.NotEmpty(t, rec.CreatedAt)
}

func TestFetchRecordingEmptyBodyDefaults(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	rec, err := c.FetchRecording(context.Background(), "k1", "")
	require.NoError(t, err)

	assert.Equal(t, "Untitled", rec.Title)
	assert.Equal(t, "Unknown", rec.PerformerName)
	assert.Equal(t, "https://cdn.test/k1.m4a", rec.AudioURL)
}
