package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeViewer struct {
	shot []byte
	url  string
}

func (v *fakeViewer) ScreenshotJPEG(context.Context, int) ([]byte, error) { return v.shot, nil }
func (v *fakeViewer) CurrentURL(context.Context) (string, error)          { return v.url, nil }
func (v *fakeViewer) Title(context.Context) (string, error)               { return "Example", nil }

func TestLiveStream(t *testing.T) {
	viewer := &fakeViewer{shot: []byte("jpeg-bytes"), url: "https://example.com"}
	live := NewLiveHandler(viewer, 20*time.Millisecond, 50, nil)

	server := httptest.NewServer(http.HandlerFunc(live.HandleWS))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Read a couple of frames to confirm the stream keeps ticking.
	for i := 0; i < 2; i++ {
		typ, data, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, websocket.MessageText, typ)

		var frame LiveFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, base64.StdEncoding.EncodeToString(viewer.shot), frame.ScreenshotBase64)
		assert.Equal(t, "https://example.com", frame.URL)
		assert.Equal(t, "Example", frame.Title)
		assert.False(t, frame.Timestamp.IsZero())
	}
}

func TestLiveHandlerDefaults(t *testing.T) {
	h := NewLiveHandler(&fakeViewer{}, 0, 0, nil)
	assert.Equal(t, 500*time.Millisecond, h.interval)
	assert.Equal(t, 60, h.quality)
}
