package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/BaSui01/browserpilot/internal/pool"
)

// PageViewer is the slice of the browser session the live stream reads.
type PageViewer interface {
	ScreenshotJPEG(ctx context.Context, quality int) ([]byte, error)
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
}

// LiveFrame is one frame of the live page stream.
type LiveFrame struct {
	ScreenshotBase64 string    `json:"screenshot_base64"`
	URL              string    `json:"url,omitempty"`
	Title            string    `json:"title,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// LiveHandler streams page frames over a websocket so an operator can
// watch (and decide when to intervene on) the session remotely.
type LiveHandler struct {
	viewer   PageViewer
	interval time.Duration
	quality  int
	logger   *zap.Logger
}

// NewLiveHandler creates the handler. interval is the frame period,
// quality the JPEG quality (1-100).
func NewLiveHandler(viewer PageViewer, interval time.Duration, quality int, logger *zap.Logger) *LiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if quality <= 0 || quality > 100 {
		quality = 60
	}
	return &LiveHandler{
		viewer:   viewer,
		interval: interval,
		quality:  quality,
		logger:   logger.With(zap.String("component", "live_handler")),
	}
}

// HandleWS answers GET /live/ws and streams frames until the client
// disconnects.
func (h *LiveHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream ended")

	h.logger.Info("live stream started", zap.String("remote", r.RemoteAddr))

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		frame, err := h.captureFrame(ctx)
		if err != nil {
			h.logger.Debug("frame capture failed", zap.Error(err))
		} else if err := h.writeFrame(ctx, conn, frame); err != nil {
			h.logger.Info("live stream ended", zap.Error(err))
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// writeFrame encodes through a pooled buffer. Frames carry a full
// screenshot, so the allocations add up at streaming rates.
func (h *LiveHandler) writeFrame(ctx context.Context, conn *websocket.Conn, frame *LiveFrame) error {
	buf := pool.ByteBufferPool.Get()
	defer pool.ByteBufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(frame); err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, buf.Bytes())
}

func (h *LiveHandler) captureFrame(ctx context.Context) (*LiveFrame, error) {
	shot, err := h.viewer.ScreenshotJPEG(ctx, h.quality)
	if err != nil {
		return nil, err
	}
	frame := &LiveFrame{
		ScreenshotBase64: base64.StdEncoding.EncodeToString(shot),
		Timestamp:        time.Now(),
	}
	if u, err := h.viewer.CurrentURL(ctx); err == nil {
		frame.URL = u
	}
	if title, err := h.viewer.Title(ctx); err == nil {
		frame.Title = title
	}
	return frame, nil
}
