package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second

	msgOrientation = "orientation"
	msgFrameResult = "frame_result"
	msgFrameDrop   = "frame_dropped"
	msgError       = "error"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Frame sources are native apps, not browsers
		return true
	},
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// ControlMessage is a text message sent by the frame source.
type ControlMessage struct {
	Type        string `json:"type"`
	Orientation string `json:"orientation,omitempty"`
}

// FrameResultMessage answers one binary frame. Result is the document in
// boundary form, or null when no document was produced.
type FrameResultMessage struct {
	Type        string `json:"type"`
	FrameID     string `json:"frame_id"`
	Result      any    `json:"result"`
	Diagnostics int    `json:"diagnostics"`
}

// ErrorMessage reports a rejected message or frame.
type ErrorMessage struct {
	Type      string `json:"type"`
	FrameID   string `json:"frame_id,omitempty"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// frameSession is the state of one frame stream connection.
type frameSession struct {
	s           *Server
	conn        WebSocketConnWriter
	client      string
	orientation orientation.Orientation

	writeMu sync.Mutex
	busy    atomic.Bool
	wg      sync.WaitGroup
}

// framesWebSocketHandler streams frames: binary messages are frames, text
// messages are control messages.
func (s *Server) framesWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	o := s.defaultOrientation
	if raw := r.URL.Query().Get("orientation"); raw != "" {
		parsed, err := orientation.Parse(raw)
		if err != nil {
			s.writeErrorResponse(w, fmt.Sprintf("invalid orientation: %v", err), http.StatusBadRequest)
			return
		}
		o = parsed
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()
	conn.SetReadLimit(s.maxUploadBytes())

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("WebSocket frame stream established",
		"remote_addr", r.RemoteAddr,
		"request_id", RequestID(r.Context()),
		"orientation", o.String())

	ctx, cancel := context.WithCancel(r.Context())
	session := s.newFrameSession(conn, getClientIP(r), o)
	defer func() {
		cancel()
		session.wg.Wait()
	}()
	session.run(ctx, conn)
}

func (s *Server) newFrameSession(conn WebSocketConnWriter, client string, o orientation.Orientation) *frameSession {
	return &frameSession{s: s, conn: conn, client: client, orientation: o}
}

// run reads messages until the connection fails.
func (fs *frameSession) run(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				fs.s.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		websocketMessagesTotal.WithLabelValues("received").Inc()

		fs.handleMessage(ctx, messageType, data)
	}
}

// handleMessage dispatches one message. Frames are processed inline, or
// on a single background goroutine when overlapping frames are dropped.
func (fs *frameSession) handleMessage(ctx context.Context, messageType int, data []byte) {
	switch messageType {
	case websocket.TextMessage:
		fs.handleControl(data)
	case websocket.BinaryMessage:
		fs.handleFrame(ctx, data)
	}
}

func (fs *frameSession) handleControl(data []byte) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		fs.send(ErrorMessage{Type: msgError, ErrorType: "invalid_control", Error: fmt.Sprintf("Failed to parse control message: %v", err)})
		return
	}

	switch msg.Type {
	case msgOrientation:
		o, err := orientation.Parse(msg.Orientation)
		if err != nil {
			fs.send(ErrorMessage{Type: msgError, ErrorType: "invalid_control", Error: fmt.Sprintf("Invalid orientation: %v", err)})
			return
		}
		fs.orientation = o
	default:
		fs.send(ErrorMessage{Type: msgError, ErrorType: "invalid_control", Error: "Unsupported control message type: " + msg.Type})
	}
}

func (fs *frameSession) handleFrame(ctx context.Context, data []byte) {
	id := uuid.NewString()

	if rl := fs.s.rateLimiter; rl != nil {
		if err := rl.Allow(fs.client, int64(len(data))); err != nil {
			recordRateLimitHit(err)
			frameRequestsTotal.WithLabelValues(transportWebSocket, resultRejected).Inc()
			fs.send(ErrorMessage{Type: msgError, FrameID: id, ErrorType: "rate_limited", Error: err.Error()})
			return
		}
	}

	fr, meta, err := frame.Decode(bytes.NewReader(data), fs.orientation, fs.s.maxUploadBytes())
	if err != nil {
		frameRequestsTotal.WithLabelValues(transportWebSocket, resultRejected).Inc()
		fs.send(ErrorMessage{Type: msgError, FrameID: id, ErrorType: "invalid_frame", Error: err.Error()})
		return
	}
	uploadSizeBytes.Observe(float64(meta.SizeBytes))

	if !fs.s.dropOverlapping {
		fs.process(ctx, id, fr)
		return
	}

	if !fs.busy.CompareAndSwap(false, true) {
		frameRequestsTotal.WithLabelValues(transportWebSocket, resultDropped).Inc()
		fs.send(FrameResultMessage{Type: msgFrameDrop, FrameID: id})
		return
	}
	fs.wg.Add(1)
	go func() {
		defer fs.wg.Done()
		defer fs.busy.Store(false)
		fs.process(ctx, id, fr)
	}()
}

func (fs *frameSession) process(ctx context.Context, id string, fr frame.Frame) {
	fctx, cancel := fs.s.frameContext(ctx)
	defer cancel()

	doc, diags := fs.s.processor.Process(fctx, fr)

	msg := FrameResultMessage{Type: msgFrameResult, FrameID: id, Diagnostics: len(diags)}
	result := resultNone
	if doc != nil {
		msg.Result = doc.Map()
		result = resultDocument
	}
	frameRequestsTotal.WithLabelValues(transportWebSocket, result).Inc()
	fs.send(msg)
}

// send marshals v and writes it as a text message.
func (fs *frameSession) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fs.s.logger.Error("Failed to marshal WebSocket message", "error", err)
		return
	}

	fs.writeMu.Lock()
	err = fs.conn.WriteMessage(websocket.TextMessage, data)
	fs.writeMu.Unlock()
	if err != nil {
		fs.s.logger.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
