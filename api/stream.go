package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/peko-thunder/japanese-name-validator/namecheck"
	"github.com/peko-thunder/japanese-name-validator/ratelimit"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// pingPeriod sends a ping well inside pongWait so an idle-but-open
	// connection still gets its read deadline refreshed.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamResponse wraps a validateRequest's outcome with enough context
// for a batch caller to line the reply back up with its input.
type streamResponse struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	namecheckResultFields
}

// namecheckResultFields is embedded so successful entries marshal with
// the same field names as the one-shot HTTP response.
type namecheckResultFields struct {
	IsValid  bool                      `json:"is_valid,omitempty"`
	SeiCheck namecheck.ComponentResult `json:"sei_check,omitempty"`
	MeiCheck namecheck.ComponentResult `json:"mei_check,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
}

// streamConn serializes writes to a *websocket.Conn. gorilla/websocket
// does not allow concurrent writers, but this handler has two: the
// read loop writing responses, and a ticker goroutine writing pings.
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (sc *streamConn) writeJSON(v any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sc.conn.WriteJSON(v)
}

func (sc *streamConn) writePing() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sc.conn.WriteMessage(websocket.PingMessage, nil)
}

// HandleValidateStream upgrades to a WebSocket and validates one
// Request-shaped JSON message per reply, so a registration batch can be
// checked over a single connection.
func (s *Server) HandleValidateStream(w http.ResponseWriter, r *http.Request) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade", "error", err)
		return
	}
	defer rawConn.Close()

	rawConn.SetReadDeadline(time.Now().Add(pongWait))
	rawConn.SetPongHandler(func(string) error {
		rawConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	conn := &streamConn{conn: rawConn}

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	limiter := ratelimit.NewClientLimiter()
	clientID := r.RemoteAddr
	index := 0

	for {
		var req validateRequest
		if err := rawConn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read", "error", err)
			}
			return
		}

		allowed, shouldDisconnect := limiter.Allow(ratelimit.KindValidateStream)
		if !allowed {
			writeStreamError(conn, index, "rate limit exceeded")
			if shouldDisconnect {
				return
			}
			index++
			continue
		}

		if err := req.validate(); err != nil {
			writeStreamError(conn, index, err.Error())
			index++
			continue
		}

		result, err := s.Matcher.Validate(req.KanjiSei, req.KanjiMei, req.RomajiSei, req.RomajiMei)
		if err != nil {
			slog.Error("validate stream", "error", err)
			writeStreamError(conn, index, "internal error")
			index++
			continue
		}
		s.Audit.Record(req.KanjiSei, req.KanjiMei, req.RomajiSei, req.RomajiMei, clientID, result)

		resp := streamResponse{
			Index:   index,
			Success: true,
			namecheckResultFields: namecheckResultFields{
				IsValid:  result.IsValid,
				SeiCheck: result.SeiCheck,
				MeiCheck: result.MeiCheck,
				Warnings: result.Warnings,
			},
		}
		if err := conn.writeJSON(resp); err != nil {
			return
		}
		index++
	}
}

// pingLoop writes a ping frame every pingPeriod until done is closed,
// so a connection that is open but quiet still gets its read deadline
// refreshed instead of timing out under an idle client.
func pingLoop(conn *streamConn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.writePing(); err != nil {
				return
			}
		}
	}
}

func writeStreamError(conn *streamConn, index int, message string) {
	conn.writeJSON(streamResponse{Index: index, Success: false, Error: message})
}
