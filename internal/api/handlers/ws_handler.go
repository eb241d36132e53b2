package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingEvery    = 25 * time.Second
	wsMaxMessage   = 16 << 10
)

// WSHandler runs an interview over a WebSocket. Each client message is
// handled to completion before the next is read, so turns stay ordered.
type WSHandler struct {
	svc      services.InterviewService
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler accepts upgrades from allowedOrigin only; "*" or "" allows any.
func NewWSHandler(svc services.InterviewService, allowedOrigin string, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &WSHandler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // message | end | state
	Text string `json:"text"`
}

type wsServerMsg struct {
	Type    string     `json:"type"` // turn | report | state | error
	Payload any        `json:"payload,omitempty"`
	Code    utils.Code `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func (w *wsConn) writeErr(err error) error {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return w.writeJSON(wsServerMsg{Type: "error", Code: ae.Code, Message: ae.Message})
	}
	return w.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInternal, Message: "internal error"})
}

func (h *WSHandler) InterviewWS(c *gin.Context) {
	const op = "WSHandler.InterviewWS"

	sessionID, ok := sessionIDParam(c, op)
	if !ok {
		return
	}
	st, err := h.svc.GetState(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !authorizeSession(c, op, st) {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	go func() {
		t := time.NewTicker(wsPingEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := wc.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	log := h.log.WithField("session_id", sessionID)
	log.Debug("websocket connected")
	defer log.Debug("websocket closed")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeErr(utils.E(utils.CodeInvalidArgument, op, "invalid json", err))
			continue
		}

		if done := h.handle(ctx, wc, sessionID, msg); done {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interview ended"),
				time.Now().Add(wsWriteTimeout))
			return
		}
		// the turn may outlast the read deadline
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	}
}

// handle processes one client message and reports whether the socket should close.
func (h *WSHandler) handle(ctx context.Context, wc *wsConn, sessionID string, msg wsClientMsg) bool {
	const op = "WSHandler.handle"

	switch msg.Type {
	case "message":
		if len(msg.Text) == 0 || len([]rune(msg.Text)) > 5000 {
			_ = wc.writeErr(utils.E(utils.CodeInvalidArgument, op, "text must be 1-5000 characters", nil))
			return false
		}
		turn, err := h.svc.SendMessage(ctx, sessionID, msg.Text)
		if err != nil {
			_ = wc.writeErr(err)
			return utils.IsCode(err, utils.CodeNotFound)
		}
		_ = wc.writeJSON(wsServerMsg{Type: "turn", Payload: turn})

	case "end":
		report, err := h.svc.End(ctx, sessionID)
		if err != nil {
			_ = wc.writeErr(err)
			return utils.IsCode(err, utils.CodeNotFound)
		}
		_ = wc.writeJSON(wsServerMsg{Type: "report", Payload: report})
		return true

	case "state":
		st, err := h.svc.GetState(ctx, sessionID)
		if err != nil {
			_ = wc.writeErr(err)
			return true
		}
		_ = wc.writeJSON(wsServerMsg{Type: "state", Payload: st})

	default:
		_ = wc.writeErr(utils.E(utils.CodeInvalidArgument, op, "unknown message type", nil))
	}
	return false
}
