package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"codeduel/internal/duel"
	"codeduel/internal/room"
	"codeduel/internal/session"
	appErr "codeduel/pkg/errors"
	"codeduel/pkg/utils/contextkey"
	"codeduel/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const requestTimeout = 2 * time.Minute

// Handler upgrades websocket connections and routes their messages to the
// duel and session services.
type Handler struct {
	hub      *Hub
	duel     *duel.Service
	session  *session.Service
	upgrader websocket.Upgrader
}

// HandlerConfig wires the handler's dependencies.
type HandlerConfig struct {
	Hub     *Hub
	Duel    *duel.Service
	Session *session.Service
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Hub == nil || cfg.Duel == nil || cfg.Session == nil {
		return nil, appErr.Newf(appErr.InvalidParams, "ws handler requires hub, duel and session services")
	}
	return &Handler{
		hub:     cfg.Hub,
		duel:    cfg.Duel,
		session: cfg.Session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins; identity is
			// per-connection, not cookie-based, so origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Register mounts the websocket endpoint.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/ws", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Conn{
		ID:   uuid.NewString(),
		hub:  h.hub,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
	}
	h.hub.add(conn)

	ctx := context.WithValue(context.Background(), contextkey.ConnectionID, conn.ID)
	logger.Info(ctx, "client connected", zap.String("remote", ws.RemoteAddr().String()))

	go conn.writePump()
	h.readPump(ctx, conn)
}

func (h *Handler) readPump(ctx context.Context, c *Conn) {
	defer h.disconnect(ctx, c)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn(ctx, "websocket read failed", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.reply(0, TypeError, errorPayload(appErr.Newf(appErr.InvalidParams, "malformed message")))
			continue
		}
		h.dispatch(ctx, c, env)
	}
}

func (h *Handler) disconnect(ctx context.Context, c *Conn) {
	if !h.hub.remove(c) {
		return
	}
	c.close()
	h.duel.Disconnect(ctx, c.ID)
	h.session.Disconnect(c.ID)
	logger.Info(ctx, "client disconnected")
}

func (h *Handler) dispatch(connCtx context.Context, c *Conn, env Envelope) {
	ctx, cancel := context.WithTimeout(connCtx, requestTimeout)
	defer cancel()

	var err error
	switch env.Type {
	case TypeCreateRoom:
		err = h.createRoom(ctx, c, env)
	case TypeJoinRoom:
		err = h.joinRoom(ctx, c, env)
	case TypeSubmitSolution:
		err = h.submitSolution(ctx, c, env)
	case TypeExecuteCode:
		err = h.executeCode(ctx, c, env)
	case TypePracticeChallenges:
		err = h.practiceChallenges(ctx, c, env)
	case TypeSubmitPractice:
		err = h.submitPractice(ctx, c, env)
	case TypeRequestRematch:
		err = h.requestRematch(ctx, c, env)
	case TypeDeclineRematch:
		err = h.declineRematch(ctx, c, env)
	default:
		err = appErr.Newf(appErr.InvalidParams, "unknown message type %q", env.Type)
	}

	if err != nil {
		logger.Debug(ctx, "request failed",
			zap.String("type", env.Type), zap.Error(err))
		c.reply(env.Seq, TypeError, errorPayload(err))
	}
}

func (h *Handler) createRoom(ctx context.Context, c *Conn, env Envelope) error {
	var req CreateRoomRequest
	if err := decode(env.Payload, &req); err != nil {
		return err
	}
	r, err := h.duel.CreateRoom(ctx, room.Player{ID: c.ID, Name: playerName(req.PlayerName)}, req.Difficulty)
	if err != nil {
		return err
	}
	h.hub.Subscribe(r.ID, c.ID)
	return nil
}

func (h *Handler) joinRoom(ctx context.Context, c *Conn, env Envelope) error {
	var req JoinRoomRequest
	if err := decode(env.Payload, &req); err != nil {
		return err
	}
	roomID := strings.ToUpper(strings.TrimSpace(req.RoomID))
	ctx = context.WithValue(ctx, contextkey.RoomID, roomID)
	// Subscribe before joining so the join's own broadcasts reach us.
	h.hub.Subscribe(roomID, c.ID)
	if err := h.duel.JoinRoom(ctx, roomID, room.Player{ID: c.ID, Name: playerName(req.PlayerName)}); err != nil {
		h.hub.Unsubscribe(roomID, c.ID)
		return err
	}
	return nil
}

func (h *Handler) submitSolution(ctx context.Context, c *Conn, env Envelope) error {
	var req SubmitSolutionRequest
	if err := decode(env.Payload, &req); err != nil {
		return err
	}
	roomID := strings.ToUpper(strings.TrimSpace(req.RoomID))
	ctx = context.WithValue(ctx, contextkey.RoomID, roomID)
	return h.duel.Submit(ctx, roomID, c.ID, req.Code, req.Language)
}

func (h *Handler) executeCode(ctx context.Context, c *Conn, env Envelope) error {
	var req ExecuteCodeRequest
	if err := decode(env.Payload, &req); err != nil {
		return err
	}
	res := h.session.Execute(ctx, req.Code, req.Language, req.Stdin)
	c.reply(env.Seq, TypeExecutionResult, res)
	return nil
}

func (h *Handler) practiceChallenges(ctx context.Context, c *Conn, env Envelope) error {
	var req PracticeChallengesRequest
	if err := decode(env.Payload, &req); err != nil {
		return err
	}
	list, err := h.session.Challenges(ctx, c.ID, req.Difficulty, req.Limit)
	if err != nil {
		return err
	}
	c.reply(env.Seq, TypePracticeChallenges, list)
	return nil
}

func (h *Handler) submitPractice(ctx context.Context, c *Conn, env Envelope) error {
	var req SubmitPracticeRequest
	if err := decode(env.Payload, &req); err != nil {
		return err
	}
	res, err := h.session.Submit(ctx, c.ID, req.ChallengeID, req.Code, req.Language)
	if err != nil {
		return err
	}
	c.reply(env.Seq, TypePracticeResult, res)
	return nil
}

func (h *Handler) requestRematch(ctx context.Context, c *Conn, env Envelope) error {
	var req RematchRequest
	if err := decode(env.Payload, &req); err != nil {
		return err
	}
	return h.duel.RequestRematch(ctx, strings.ToUpper(strings.TrimSpace(req.RoomID)), c.ID, req.Difficulty)
}

func (h *Handler) declineRematch(ctx context.Context, c *Conn, env Envelope) error {
	var req RematchRequest
	if err := decode(env.Payload, &req); err != nil {
		return err
	}
	return h.duel.DeclineRematch(ctx, strings.ToUpper(strings.TrimSpace(req.RoomID)), c.ID)
}

func decode(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return appErr.Newf(appErr.InvalidParams, "missing payload")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return appErr.Wrapf(err, appErr.InvalidParams, "malformed payload")
	}
	return nil
}

func errorPayload(err error) ErrorPayload {
	e := appErr.GetError(err)
	return ErrorPayload{Code: int(e.Code), Message: e.Error()}
}

func playerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "anonymous"
	}
	if len(name) > 32 {
		name = name[:32]
	}
	return name
}
