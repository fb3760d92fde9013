package chat

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"RoomieChat/global"
	"RoomieChat/logger"
	"RoomieChat/tools/errs"
	"RoomieChat/tools/ids"
	"RoomieChat/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request, binds the connection to the authenticated
// user and runs the read loop until the peer goes away.
func (s *Server) HandleWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		auth := c.GetHeader("Authorization")
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	userID, err := security.Verify(security.DefaultOptions(global.JwtSecret()), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid or missing token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("[ws] upgrade user=%d: %v", userID, err)
		return
	}

	client := NewClient(strconv.FormatInt(ids.Generate(), 10), userID, ws, s.cfg.SendQueueSize)
	prev := s.reg.Register(client)
	if prev != nil {
		// superseded session: the old handle is invalid from this point on
		prev.Close()
	}
	if prev == nil {
		s.presence.WentOnline(userID)
	} else {
		s.presence.Refresh(userID)
	}
	logger.Infof("[ws] connected user=%d conn=%s", userID, client.ConnID)

	go s.writePump(client)
	s.readLoop(client)
}

// readLoop consumes frames sequentially; ordering within one sender is the
// arrival order here.
func (s *Server) readLoop(c *Client) {
	defer s.drop(c)

	_ = c.WS.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	c.WS.SetPongHandler(func(string) error {
		_ = c.WS.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
		s.presence.Refresh(c.UserID)
		return nil
	})

	for {
		mt, data, err := c.WS.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warnf("[ws] read user=%d conn=%s: %v", c.UserID, c.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.handleFrame(c, data)
	}
}

func (s *Server) handleFrame(c *Client, data []byte) {
	in, err := ParseInbound(data)
	if err != nil {
		_ = c.Enqueue(BuildError(clientMessage(err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if in.IsGroup() {
		m, err := s.Groups.SendMessage(ctx, in.GroupID, c.UserID, in.Content)
		if err != nil {
			_ = c.Enqueue(BuildError(clientMessage(err)))
			return
		}
		_ = c.Enqueue(BuildAck(m))
		return
	}

	m, err := s.Direct.Send(ctx, c.UserID, in.ReceiverID, in.Content)
	if err != nil {
		_ = c.Enqueue(BuildError(clientMessage(err)))
		return
	}
	_ = c.Enqueue(BuildAck(m))
}

// writePump is the single writer for the connection. It drains the send
// queue and keeps the peer alive with pings.
func (s *Server) writePump(c *Client) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				_ = c.WS.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(s.cfg.WriteTimeout))
				return
			}
			if len(payload) == 0 {
				continue
			}
			if err := writeTextDeadline(c.WS, payload, s.cfg.WriteTimeout); err != nil {
				logger.Warnf("[ws] write user=%d conn=%s: %v", c.UserID, c.ConnID, err)
				s.drop(c)
				return
			}
		case <-ticker.C:
			if err := c.WS.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				s.drop(c)
				return
			}
		}
	}
}

// clientMessage maps an error to the text sent back on the socket. Coded
// errors surface their message; anything else stays opaque.
func clientMessage(err error) string {
	var ce *errs.CodeError
	if errs.As(err, &ce) {
		if ce.Code == errs.CodeStorage {
			return "internal server error"
		}
		if ce.Detail != "" {
			return ce.Detail
		}
		return ce.Msg
	}
	return "internal server error"
}
