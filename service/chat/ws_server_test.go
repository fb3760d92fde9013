package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"RoomieChat/global"
	chatstore "RoomieChat/module/chat/store"
	"RoomieChat/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func testConfig() *global.AppConfig {
	return &global.AppConfig{
		GatewayID:     "gw-test",
		SendQueueSize: 16,
		WriteTimeout:  2 * time.Second,
		PongTimeout:   60 * time.Second,
		PingInterval:  30 * time.Second,
		PresenceTTL:   time.Minute,
		FanoutWorkers: 2,
		FanoutQueue:   64,
	}
}

// newWSFixture starts a gateway on an httptest server. The persistence
// collaborators are left unwired, so only transport and presence behavior
// may be exercised.
func newWSFixture(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	global.Conf.JWTSecret = "ws-test-secret"

	srv := NewServer(testConfig(), &chatstore.Store{}, newFakeDirectory(), nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/ws", srv.HandleWS)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()
	token, _, err := security.Generate(security.DefaultOptions(global.JwtSecret()), userID)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestHandleWSRejectsMissingToken(t *testing.T) {
	req := require.New(t)
	_, ts := newWSFixture(t)

	resp, err := http.Get(ts.URL + "/api/ws")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWSRegistersAuthenticatedUser(t *testing.T) {
	req := require.New(t)
	srv, ts := newWSFixture(t)

	_ = dialWS(t, ts, 7)

	req.Eventually(func() bool {
		_, ok := srv.Registry().Lookup(7)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleWSEchoesErrorOnMalformedFrame(t *testing.T) {
	req := require.New(t)
	_, ts := newWSFixture(t)
	conn := dialWS(t, ts, 7)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	frame := readFrame(t, conn)
	req.Equal("error", frame["status"])
	req.Equal("invalid JSON format", frame["message"])

	// the connection survives a bad frame
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"content":"x"}`)))
	frame = readFrame(t, conn)
	req.Equal("error", frame["status"])
}

func TestHandleWSDeliversRegistryPush(t *testing.T) {
	req := require.New(t)
	srv, ts := newWSFixture(t)
	conn := dialWS(t, ts, 7)

	req.Eventually(func() bool {
		_, ok := srv.Registry().Lookup(7)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	req.Equal(Delivered, srv.Registry().Send(7, []byte(`{"type":"message"}`)))
	frame := readFrame(t, conn)
	req.Equal("message", frame["type"])
}

func TestHandleWSBroadcastsPresenceToPeers(t *testing.T) {
	req := require.New(t)
	srv, ts := newWSFixture(t)

	first := dialWS(t, ts, 1)
	req.Eventually(func() bool {
		_, ok := srv.Registry().Lookup(1)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	_ = dialWS(t, ts, 2)

	frame := readFrame(t, first)
	req.Equal("presence", frame["type"])
	req.Equal(float64(2), frame["user_id"])
	req.Equal(true, frame["is_online"])
}

func TestHandleWSSecondConnectionSupersedesFirst(t *testing.T) {
	req := require.New(t)
	srv, ts := newWSFixture(t)

	first := dialWS(t, ts, 7)
	req.Eventually(func() bool {
		_, ok := srv.Registry().Lookup(7)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	firstClient, _ := srv.Registry().Lookup(7)

	_ = dialWS(t, ts, 7)
	req.Eventually(func() bool {
		c, ok := srv.Registry().Lookup(7)
		return ok && c != firstClient
	}, 2*time.Second, 10*time.Millisecond)

	// the superseded socket is closed by the gateway
	req.NoError(first.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := first.ReadMessage()
	req.Error(err)

	// still exactly one live session
	req.Equal(1, srv.Registry().Len())
}
