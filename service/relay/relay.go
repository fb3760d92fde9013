// Package relay forwards outbound envelopes between gateway nodes over
// NATS. Each gateway subscribes to its own deliver subject; a send to a
// user homed on another node is published there instead of being dropped.
// Everything here is best-effort: the durable record is already written
// before the relay is consulted.
package relay

import (
	"encoding/json"
	"strings"
	"time"

	"RoomieChat/logger"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

const subjectPrefix = "chat.deliver."

type Config struct {
	Servers       []string
	Name          string
	GatewayID     string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

type Relay struct {
	nc   *nats.Conn
	gwID string
	sub  *nats.Subscription
}

// Envelope is the wire form of a relayed delivery.
type Envelope struct {
	UserID  int64  `json:"user_id"`
	Payload []byte `json:"payload"`
}

// Dial connects to NATS with unlimited reconnects.
func Dial(cfg Config) (*Relay, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.GatewayID == "" {
		return nil, errors.New("gateway id missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("[relay] nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Infof("[relay] nats reconnected: %s", c.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &Relay{nc: nc, gwID: cfg.GatewayID}, nil
}

func subjectFor(gatewayID string) string { return subjectPrefix + gatewayID }

// PublishDeliver hands an envelope to the gateway currently holding the
// user's connection.
func (r *Relay) PublishDeliver(gatewayID string, userID int64, payload []byte) error {
	if gatewayID == r.gwID {
		// local users never go through the relay
		return nil
	}
	data, err := json.Marshal(Envelope{UserID: userID, Payload: payload})
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}
	msg := nats.NewMsg(subjectFor(gatewayID))
	msg.Data = data
	if err := r.nc.PublishMsg(msg); err != nil {
		return errors.Wrap(err, "publish deliver")
	}
	return nil
}

// SubscribeDeliver consumes this gateway's deliver subject. The handler
// runs on the NATS callback goroutine and must not block.
func (r *Relay) SubscribeDeliver(handler func(userID int64, payload []byte)) error {
	sub, err := r.nc.Subscribe(subjectFor(r.gwID), func(m *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			logger.Warnf("[relay] bad envelope: %v", err)
			return
		}
		handler(env.UserID, env.Payload)
	})
	if err != nil {
		return errors.Wrap(err, "subscribe deliver")
	}
	r.sub = sub
	return nil
}

func (r *Relay) Close() {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	if r.nc != nil {
		r.nc.Close()
	}
}
