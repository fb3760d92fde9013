package chat

import (
	"time"

	"RoomieChat/logger"
	"RoomieChat/service/storage"
)

// Presence announces online/offline transitions to every other connected
// user and mirrors the state into Redis so other gateways and the REST
// layer can answer "is this user online". Events are transient and
// best-effort; nothing here is transactional with message delivery.
type Presence struct {
	reg       *Registry
	fan       *Fanout
	gatewayID string
	ttl       time.Duration
}

func NewPresence(reg *Registry, fan *Fanout, gatewayID string, ttl time.Duration) *Presence {
	return &Presence{reg: reg, fan: fan, gatewayID: gatewayID, ttl: ttl}
}

// WentOnline broadcasts presence(online) to all peers except the subject.
func (p *Presence) WentOnline(userID int64) {
	p.broadcast(userID, true)
	if storage.Ready() {
		if err := storage.PresenceOnline(userID, p.gatewayID, p.ttl); err != nil {
			logger.Warnf("[presence] mirror online user=%d: %v", userID, err)
		}
	}
}

// WentOffline broadcasts presence(offline) and clears the mirror.
func (p *Presence) WentOffline(userID int64) {
	p.broadcast(userID, false)
	if storage.Ready() {
		if err := storage.PresenceOffline(userID); err != nil {
			logger.Warnf("[presence] mirror offline user=%d: %v", userID, err)
		}
	}
}

// Refresh renews the mirror TTL; called from the heartbeat path.
func (p *Presence) Refresh(userID int64) {
	if storage.Ready() {
		if err := storage.PresenceOnline(userID, p.gatewayID, p.ttl); err != nil {
			logger.Warnf("[presence] refresh user=%d: %v", userID, err)
		}
	}
}

func (p *Presence) broadcast(subject int64, online bool) {
	frame := BuildPresence(subject, online, time.Now().UTC())
	all := p.reg.Snapshot()
	peers := all[:0]
	for _, c := range all {
		if c.UserID != subject {
			peers = append(peers, c)
		}
	}
	p.fan.Broadcast(peers, frame)
}
