package chat

import (
	"RoomieChat/global"
	"RoomieChat/logger"
	chatstore "RoomieChat/module/chat/store"
	usersvc "RoomieChat/module/user/service"
	"RoomieChat/service/relay"
	"RoomieChat/service/storage"
	"RoomieChat/tools/safe"
)

// Server wires the registry, presence, fanout and the two send paths into
// one gateway instance.
type Server struct {
	cfg *global.AppConfig
	reg *Registry
	fan *Fanout

	presence *Presence
	Direct   *DirectService
	Groups   *GroupService

	relay *relay.Relay
}

func NewServer(cfg *global.AppConfig, st *chatstore.Store, dir usersvc.Directory, rly *relay.Relay) *Server {
	s := &Server{cfg: cfg, reg: NewRegistry(), relay: rly}

	s.fan = NewFanout(cfg.FanoutWorkers, cfg.FanoutQueue, func(c *Client) {
		// broadcast must not stall on one dead receiver; evict and move on
		safe.Go(func() { s.drop(c) })
	})
	s.presence = NewPresence(s.reg, s.fan, cfg.GatewayID, cfg.PresenceTTL)
	s.reg.OnEvict(func(c *Client) { s.presence.WentOffline(c.UserID) })

	push := &gatewayPusher{reg: s.reg, relay: rly, gwID: cfg.GatewayID}
	s.Direct = NewDirectService(st, dir, push)
	s.Groups = NewGroupService(st, dir, push)

	if rly != nil {
		if err := rly.SubscribeDeliver(func(userID int64, payload []byte) {
			s.reg.Send(userID, payload)
		}); err != nil {
			logger.Errorf("[server] relay subscribe: %v", err)
		}
	}
	return s
}

func (s *Server) Registry() *Registry { return s.reg }

// drop removes a connection and, when it was still current, announces the
// user offline. Safe to call more than once per client.
func (s *Server) drop(c *Client) {
	if s.reg.Unregister(c.UserID, c.ConnID) {
		s.presence.WentOffline(c.UserID)
	}
	c.Close()
}

// gatewayPusher delivers locally, falling back to the cross-gateway relay
// when the presence mirror places the user on another node.
type gatewayPusher struct {
	reg   *Registry
	relay *relay.Relay
	gwID  string
}

func (p *gatewayPusher) Push(userID int64, payload []byte) DeliveryResult {
	res := p.reg.Send(userID, payload)
	if res != NotConnected || p.relay == nil || !storage.Ready() {
		return res
	}
	gw, online, err := storage.PresenceLookup(userID)
	if err != nil || !online || gw == p.gwID {
		return NotConnected
	}
	if err := p.relay.PublishDeliver(gw, userID, payload); err != nil {
		logger.Warnf("[push] relay to gw=%s user=%d: %v", gw, userID, err)
		return NotConnected
	}
	return Delivered
}
