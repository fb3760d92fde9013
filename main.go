package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"RoomieChat/data/database/mgo/mongoutil"
	"RoomieChat/global"
	"RoomieChat/logger"
	mid "RoomieChat/middleware"
	chathandler "RoomieChat/module/chat/handler"
	chatstore "RoomieChat/module/chat/store"
	usersvc "RoomieChat/module/user/service"
	chatsvc "RoomieChat/service/chat"
	"RoomieChat/service/relay"
	"RoomieChat/service/storage"
	"RoomieChat/tools/ids"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := global.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ids.SetNodeID(cfg.NodeID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mongoCli, err := mongoutil.NewMongoDB(ctx, &mongoutil.Config{
		Uri:         cfg.MongoURI,
		Database:    cfg.MongoDatabase,
		MaxPoolSize: cfg.MongoPoolSize,
	})
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}

	if err := storage.InitRedis(storage.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		// presence still works per-gateway without the mirror
		logger.Warnf("[boot] redis unavailable, presence mirror disabled: %v", err)
	}

	var rly *relay.Relay
	if len(cfg.NatsServers) > 0 {
		rly, err = relay.Dial(relay.Config{
			Servers:   cfg.NatsServers,
			Name:      "roomiechat-" + cfg.GatewayID,
			GatewayID: cfg.GatewayID,
		})
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer rly.Close()
	}

	db := mongoCli.GetDB()
	store := chatstore.NewStore(db)
	dir := usersvc.NewDirectory(db)
	srv := chatsvc.NewServer(cfg, store, dir, rly)
	h := chathandler.New(srv)

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/ws", srv.HandleWS)

	mid.GET(api, "/messages/history/:other", h.History, mid.RouteOpt{IsAuth: true})
	mid.GET(api, "/messages/contacts", h.Contacts, mid.RouteOpt{IsAuth: true})

	mid.POST(api, "/groups", h.CreateGroup, mid.RouteOpt{IsAuth: true})
	mid.PUT(api, "/groups/:id", h.RenameGroup, mid.RouteOpt{IsAuth: true})
	mid.DELETE(api, "/groups/:id", h.DeleteGroup, mid.RouteOpt{IsAuth: true})
	mid.GET(api, "/groups/:id/messages", h.GroupMessages, mid.RouteOpt{IsAuth: true})
	mid.POST(api, "/groups/:id/members/:uid", h.AddMember, mid.RouteOpt{IsAuth: true})
	mid.DELETE(api, "/groups/:id/members/:uid", h.RemoveMember, mid.RouteOpt{IsAuth: true})
	mid.GET(api, "/groups/:id/members/:uid", h.Membership, mid.RouteOpt{IsAuth: true})
	mid.GET(api, "/users/:id/groups", h.UserGroups, mid.RouteOpt{IsAuth: true})

	logger.Infof("[boot] gateway=%s listening on :%d", cfg.GatewayID, cfg.Port)
	if err := r.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
