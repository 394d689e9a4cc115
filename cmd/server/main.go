package main

import (
	"context"
	"log"
	"time"

	"pagesmith-backend/internal/chat"
	"pagesmith-backend/internal/config"
	"pagesmith-backend/internal/db"
	"pagesmith-backend/internal/httpapi"
	"pagesmith-backend/internal/store/rabbitmq"
	"pagesmith-backend/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	db.AutoMigrate(gdb)

	// redis is an advisory fast path; run without it if unreachable
	var dedup chat.DedupMarker
	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rds.Ping(pingCtx); err != nil {
		log.Printf("redis unavailable, dedup falls back to db only err=%v", err)
	} else {
		dedup = rds
	}
	cancel()

	// generation events are best effort; the relay works without a broker
	var events chat.EventPublisher
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Printf("rabbitmq unavailable, generation events disabled err=%v", err)
	} else {
		events = pub
		defer pub.Close()
	}

	r := httpapi.NewRouter(gdb, cfg, dedup, events)

	log.Printf("server started port=%s provider=%s", cfg.Port, cfg.AIProvider)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
