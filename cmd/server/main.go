// Command server runs the trip-room API: HTTP endpoints, the websocket
// fan-out hub and the room activity consumer.
package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/config"
	"github.com/triproom/server/internal/database"
	"github.com/triproom/server/internal/event"
	"github.com/triproom/server/internal/handler"
	"github.com/triproom/server/internal/mail"
	"github.com/triproom/server/internal/queue"
	"github.com/triproom/server/internal/realtime"
	"github.com/triproom/server/internal/repository"
	"github.com/triproom/server/internal/router"
	"github.com/triproom/server/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if cfg.Env == "dev" {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	rlCfg := config.LoadRateLimitConfig()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	members := repository.NewMemberRepo(db)
	invites := repository.NewInviteRepo(db)
	itinerary := repository.NewItineraryRepo(db)
	checklist := repository.NewChecklistRepo(db)
	changes := repository.NewChangeLogRepo(db)

	// Realtime hub and side channels.
	hub := realtime.NewHub(log)
	go hub.Run()

	publisher := service.NewQueuePublisher(cfg.AMQPURL, log)
	defer publisher.Close()
	go queue.StartRoomActivityConsumer(cfg.AMQPURL, log)

	dispatcher := event.NewDispatcher(log, changes, hub, publisher)
	mailer := mail.NewMailer(&cfg, log)

	e := router.New(router.Deps{
		Cfg:       &cfg,
		Log:       log,
		Redis:     rdb,
		RateLimit: rlCfg,

		Health:    handler.NewHealthHandler(db),
		Auth:      handler.NewAuthHandler(users, tokens, &cfg, log),
		Rooms:     handler.NewRoomHandler(rooms, members, dispatcher, hub, log),
		Invites:   handler.NewInviteHandler(invites, rooms, members, mailer, dispatcher, cfg.InvitePepper, log),
		Itinerary: handler.NewItineraryHandler(itinerary, dispatcher, log),
		Checklist: handler.NewChecklistHandler(checklist, dispatcher, log),
		ChangeLog: handler.NewChangeLogHandler(changes, log),
		Realtime:  realtime.NewHandler(hub, members, cfg.JWTSecret),

		Members: members,
	})

	log.WithField("port", cfg.Port).Info("server starting")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
