package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/jhalickman/live-poll/internal/handlers"
	"github.com/jhalickman/live-poll/internal/security"
	"github.com/jhalickman/live-poll/internal/services"
	_ "github.com/jhalickman/live-poll/pb_migrations"
	"github.com/jhalickman/live-poll/utils"
)

func main() {
	pb := pocketbase.New()

	cfg := utils.LoadConfig()

	registry := services.NewRegistry()
	metrics := services.NewMetrics()

	pb.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.Bind(utils.AuthCookieMiddleware())

		store := services.NewPollStore(se.App)
		coordinator := services.NewCoordinator(store, registry, metrics)

		origins := security.NewOriginValidator(cfg.AllowedOrigins)
		wsHandler := handlers.NewWSHandler(coordinator, origins)
		pollHandlers := handlers.NewPollHandlers(store)

		se.Router.GET("/ws", wsHandler.HandleWebSocket)
		se.Router.POST("/api/live/polls", pollHandlers.CreatePoll)
		se.Router.GET("/api/live/polls/{id}/results", pollHandlers.Results)
		se.Router.GET("/api/live/metrics", handlers.HandleMetrics(metrics, registry))
		se.Router.GET("/api/live/health", handlers.HandleHealth(metrics, registry))

		return se.Next()
	})

	if err := pb.Start(); err != nil {
		log.Fatal(err)
	}
}
