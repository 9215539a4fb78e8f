package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/garbage-collection-service/internal/config"
	"github.com/iliyamo/garbage-collection-service/internal/database"
	"github.com/iliyamo/garbage-collection-service/internal/handler"
	"github.com/iliyamo/garbage-collection-service/internal/middleware"
	"github.com/iliyamo/garbage-collection-service/internal/queue"
	"github.com/iliyamo/garbage-collection-service/internal/repository"
	"github.com/iliyamo/garbage-collection-service/internal/repository/memory"
	"github.com/iliyamo/garbage-collection-service/internal/router"
	queue_publisher "github.com/iliyamo/garbage-collection-service/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	var (
		users    handler.UserStore
		tokens   handler.TokenStore
		requests handler.RequestStore
	)
	if cfg.Store == "memory" {
		log.Println("using in-memory store")
		store := memory.NewStore()
		users = store.Users()
		tokens = store.Tokens()
		requests = store.Requests()
	} else {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		users = repository.NewUserRepo(db)
		tokens = repository.NewTokenRepo(db)
		requests = repository.NewRequestRepo(db)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	reqH := handler.NewRequestHandler(cfg, requests, users, queue_publisher.PublishRequestLifecycle)
	userH := handler.NewUserAdminHandler(cfg, users, requests)

	e := echo.New()
	e.Use(rateMW)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCitizen(e, reqH, cfg.JWTSecret, cacheMW)
	router.RegisterWorker(e, reqH, cfg.JWTSecret, cacheMW)
	router.RegisterAdmin(e, reqH, userH, cfg.JWTSecret, cacheMW)
	router.RegisterRequestDetail(e, reqH, cfg.JWTSecret, cacheMW)

	// Lifecycle consumer runs for the life of the process and handles
	// broker reconnects internally.
	go func() {
		if err := queue.StartLifecycleConsumer(); err != nil {
			log.Printf("lifecycle consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s store=%s)", addr, cfg.Env, cfg.Store)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
