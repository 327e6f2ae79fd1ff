package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/acmevents/palco-checkin/internal/config"
	"github.com/acmevents/palco-checkin/internal/database"
	"github.com/acmevents/palco-checkin/internal/handler"
	"github.com/acmevents/palco-checkin/internal/middleware"
	"github.com/acmevents/palco-checkin/internal/occupancy"
	"github.com/acmevents/palco-checkin/internal/queue"
	"github.com/acmevents/palco-checkin/internal/repository"
	"github.com/acmevents/palco-checkin/internal/router"
	"github.com/acmevents/palco-checkin/internal/seed"
	"github.com/acmevents/palco-checkin/internal/store"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	var deps router.Deps
	if cfg.StoreDriver == config.DriverFile {
		st, err := store.Open(cfg.StoreFile)
		if err != nil {
			log.Fatalf("open store file: %v", err)
		}
		deps.People = handler.NewPersonHandler(st, cfg)
		deps.Seats = handler.NewSeatMatrixHandler(st)
	} else {
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Bootstrap(ctx, db); err != nil {
			cancel()
			log.Fatalf("bootstrap schema: %v", err)
		}
		if err := seed.Run(ctx, db, cfg); err != nil {
			log.Printf("seed: %v", err) // non-fatal; an empty catalog still serves
		}
		cancel()

		engine := occupancy.NewEngine(db, cfg.GridRowOrder)
		people := handler.NewPersonHandler(repository.NewPersonRepo(db), cfg)
		people.ReleaseSeat = engine.ReleasePersonSeat
		deps.People = people
		deps.Palcos = handler.NewPalcoHandler(repository.NewPalcoRepo(db), repository.NewSeatRepo(db), engine)
		deps.Auth = handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db))

		// Redis is optional: without it the limiter and cache pass through.
		rdb := config.NewRedisClient()
		if rdb == nil {
			log.Println("redis unavailable; rate limiting and response cache disabled")
		}
		deps.RateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		deps.Cache = middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

		go queue.StartCheckinConsumer()
	}

	router.Register(e, cfg, deps)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s driver=%s)", addr, cfg.Env, cfg.StoreDriver)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
