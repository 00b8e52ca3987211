package server

import (
	"log"

	"backend-pedalhub/internal/auth"
	"backend-pedalhub/internal/config"
	"backend-pedalhub/internal/db"
	"backend-pedalhub/internal/metrics"
	"backend-pedalhub/internal/navigation"
	"backend-pedalhub/internal/notify"
	"backend-pedalhub/internal/routing"
	"backend-pedalhub/internal/storage"
	"backend-pedalhub/internal/stream"
	"backend-pedalhub/internal/tracking"
	"backend-pedalhub/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Storage storage.Backend
	Routing *routing.Client
	Notify  *notify.Client
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client, backend storage.Backend) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      pg,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient),
		Storage: backend,
		Routing: routing.NewClient(cfg.RoutingURL, cfg.RoutingTimeout, cfg.RoutingProfile),
		Notify:  notify.Init(redisClient),
	}

	registerRoutes(s)
	return s
}

func (s *Server) querier() db.TxQuerier {
	if s.DB == nil {
		return nil
	}
	return s.DB
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", metrics.Handler())
	if dir := s.Storage.LocalDir(); dir != "" {
		s.App.Static(storage.LocalURLPath, dir)
	}

	authSvc := auth.NewService(s.Cfg.JWTSecret)
	jwtMiddleware := auth.JWTMiddleware(authSvc)

	trips := trip.NewService(s.querier(), s.Storage)
	ctrl := tracking.NewController(tracking.Deps{
		Auth:     authSvc,
		Sessions: db.PoolSource{Pool: s.DB},
		NewStore: func(q db.TxQuerier) tracking.Store {
			return trip.NewService(q, s.Storage)
		},
		Corrector:  s.Routing,
		Broadcast:  s.Stream,
		Notifier:   s.Notify,
		WindowSize: s.Cfg.WindowSize,
	})
	translator, err := navigation.DefaultTranslator()
	if err != nil {
		log.Fatalf("navigation translations: %v", err)
	}
	guide := navigation.NewService(s.Routing, trips, translator)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	tracking.RegisterRoutes(s.App.Group("/tracking"), ctrl, jwtMiddleware)
	navigation.RegisterRoutes(s.App.Group("/navigation"), guide, jwtMiddleware)
	trip.RegisterRoutes(s.App.Group("/routes"), trips, jwtMiddleware)
	trip.RegisterReportRoutes(s.App.Group("/reports"), trips, jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.querier(), s.Storage), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
