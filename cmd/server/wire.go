package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"courier-dispatch/config"
	"courier-dispatch/internal/admin"
	"courier-dispatch/internal/assignment"
	"courier-dispatch/internal/common"
	"courier-dispatch/internal/dispatch"
	"courier-dispatch/internal/driver"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/history"
	"courier-dispatch/internal/jwt"
	"courier-dispatch/internal/notify"
	"courier-dispatch/internal/order"
	"courier-dispatch/internal/pkg/retry"
	"courier-dispatch/internal/redis"
	pgstore "courier-dispatch/internal/repo/postgres"
)

type AppContext struct {
	DB     *sqlx.DB
	Config *config.Config
	Redis  *goredis.Client
	Router *gin.Engine

	// Infrastructure
	JWTService       *jwt.Service
	DriverCache      *redis.DriverLocationCache
	IdempotencyStore *redis.IdempotencyStore
	RateLimiter      *redis.RateLimiter
	Sink             notify.Sink
	AMQPSink         *notify.AMQPSink

	OrderHandler      *order.Handler
	DriverHandler     *driver.Handler
	AssignmentHandler *assignment.Handler
	DispatchHandler   *dispatch.Handler
	AdminHandler      *admin.Handler

	OrderService      order.Service
	DriverService     driver.Service
	AssignmentService assignment.Service
	DispatchService   dispatch.Service
	AdminService      admin.Service
}

func wireApp(cfg *config.Config) (*AppContext, error) {
	// ── Postgres ──
	db, err := pgstore.Connect(cfg.Postgres.DSN(), pgstore.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if err := pgstore.RunMigrationsUp(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	// ── Redis ──
	var rdb *goredis.Client
	if cfg.Redis.URL != "" {
		opts, err := goredis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis parse url: %w", err)
		}
		rdb = goredis.NewClient(opts)
	} else {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	// ── Notification sink ──
	// Status updates work without a broker; the sink falls back to logging.
	var (
		sink     notify.Sink = notify.LogSink{}
		amqpSink *notify.AMQPSink
	)
	if cfg.AMQP.URL != "" {
		amqpSink, err = notify.NewAMQPSink(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			slog.Warn("amqp unavailable, falling back to log sink", slog.Any("error", err))
		} else {
			sink = amqpSink
		}
	}

	// ── Infrastructure ──
	budget := retry.Budget{
		Attempts: cfg.Retry.Attempts,
		Delay:    time.Duration(cfg.Retry.DelayMillis) * time.Millisecond,
		Timeout:  time.Duration(cfg.Retry.TimeoutSeconds) * time.Second,
	}
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	driverCache := redis.NewDriverLocationCache(rdb, cfg.Driver.LocationCacheTTLSec)
	idempotencyStore := redis.NewIdempotencyStore(rdb, cfg.Driver.IdempotencyTTLSec)
	rateLimiter := redis.NewRateLimiter(rdb, cfg.RateLimiter.MaxRequests, cfg.RateLimiter.WindowSeconds)
	routingClient := geo.NewMapboxClient(cfg.Geo.RoutingBaseURL, cfg.Geo.RoutingToken, budget)
	geocoder := geo.NewGeocodingClient(cfg.Geo.GeocoderBaseURL, cfg.Geo.GeocoderAPIKey, budget)

	origin := common.Location{Lat: cfg.Zone.StoreLat, Lng: cfg.Zone.StoreLng}

	// ── Repositories & stores ──
	orderRepo := order.NewRepository()
	driverRepo := driver.NewRepository()
	historyRepo := history.NewRepository()
	store := pgstore.NewStore(db, budget)

	// ── Services ──
	orderService := order.NewService(orderRepo, historyRepo, db, order.ZoneConfig{
		StoreLat: cfg.Zone.StoreLat,
		StoreLng: cfg.Zone.StoreLng,
		RadiusKM: cfg.Zone.RadiusKM,
	}, sink)
	driverService := driver.NewService(driverRepo, db, driverCache, origin, cfg.Zone.RadiusKM)
	assignmentService := assignment.NewService(store, routingClient, sink)
	dispatchService := dispatch.NewService(driverService, orderService, assignmentService, geocoder, routingClient, origin)
	adminService := admin.NewService(orderService, driverService, assignmentService, origin)

	// ── Handlers ──
	orderHandler := order.NewHandler(orderService, assignmentService)
	driverHandler := driver.NewHandler(driverService)
	assignmentHandler := assignment.NewHandler(assignmentService)
	dispatchHandler := dispatch.NewHandler(dispatchService)
	adminHandler := admin.NewHandler(adminService)

	return &AppContext{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Router: gin.New(),

		JWTService:       jwtService,
		DriverCache:      driverCache,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      rateLimiter,
		Sink:             sink,
		AMQPSink:         amqpSink,

		OrderService:      orderService,
		DriverService:     driverService,
		AssignmentService: assignmentService,
		DispatchService:   dispatchService,
		AdminService:      adminService,

		OrderHandler:      orderHandler,
		DriverHandler:     driverHandler,
		AssignmentHandler: assignmentHandler,
		DispatchHandler:   dispatchHandler,
		AdminHandler:      adminHandler,
	}, nil
}

func (a *AppContext) Close() {
	a.DB.Close()
	a.Redis.Close()
	if a.AMQPSink != nil {
		a.AMQPSink.Close()
	}
}

func (a *AppContext) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	checks := map[string]string{}
	healthy := true

	if err := a.DB.PingContext(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": checks,
		"pool":   pgstore.GetPoolMetrics(a.DB),
	})
}
