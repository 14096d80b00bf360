package router

import (
	"time"

	"printlog/internal/config"
	"printlog/internal/handler"
	"printlog/internal/middleware"
	"printlog/internal/repository"
	"printlog/internal/service"
	"printlog/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	supplyRepo := repository.NewSupplyRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	stockSvc := service.NewStockService(supplyRepo, movementRepo, dispatcher)
	orderSvc := service.NewOrderService(orderRepo, supplyRepo, dispatcher, cfg.ArchiveRetentionDays)

	// ── Handlers ─────────────────────────────────────────────────────────────
	suppliesH := handler.NewSuppliesHandler(stockSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		supplies := v1.Group("/supplies")
		{
			supplies.POST("", suppliesH.Register)
			supplies.GET("", suppliesH.List)
			supplies.GET("/:id", suppliesH.Get)
			supplies.GET("/:id/movements", suppliesH.Movements)
			supplies.POST("/:id/replenish", suppliesH.Replenish)
			supplies.POST("/:id/deduct", suppliesH.Deduct)
			supplies.PUT("/:id", suppliesH.Update)
			supplies.DELETE("/:id", suppliesH.Delete)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", ordersH.Create)
			orders.GET("", ordersH.List)
			orders.GET("/archived", ordersH.ListArchived)
			orders.GET("/:id", ordersH.Get)
			orders.PUT("/:id", ordersH.Update)
			orders.PATCH("/:id/status", ordersH.Move)
			orders.DELETE("/:id", ordersH.Delete)
		}
	}

	return r
}
