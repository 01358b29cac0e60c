package router

import (
	"time"

	"topneum/internal/config"
	"topneum/internal/handler"
	"topneum/internal/infra"
	"topneum/internal/middleware"
	"topneum/internal/repository"
	"topneum/internal/service"
	"topneum/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

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
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Origenes()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// ── Infrastructure ───────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	cache := infra.NewCotizacionCache(rdb, cfg.CotizacionCacheTTL)

	// ── Repositories ─────────────────────────────────────────────────────────
	productoRepo := repository.NewProductoRepository(db)
	tarifaRepo := repository.NewTarifaRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	productoSvc := service.NewProductoService(productoRepo)
	tarifaSvc := service.NewTarifaService(tarifaRepo, productoRepo, dispatcher, cache)
	pedidoSvc := service.NewPedidoService(pedidoRepo, productoRepo, movimientoStockRepo, dispatcher)
	stockSvc := service.NewStockService(productoRepo, movimientoStockRepo)
	cotizacionSvc := service.NewCotizacionService(tarifaRepo, productoRepo, cache)

	// ── Handlers ─────────────────────────────────────────────────────────────
	tarifasH := handler.NewTarifasHandler(tarifaSvc)
	pedidosH := handler.NewPedidosHandler(pedidoSvc)
	stockH := handler.NewStockHandler(stockSvc)
	productosH := handler.NewProductosHandler(productoSvc, cotizacionSvc)
	consultaH := handler.NewConsultaPreciosHandler(cotizacionSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Storefront price check, no auth but rate limited per IP
	limitador := middleware.NewLimitador(cfg.PrecioRateLimit, time.Minute)
	go limitador.PurgarCada(5*time.Minute, nil)
	r.GET("/v1/precio/:codigo", limitador.Middleware(), consultaH.PrecioPorCodigo)

	// Protected routes. Administrators pass every RequireRole check.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		const (
			vendedor    = middleware.RolVendedor
			deposito    = middleware.RolDeposito
			integracion = middleware.RolIntegracion
		)

		tarifas := v1.Group("/tarifas")
		{
			tarifas.GET("", middleware.RequireRole(vendedor), tarifasH.Listar)
			tarifas.GET("/activa", middleware.RequireRole(vendedor), tarifasH.Activa)
			tarifas.GET("/:id", middleware.RequireRole(vendedor), tarifasH.ObtenerPorID)
			tarifas.GET("/:id/preview", middleware.RequireRole(), tarifasH.Preview)
			tarifas.POST("/preview", middleware.RequireRole(), tarifasH.PreviewParametros)
			tarifas.POST("", middleware.RequireRole(), tarifasH.Crear)
			tarifas.PATCH("/:id", middleware.RequireRole(), tarifasH.Actualizar)
			tarifas.POST("/:id/publicar", middleware.RequireRole(), tarifasH.Publicar)
		}

		pedidos := v1.Group("/pedidos")
		{
			pedidos.POST("", middleware.RequireRole(vendedor), pedidosH.Crear)
			pedidos.GET("", middleware.RequireRole(vendedor, deposito), pedidosH.Listar)
			pedidos.GET("/:id", middleware.RequireRole(vendedor, deposito), pedidosH.ObtenerPorID)
			pedidos.PATCH("/:id/estado", middleware.RequireRole(vendedor, deposito), pedidosH.CambiarEstado)
		}

		stock := v1.Group("/stock")
		{
			stock.PUT("/sync", middleware.RequireRole(integracion, deposito), stockH.Sincronizar)
			stock.POST("/sync/lote", middleware.RequireRole(integracion, deposito), stockH.SincronizarLote)
			stock.GET("/movimientos", middleware.RequireRole(deposito), stockH.ListarMovimientos)
		}

		productos := v1.Group("/productos")
		{
			productos.GET("", middleware.RequireRole(vendedor, deposito), productosH.Listar)
			productos.GET("/:id", middleware.RequireRole(vendedor, deposito), productosH.ObtenerPorID)
			productos.GET("/:id/cotizacion", middleware.RequireRole(vendedor), productosH.Cotizacion)
			productos.POST("", middleware.RequireRole(), productosH.Crear)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
