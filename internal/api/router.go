package api

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/handler"
	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/middleware"
	"github.com/jengzang/anchor-locator-go/internal/observability"
	"github.com/jengzang/anchor-locator-go/internal/service"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	DB          *sql.DB
	Scans       *service.ScanService
	Anchors     *service.AnchorService
	Buildings   *service.BuildingService
	POIs        *service.POIService
	Auth        *service.AuthService
	Positioning *service.PositioningService
	Metrics     *observability.PositioningCollector
	Logger      logging.Logger

	// UploadLimiter throttles scan uploads per client IP; nil disables it.
	UploadLimiter *middleware.RateLimiter
}

// SetupRouter 设置路由
func SetupRouter(s Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(s.Logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	scans := handler.NewScanHandler(s.Scans)
	anchors := handler.NewAnchorHandler(s.Anchors)
	buildings := handler.NewBuildingHandler(s.Buildings)
	pois := handler.NewPOIHandler(s.POIs)
	authH := handler.NewAuthHandler(s.Auth)
	admin := handler.NewAdminHandler(s.Positioning)
	health := handler.NewHealthHandler(s.DB)

	requireAuth := middleware.Auth(s.Auth)
	requireAdmin := []gin.HandlerFunc{requireAuth, middleware.RequireSuperuser()}

	// 健康检查
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.GET("/me", requireAuth, authH.Me)
	}

	// API 路由组
	v1 := r.Group("/api/v1")
	{
		v1.POST("/scans", middleware.RateLimit(s.UploadLimiter), scans.Upload)

		v1.GET("/ap/:bssid", anchors.GetByBSSID)
		anchorGroup := v1.Group("/anchors")
		{
			anchorGroup.GET("", anchors.List)
			anchorGroup.GET("/:id", anchors.Get)
			anchorGroup.PUT("/:id", requireAuth, anchors.Update)
			anchorGroup.DELETE("/:id", append(requireAdmin, anchors.Delete)...)
			anchorGroup.POST("/:id/recalculate", append(requireAdmin, anchors.Recalculate)...)
		}

		buildingGroup := v1.Group("/buildings")
		{
			buildingGroup.GET("", buildings.List)
			buildingGroup.POST("", requireAuth, buildings.Create)
			buildingGroup.GET("/:id", buildings.Get)
			buildingGroup.GET("/:id/locate", buildings.Locate)
			buildingGroup.GET("/:id/floors", buildings.ListFloorPolygons)
			buildingGroup.POST("/:id/floors", requireAuth, buildings.CreateFloorPolygon)
			buildingGroup.PUT("/:id/floors/:polygon_id", requireAuth, buildings.UpdateFloorPolygon)
			buildingGroup.DELETE("/:id/floors/:polygon_id", requireAuth, buildings.DeleteFloorPolygon)
		}

		poiGroup := v1.Group("/pois")
		{
			poiGroup.GET("", pois.List)
			poiGroup.GET("/:id", pois.Get)
			poiGroup.POST("", requireAuth, pois.Create)
			poiGroup.PUT("/:id", requireAuth, pois.Update)
			poiGroup.DELETE("/:id", requireAuth, pois.Delete)
		}

		v1.GET("/map/:building_id", pois.Map)
		v1.GET("/route", pois.Route)

		adminGroup := v1.Group("/admin", requireAdmin...)
		{
			adminGroup.POST("/recalculate", admin.Recalculate)
			adminGroup.GET("/runs", admin.Runs)
		}
	}

	return r
}
