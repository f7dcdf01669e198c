package http

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterOptions struct {
	CORSOrigins string // comma-separated, "*" allows any
	Limiter     Limiter
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logging(), Metrics())
	r.Use(corsMiddleware(opts.CORSOrigins))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			// публичные ручки логина — под лимитером
			auth.GET("/profile", RateLimit(opts.Limiter), h.Profile)
			auth.POST("/set-session", RateLimit(opts.Limiter), h.SetSession)

			auth.GET("/me", h.RequireAuth(), h.Me)
			auth.PUT("/profile", h.RequireAuth(), h.UpdateProfile)
			auth.POST("/logout", h.RequireAuth(), h.Logout)
		}

		api.POST("/requests", h.RequireAuth(), h.CreateRequest)
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/my", h.RequireAuth(), h.MyRequests)
		api.GET("/requests/:id", h.GetRequest)
		api.PUT("/requests/:id/status", h.RequireAuth(), h.UpdateRequestStatus)

		api.POST("/responses", h.RequireAuth(), h.CreateResponse)
		api.GET("/responses/request/:id", h.RequireAuth(), h.RequestResponses)
		api.GET("/responses/my", h.RequireAuth(), h.MyResponses)

		api.GET("/stats", h.Stats)
	}
	return r
}

func corsMiddleware(origins string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}
	if origins == "" || origins == "*" {
		// credentialed CORS запрещает wildcard origin, поэтому отражаем Origin
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = strings.Split(origins, ",")
	}
	return cors.New(cfg)
}
