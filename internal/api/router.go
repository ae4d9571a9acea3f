package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/api/handler"
	"github.com/qs3c/inbox_premium_server/internal/api/middleware"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

type Router struct {
	premiumHandler   *handler.PremiumHandler
	billingHandler   *handler.BillingHandler
	userHandler      *handler.UserHandler
	creditHandler    *handler.CreditHandler
	ruleHandler      *handler.RuleHandler
	modelsHandler    *handler.ModelsHandler
	websocketHandler *handler.WebSocketHandler
	premiumService   *service.PremiumService
	cfg              *config.Config
}

func NewRouter(
	premiumHandler *handler.PremiumHandler,
	billingHandler *handler.BillingHandler,
	userHandler *handler.UserHandler,
	creditHandler *handler.CreditHandler,
	ruleHandler *handler.RuleHandler,
	modelsHandler *handler.ModelsHandler,
	websocketHandler *handler.WebSocketHandler,
	premiumService *service.PremiumService,
	cfg *config.Config,
) *Router {
	return &Router{
		premiumHandler:   premiumHandler,
		billingHandler:   billingHandler,
		userHandler:      userHandler,
		creditHandler:    creditHandler,
		ruleHandler:      ruleHandler,
		modelsHandler:    modelsHandler,
		websocketHandler: websocketHandler,
		premiumService:   premiumService,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID(), middleware.Logger())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	{
		// Lemon Squeezy 回调，签名校验代替登录
		api.POST("/billing/webhook", r.billingHandler.Webhook)

		// 公开接口
		api.GET("/models", r.modelsHandler.List)

		pricing := api.Group("/premium")
		pricing.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			pricing.GET("/pricing", r.premiumHandler.Pricing)
		}

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.GET("/ws", r.websocketHandler.Handle)

			premium := authenticated.Group("/premium")
			{
				premium.GET("/status", r.premiumHandler.Status)
				premium.POST("/switch", r.premiumHandler.SwitchPlan)
				premium.POST("/seats", r.premiumHandler.UpdateSeats)
			}

			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
				user.PUT("/ai-settings", r.userHandler.UpdateAISettings)
				user.GET("/api-key", r.userHandler.GetAPIKey)
				user.PUT("/cold-email-blocker",
					middleware.RequireFeature(r.premiumService, middleware.FeatureColdEmail),
					r.userHandler.UpdateColdEmailBlocker)
			}

			unsubscribe := authenticated.Group("/unsubscribe")
			{
				unsubscribe.GET("/credits", r.creditHandler.Get)
				unsubscribe.POST("/credits/use",
					middleware.RequireFeature(r.premiumService, middleware.FeatureUnsubscribe),
					r.creditHandler.Use)
			}

			rules := authenticated.Group("/rules")
			rules.Use(middleware.RequireFeature(r.premiumService, middleware.FeatureAI))
			{
				rules.GET("", r.ruleHandler.List)
				rules.POST("", r.ruleHandler.Create)
				rules.GET("/:id", r.ruleHandler.Get)
				rules.PUT("/:id", r.ruleHandler.Update)
				rules.DELETE("/:id", r.ruleHandler.Delete)
			}
		}
	}

	return engine
}
