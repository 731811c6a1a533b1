package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podcast_studio_v1_202608/internal/controller"
	"podcast_studio_v1_202608/internal/middleware"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Auth    *controller.AuthController
	Session *controller.SessionController
	Prompt  *controller.PromptController
	Usage   *controller.UsageController
}

// SetupRouter 创建引擎并注册所有路由
func SetupRouter(ctls *Controllers) *gin.Engine {
	r := gin.Default()
	InitRoutes(r, ctls)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls *Controllers) {
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		// GET /api/health
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"code": 200, "message": "ok"})
		})

		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/login", ctls.Auth.Login)
			auth.GET("/check", middleware.AuthRequired(), ctls.Auth.Check)
		}

		// 业务路由，配置主密码后全部需要登录
		protected := api.Group("", middleware.AuthRequired())
		{
			protected.POST("/generate-content", ctls.Session.GenerateContent)
			protected.POST("/process-audio", ctls.Session.ProcessAudio)

			sessions := protected.Group("/sessions")
			{
				sessions.GET("/:session_id", ctls.Session.GetSession)
				sessions.GET("/:session_id/usage", ctls.Usage.GetSessionUsage)
			}

			protected.GET("/usage-summary", ctls.Usage.GetUsageSummary)

			prompts := protected.Group("/prompts")
			{
				prompts.GET("", ctls.Prompt.GetList)
				prompts.GET("/:name", ctls.Prompt.GetDetail)
				prompts.PUT("", ctls.Prompt.Update)
			}
		}
	}
}

// corsMiddleware 单机自用服务，放开跨域方便前端本地开发
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
