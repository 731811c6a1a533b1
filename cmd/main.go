package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"podcast_studio_v1_202608/internal/controller"
	"podcast_studio_v1_202608/internal/middleware"
	"podcast_studio_v1_202608/internal/model"
	"podcast_studio_v1_202608/internal/repository"
	"podcast_studio_v1_202608/internal/router"
	"podcast_studio_v1_202608/internal/service"
	"podcast_studio_v1_202608/internal/task"
	"podcast_studio_v1_202608/pkg/database"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 写入默认提示词模板
	seedTemplates(deps)

	// 4. 启动定时任务
	initTasks()

	// 5. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 6. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Session    repository.SessionRepository
	Transcript repository.TranscriptRepository
	Template   repository.PromptTemplateRepository
	Usage      repository.UsageRepository
	Content    repository.GeneratedContentRepository
}

// Services 服务集合
type Services struct {
	OpenAI     *service.OpenAIService
	Transcribe *service.TranscribeService
	Storage    service.StorageProvider
	Content    *service.ContentService
	Usage      *service.UsageService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	return database.InitDB(
		getEnv("DATABASE_URL", ""),
		getEnv("SQLITE_PATH", ""),
		// Session
		&model.Session{}, &model.Transcript{}, &model.Guest{},
		// Prompt & Usage
		&model.PromptTemplate{}, &model.PromptUsage{}, &model.TokenUsage{}, &model.UsageSummary{},
		// Content
		&model.GeneratedContent{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Session:    repository.NewSessionRepository(db),
		Transcript: repository.NewTranscriptRepository(db),
		Template:   repository.NewPromptTemplateRepository(db),
		Usage:      repository.NewUsageRepository(db),
		Content:    repository.NewGeneratedContentRepository(db),
	}

	// -------- 认证配置 --------
	authCfg := middleware.DefaultAuthConfig()
	authCfg.MasterPasswordHash = getEnv("MASTER_PASSWORD_HASH", "")
	if secret := getEnv("JWT_SECRET", ""); secret != "" {
		authCfg.SecretKey = secret
	}
	middleware.SetAuthConfig(authCfg)
	if !middleware.AuthEnabled() {
		log.Println("警告: 未配置 MASTER_PASSWORD_HASH，接口免认证运行")
	}

	// -------- 外部服务 --------
	openaiSvc := service.NewOpenAIService(&service.OpenAIConfig{
		APIKey: getEnv("OPENAI_API_KEY", ""),
		Model:  getEnv("OPENAI_MODEL", ""),
	})
	transcribeSvc := service.NewTranscribeService(&service.TranscribeConfig{
		APIKey: getEnv("ASSEMBLYAI_API_KEY", ""),
	})
	storage := initStorage()

	// -------- 业务服务 --------
	services := &Services{
		OpenAI:     openaiSvc,
		Transcribe: transcribeSvc,
		Storage:    storage,
		Usage:      service.NewUsageService(repos.Usage),
	}
	services.Content = service.NewContentService(
		repos.Session, repos.Template, repos.Usage, repos.Content,
		service.NewPromptRenderer(), openaiSvc,
	)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth: controller.NewAuthController(),
		Session: controller.NewSessionController(
			services.Content, services.Transcribe, services.Storage,
			repos.Session, repos.Transcript, repos.Content,
		),
		Prompt: controller.NewPromptController(repos.Template),
		Usage:  controller.NewUsageController(services.Usage),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initStorage 初始化音频存储
func initStorage() service.StorageProvider {
	storage, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "local"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
	})
	if err != nil {
		log.Fatalf("存储服务初始化失败: %v", err)
	}
	return storage
}

// seedTemplates 首次启动写入默认模板，重复执行无副作用
func seedTemplates(deps *Dependencies) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := deps.Repos.Template.Seed(ctx); err != nil {
		log.Fatalf("初始化默认模板失败: %v", err)
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks() {
	// 上传目录清理（仅本地存储需要）
	if getEnv("STORAGE_PROVIDER", "local") == "local" {
		cleaner := task.NewUploadCleaner(getEnv("UPLOAD_DIR", "./uploads"))
		cleaner.Start()
	}

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
