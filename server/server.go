package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"MoisHub/config"
	"MoisHub/core/auth"
	"MoisHub/core/ratelimit"
	"MoisHub/core/smule"
	"MoisHub/db"
	"MoisHub/logger"
	"MoisHub/model"
	"MoisHub/repository"
	"MoisHub/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	defer logger.Sync()

	auth.SetSecret(cfg.JWTSecret, cfg.JWTTTL)

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 初始化 MinIO 客户端
	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 评论模块由 GORM 管理
	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect GORM: %v", err)
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.Review{}, &model.ReviewLike{}); err != nil {
		log.Fatalf("Failed to migrate review tables: %v", err)
	}

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer db.CloseRedis()
	log.Println("Successfully connected to Redis")

	trackRepo := repository.NewMySQLTrackRepository(db.DB)
	userRepo := repository.NewMySQLUserRepository(db.DB)
	adminRepo := repository.NewMySQLAdminRepository(db.DB)
	reviewRepo := repository.NewGormReviewRepository(db.GormDB)

	limiter := ratelimit.New()
	smuleClient := smule.NewClient()

	// 初始化处理器
	apiHandler := NewAPIHandler(trackRepo, userRepo, reviewRepo, adminRepo, limiter, smuleClient, cfg)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Retry-After")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// 曲目相关的API端点
	router.HandleFunc("/api/tracks", apiHandler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/play", apiHandler.PlayTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/upload", apiHandler.AuthMiddleware(apiHandler.UploadTrackHandler)).Methods(http.MethodPost)

	// 评论与点赞
	router.HandleFunc("/api/tracks/{id}/reviews", apiHandler.ListReviewsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/reviews", apiHandler.AuthMiddleware(apiHandler.AddReviewHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/reviews/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteReviewHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/reviews/{id}/like", apiHandler.AuthMiddleware(apiHandler.ToggleLikeHandler)).Methods(http.MethodPost)

	// 用户资料
	router.HandleFunc("/api/me", apiHandler.AuthMiddleware(apiHandler.MeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/me/settings", apiHandler.AuthMiddleware(apiHandler.UpdateSettingsHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/users/{username}", apiHandler.GetProfileHandler).Methods(http.MethodGet)

	// Smule 导入
	router.HandleFunc("/api/smule/import", apiHandler.AuthMiddleware(apiHandler.SmuleImportHandler)).Methods(http.MethodPost)

	// 管理员审核队列
	router.HandleFunc("/api/moderation/tracks", apiHandler.AdminMiddleware(apiHandler.ModerationQueueHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/moderation/tracks/{id}/status", apiHandler.AdminMiddleware(apiHandler.SetTrackStatusHandler)).Methods(http.MethodPut)

	// 添加MinIO文件服务路由
	router.PathPrefix("/files/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectPath := strings.TrimPrefix(r.URL.Path, "/files/")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		object, err := storage.GetObject(ctx, objectPath)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer object.Close()

		var contentType string
		if strings.HasPrefix(objectPath, "covers/") {
			contentType = "image/jpeg"
		} else if strings.HasPrefix(objectPath, "audio/") {
			contentType = "audio/mpeg"
		} else {
			contentType = "application/octet-stream"
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年

		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("MinIO 文件服务失败", logger.String("path", objectPath), logger.ErrorField(err))
		}
	})

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		log.Printf("Server starting on %s...", cfg.ServerAddr)
		log.Println("Register via POST /api/auth/register, login via POST /api/auth/login")
		log.Println("Upload tracks via POST /api/upload")
		log.Println("Browse the feed via GET /api/tracks")
		log.Println("Moderate via /api/moderation/tracks endpoints")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号
	<-stop
	log.Println("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
