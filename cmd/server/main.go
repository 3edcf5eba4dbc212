package main

import (
	"log"

	"blogify/internal/cache"
	"blogify/internal/config"
	"blogify/internal/db"
	"blogify/internal/handlers"
	"blogify/internal/logging"
	"blogify/internal/middleware"
	"blogify/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	conn, err := db.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Database init failed", zap.Error(err))
	}

	limiter, err := middleware.NewRateLimiter(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Rate limiter init failed", zap.Error(err))
	}
	defer limiter.Close()

	responseCache, err := cache.New(cfg.Server.CacheSize)
	if err != nil {
		logger.Fatal("Cache init failed", zap.Error(err))
	}

	mailer := services.NewMailService(cfg.SMTP, cfg.SiteURL, cfg.SiteName, logger)
	tokenService := services.NewTokenService(conn, mailer)
	commentService := services.NewCommentService(conn)

	var oauthConfig *oauth2.Config
	if cfg.Google.Enabled() {
		oauthConfig = handlers.NewGoogleOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.SiteURL)
	} else {
		logger.Warn("Google sign-in disabled: missing client credentials")
	}

	authHandler := handlers.NewAuthHandler(conn, tokenService, oauthConfig, logger)
	postHandler := handlers.NewPostHandler(conn, commentService, logger)
	commentHandler := handlers.NewCommentHandler(conn, commentService, logger)
	bookmarkHandler := handlers.NewBookmarkHandler(conn, logger)
	userHandler := handlers.NewUserHandler(conn, logger)
	categoryHandler := handlers.NewCategoryHandler(conn, logger)
	feedHandler := handlers.NewFeedHandler(conn, responseCache, cfg.SiteURL, cfg.SiteName, logger)

	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("blogify_session", store))
	r.Use(middleware.LoadUser(conn))

	// Public pages
	r.GET("/feed", feedHandler.RSS)
	r.GET("/auth/google", authHandler.GoogleLogin)
	r.GET("/auth/google/callback", authHandler.GoogleCallback)

	api := r.Group("/api")
	{
		// Registration and token lifecycle share the strict auth bucket.
		api.POST("/users", limiter.Limit(middleware.BucketAuth), authHandler.Register)

		auth := api.Group("/auth")
		{
			auth.POST("/login", limiter.Limit(middleware.BucketAuth), authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", limiter.Limit(middleware.BucketAuth), authHandler.ForgotPassword)
			auth.POST("/reset-password", limiter.Limit(middleware.BucketAuth), authHandler.ResetPassword)
			auth.POST("/verify-email", limiter.Limit(middleware.BucketAuth), authHandler.VerifyEmail)
			auth.POST("/send-verification", limiter.Limit(middleware.BucketAuth), middleware.AuthRequired(), authHandler.SendVerification)
		}

		api.GET("/posts", limiter.Limit(middleware.BucketAPI), postHandler.List)
		api.GET("/posts/search", limiter.Limit(middleware.BucketSearch), postHandler.Search)
		api.GET("/posts/:id", limiter.Limit(middleware.BucketAPI), postHandler.Get)
		api.POST("/posts/:id/view", limiter.Limit(middleware.BucketAPI), postHandler.View)
		api.GET("/posts/:id/comments", limiter.Limit(middleware.BucketAPI), commentHandler.ListForPost)
		api.GET("/users/:id", limiter.Limit(middleware.BucketAPI), userHandler.Get)
		api.GET("/categories", limiter.Limit(middleware.BucketAPI), categoryHandler.List)
		api.GET("/bookmarks", limiter.Limit(middleware.BucketAPI), middleware.AuthRequired(), bookmarkHandler.List)

		write := api.Group("")
		write.Use(limiter.Limit(middleware.BucketWrite), middleware.AuthRequired())
		{
			write.POST("/posts", postHandler.Create)
			write.PUT("/posts/:id", postHandler.Update)
			write.DELETE("/posts/:id", postHandler.Delete)
			write.POST("/comments", commentHandler.Create)
			write.DELETE("/comments/:id", commentHandler.Delete)
			write.POST("/bookmarks", bookmarkHandler.Create)
			write.DELETE("/bookmarks/:postId", bookmarkHandler.Delete)
			write.PUT("/users/:id", userHandler.Update)
		}
	}

	logger.Info("Blogify server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Server exited", zap.Error(err))
	}
}
