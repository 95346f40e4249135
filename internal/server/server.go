package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/votehubph/backend/internal/config"
	"github.com/votehubph/backend/internal/database"
	"github.com/votehubph/backend/internal/geocode"
	"github.com/votehubph/backend/internal/handlers"
	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/metrics"
	"github.com/votehubph/backend/internal/middleware"
	"github.com/votehubph/backend/internal/otp"
)

type Server struct {
	cfg     *config.Config
	db      database.Service
	handler *handlers.Handler
	tokens  *middleware.Tokens
}

func New(cfg *config.Config, db database.Service, h *handlers.Handler, tokens *middleware.Tokens) *Server {
	return &Server{cfg: cfg, db: db, handler: h, tokens: tokens}
}

// NewServer wires every dependency from cfg. The returned cleanup releases
// connections and must be called after the server stops.
func NewServer(cfg *config.Config) (*http.Server, func(), error) {
	log := logger.L()
	if cfg.JWTSecret == "" {
		return nil, nil, fmt.Errorf("JWT_SECRET is required")
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{db.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("shutdown_close_failed", "err", err)
			}
		}
	}

	rdb := database.OpenRedis(cfg)
	var otpStore otp.Store
	if rdb != nil {
		closers = append(closers, rdb.Close)
		otpStore = otp.NewRedisStore(rdb)
	} else {
		mem := otp.NewMemoryStore(time.Minute)
		closers = append(closers, func() error { mem.Close(); return nil })
		otpStore = mem
	}

	var sender otp.Sender = otp.LogSender{}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sender = otp.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	}

	var sources []geocode.Source
	for _, src := range []geocode.Source{
		geocode.NewBigDataCloud(cfg.BigDataCloudURL, cfg.GeocodeTimeout),
		geocode.NewNominatim(cfg.NominatimURL, cfg.GeocodeUserAgent, cfg.GeocodeTimeout),
	} {
		if rdb != nil {
			src = geocode.NewCached(src, rdb, cfg.GeocodeCacheTTL)
		}
		sources = append(sources, src)
	}
	var ipSource geocode.IPSource
	if cfg.GeoIPPath != "" {
		g, err := geocode.OpenGeoIP(cfg.GeoIPPath)
		if err != nil {
			log.Warn("geoip_unavailable", "path", cfg.GeoIPPath, "err", err)
		} else {
			closers = append(closers, g.Close)
			ipSource = g
		}
	}

	dir := database.NewDirectory(db.GetDB())
	tokens := middleware.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.NewHandler(handlers.Deps{
		DB:        db.GetDB(),
		Directory: dir,
		Resolver:  location.NewResolver(dir, location.WithConcurrency(cfg.GeocodeConcurrency)),
		Detector:  geocode.NewChain(ipSource, sources...),
		OTP:       otp.NewIssuer(otpStore, sender, cfg.OTPTTL),
		Tokens:    tokens,

		GoogleClientID: cfg.GoogleClientID,
	})

	s := New(cfg, db, h, tokens)
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return srv, cleanup, nil
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	if s.cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), logger.AccessMiddleware(logger.L()), middleware.Metrics())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-User-Id", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !allowsAny(s.cfg.AllowOrigins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if s.db != nil {
			health := s.db.Health()
			status["database"] = health
			if health["status"] != "up" {
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := middleware.AuthMiddleware(s.tokens)
	optional := middleware.OptionalAuth(s.tokens)

	api := r.Group("/api")
	{
		loc := api.Group("/locations")
		loc.GET("/regions", s.handler.Location.GetRegions)
		loc.GET("/cities", s.handler.Location.GetCities)
		loc.GET("/districts", s.handler.Location.GetDistricts)
		loc.GET("/barangays", s.handler.Location.GetBarangays)
		loc.GET("/resolve", s.handler.Location.Resolve)
		loc.POST("/detect", s.handler.Location.Detect)

		// Auth routes (public)
		api.POST("/auth/send-otp", s.handler.Auth.SendOTP)
		api.POST("/auth/verify-otp", s.handler.Auth.VerifyOTP)
		api.POST("/login", s.handler.Auth.Login)
		api.POST("/auth/google", s.handler.Auth.GoogleLogin)

		// Public reads; a valid token personalizes vote and like state.
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/approved", s.handler.Post.GetApprovedPosts)
		api.GET("/posts/:id", optional, s.handler.Post.GetPost)
		api.GET("/posts/:id/comments", optional, s.handler.Comment.GetComments)
		api.GET("/users/:id", s.handler.User.GetUserProfile)

		protected := api.Group("")
		protected.Use(auth)
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.PUT("/me/location", s.handler.User.UpdateLocation)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/vote", s.handler.Post.VotePost)

			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.POST("/comments/:commentId/like", s.handler.Comment.LikeComment)
			protected.PUT("/comments/:commentId", s.handler.Comment.UpdateComment)
			protected.DELETE("/comments/:commentId", s.handler.Comment.DeleteComment)
		}
	}

	return r
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
