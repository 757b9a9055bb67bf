// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"privportal/privacy-api/config"
	"privportal/privacy-api/db"
	"privportal/privacy-api/directory"
	"privportal/privacy-api/middleware"
	"privportal/privacy-api/service"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Cfg       *config.Config
	Directory *directory.Client
	Sender    *service.Sender
	Sync      *service.Syncer
}

func NewRouter(cfg *config.Config) (*API, error) {
	a := &API{
		Cfg: cfg,
	}

	db, err := db.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = db

	a.Directory = directory.NewClient(cfg.Directory)
	a.Sender = service.NewSender(cfg)
	a.Sync = service.NewSyncer(db, a.Directory)

	makeLogger()
	a.setupRoutes()

	return a, nil
}

func (a *API) setupRoutes() {
	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     a.Cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("contact"); v != "" {
					fields = append(fields, zap.String("contact", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware(a.DB, a.Cfg)

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a JWT token
		main.HEAD("/validate", jwt, a.Validate)
	}

	auth := main.Group("/auth",
		middleware.BodySizeLimiter(1<<20),
		middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
			RequestsPerSecond: 2,
			Burst:             5,
		}),
	)
	{
		// POST /api/auth/request-otp 	-> Issues a verification code for an email or phone
		auth.POST("/request-otp", a.AuthRequestOTP)

		// POST /api/auth/verify-otp 	-> Verifies a code and returns a session token
		auth.POST("/verify-otp", a.AuthVerifyOTP)
	}

	user := main.Group("/user", jwt)
	{
		// GET /api/user/preferences	-> Returns the stored suppression preferences
		user.GET("/preferences", a.PreferencesFetch)

		// PUT /api/user/preferences	-> Saves preferences and pushes them to the directory
		user.PUT("/preferences", middleware.BodySizeLimiter(1<<20), a.PreferencesUpdate)

		// GET /api/user/cards		-> Returns the cached directory cards
		user.GET("/cards", a.CardsFetch)

		// PUT /api/user/cards		-> Runs a full directory sync and refreshes the cache
		user.PUT("/cards", a.CardsSync)
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
