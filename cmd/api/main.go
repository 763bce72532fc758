package main

import (
	appcontext "github.com/inkwell-labs/inkwell/internal/app_context"
	"github.com/inkwell-labs/inkwell/internal/auth"
	"github.com/inkwell-labs/inkwell/internal/config"
	"github.com/inkwell-labs/inkwell/internal/controller"
	"github.com/inkwell-labs/inkwell/internal/database"
	"github.com/inkwell-labs/inkwell/internal/env"
	filestorage "github.com/inkwell-labs/inkwell/internal/file_storage"
	"github.com/inkwell-labs/inkwell/internal/mailer"
	"github.com/inkwell-labs/inkwell/internal/middleware"
	"github.com/inkwell-labs/inkwell/internal/queue"
	ratelimiter "github.com/inkwell-labs/inkwell/internal/rate_limiter"
	"github.com/inkwell-labs/inkwell/internal/repository"
	"github.com/inkwell-labs/inkwell/internal/route"
	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	s3, err := filestorage.NewMinioClient(&cfg.Minio)
	if err != nil {
		logger.Error("Error connecting to minio")
		logger.Panic(err)
	}

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterCustomValidations(v); err != nil {
			logger.Panicf("Failed to register custom validations: %v", err)
		}
	}

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.GetConnectionString())
	if err != nil {
		logger.Panic("Error connecting to RabbitMQ: ", err)
	}
	defer func() {
		if err := rabbitMQ.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %v", err)
		}
	}()
	logger.Info("RabbitMQ connected \n")

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	mail := mailer.NewSendgrid(cfg.Mail.SEND_GRID.API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), logger)
	dispatcher := queue.NewMailDispatcher(rabbitMQ, logger)
	jwtService := auth.NewJwt(cfg.Auth,
		logger)
	repo := repository.NewRepository(db, logger, jwtService, s3)
	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		Mailer:     mail,
		Dispatcher: dispatcher,
		JWTService: jwtService,
		S3:         s3,
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.ENV == "production" {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)
	route.Signing_Shortlink(r, _controller.Signing)

	rApi := r.Group("/api")

	route.V1_Contracts(rApi, _controller.Contract, _middleware)
	route.V1_Signing(rApi, _controller.Signing)
	route.V1_Auth(rApi, _controller.Auth)
	route.V1_OAuth(rApi, _controller.OAuth)
	route.V1_Me(rApi, _controller.User, _controller.Contract, _middleware)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panicf("Error running server: %v \n", err)
	}
}
