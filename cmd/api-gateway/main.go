package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/edupoint-id/edupoint-api/internal/handler"
	"github.com/edupoint-id/edupoint-api/internal/middleware"
	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/internal/repository"
	"github.com/edupoint-id/edupoint-api/internal/service"
	"github.com/edupoint-id/edupoint-api/pkg/cache"
	"github.com/edupoint-id/edupoint-api/pkg/config"
	"github.com/edupoint-id/edupoint-api/pkg/database"
	"github.com/edupoint-id/edupoint-api/pkg/logger"
	corsmiddleware "github.com/edupoint-id/edupoint-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edupoint-id/edupoint-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Attendance.SummaryCacheTTL, logr, false)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Attendance.SummaryCacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	campusRepo := repository.NewCampusRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	gradeRepo := repository.NewGradeRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	campusSvc := service.NewCampusService(campusRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	classroomSvc := service.NewClassroomService(classroomRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	bookingSvc := service.NewBookingService(bookingRepo, roomRepo, cfg.Schedule, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, classroomRepo, cacheSvc, cfg.Attendance, validate, logr)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, cfg.Finance, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, validate, logr)
	exportSvc := service.NewExportService(attendanceSvc, classroomRepo, invoiceRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	campusHandler := handler.NewCampusHandler(campusSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, metricsSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, metricsSvc)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)

	staffOrAdmin := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	anyStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	campuses := protected.Group("/campuses")
	campuses.GET("", anyStaff, campusHandler.List)
	campuses.GET("/:id", anyStaff, campusHandler.Get)
	campuses.POST("", adminOnly, campusHandler.Create)
	campuses.PUT("/:id", adminOnly, campusHandler.Update)
	campuses.DELETE("/:id", adminOnly, campusHandler.Delete)

	rooms := protected.Group("/rooms")
	rooms.GET("", anyStaff, roomHandler.List)
	rooms.GET("/:id", anyStaff, roomHandler.Get)
	rooms.POST("", staffOrAdmin, roomHandler.Create)
	rooms.PUT("/:id", staffOrAdmin, roomHandler.Update)
	rooms.DELETE("/:id", adminOnly, roomHandler.Delete)

	classrooms := protected.Group("/classrooms")
	classrooms.GET("", anyStaff, classroomHandler.List)
	classrooms.GET("/:id", anyStaff, classroomHandler.Get)
	classrooms.GET("/:id/roster", anyStaff, classroomHandler.Roster)
	classrooms.POST("", staffOrAdmin, classroomHandler.Create)
	classrooms.PUT("/:id", staffOrAdmin, classroomHandler.Update)
	classrooms.DELETE("/:id", adminOnly, classroomHandler.Delete)
	classrooms.GET("/:id/grades/recap", anyStaff, gradeHandler.ClassroomRecap)

	students := protected.Group("/students")
	students.GET("", anyStaff, studentHandler.List)
	students.GET("/:id", anyStaff, studentHandler.Get)
	students.POST("", staffOrAdmin, studentHandler.Create)
	students.PUT("/:id", staffOrAdmin, studentHandler.Update)
	students.DELETE("/:id", adminOnly, studentHandler.Delete)
	students.GET("/:id/invoices/outstanding", staffOrAdmin, invoiceHandler.Outstanding)
	students.GET("/:id/invoices/export", staffOrAdmin, exportHandler.InvoiceStatement)

	bookings := protected.Group("/bookings")
	bookings.GET("", anyStaff, bookingHandler.List)
	bookings.GET("/:id", anyStaff, bookingHandler.Get)
	bookings.POST("/check-conflict", anyStaff, bookingHandler.CheckConflict)
	bookings.POST("", staffOrAdmin, bookingHandler.Create)
	bookings.PUT("/:id", staffOrAdmin, bookingHandler.Update)
	bookings.DELETE("/:id", staffOrAdmin, bookingHandler.Delete)

	attendance := protected.Group("/classrooms/:id/attendance")
	attendance.GET("", anyStaff, attendanceHandler.Load)
	attendance.GET("/overview", anyStaff, attendanceHandler.Overview)
	attendance.GET("/export", anyStaff, exportHandler.AttendanceSheet)
	attendance.POST("/stage", anyStaff, attendanceHandler.Stage)
	attendance.DELETE("/stage", anyStaff, attendanceHandler.Discard)
	attendance.POST("/commit", anyStaff, attendanceHandler.Commit)
	attendance.POST("/quick-mark", anyStaff, attendanceHandler.QuickMark)

	invoices := protected.Group("/invoices")
	invoices.GET("", staffOrAdmin, invoiceHandler.List)
	invoices.GET("/:id", staffOrAdmin, invoiceHandler.Get)
	invoices.POST("", staffOrAdmin, invoiceHandler.Create)
	invoices.POST("/:id/payments", staffOrAdmin, invoiceHandler.RecordPayment)
	invoices.GET("/:id/payments", staffOrAdmin, invoiceHandler.Payments)

	grades := protected.Group("/grades")
	grades.GET("", anyStaff, gradeHandler.List)
	grades.POST("", anyStaff, gradeHandler.Create)
	grades.PUT("/:id", anyStaff, gradeHandler.Update)
	grades.DELETE("/:id", staffOrAdmin, gradeHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
