package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/config"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/api/handler"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/api/middleware"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/jwt"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/metrics"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/redis"
)

// Route level roles only narrow coarse access; every status change is
// checked again against its transition table.
var (
	admin       = middleware.RoleAuth(workflow.RoleAdmin)
	regAuthors  = middleware.RoleAuth(workflow.RoleAdmin, workflow.RoleRegAuthor)
	coordinator = middleware.RoleAuth(workflow.RoleAdmin, workflow.RolePrgmCoordinator, workflow.RoleHOD)
)

// Setup builds the gin engine.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	handler.UseServiceValidator()

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Feature.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	v1.Use(middleware.JWTAuth(jwtMgr))
	v1.Use(middleware.RateLimit(rdb, 300, time.Minute))
	{
		regulations := v1.Group("/regulations")
		{
			regulations.GET("", h.Regulation.List)
			regulations.GET("/:id", h.Regulation.Get)
			regulations.GET("/:id/transitions", h.Regulation.Transitions)
			regulations.GET("/:id/programmes", h.ProgrammeRegulation.ListByRegulation)
			regulations.GET("/:id/programme-status", h.ProgrammeRegulation.ProgrammeStatus)
			regulations.POST("", regAuthors, h.Regulation.Create)
			regulations.PUT("/:id", regAuthors, h.Regulation.Update)
			regulations.DELETE("/:id", regAuthors, h.Regulation.Delete)
			regulations.POST("/:id/clone", regAuthors, h.Regulation.Clone)
			regulations.PUT("/:id/status", h.Regulation.ChangeStatus)
		}

		prgmRegs := v1.Group("/programme-regulations")
		{
			prgmRegs.GET("/:id", h.ProgrammeRegulation.Get)
			prgmRegs.PUT("/:id/outcomes", coordinator, h.ProgrammeRegulation.UpdateOutcomes)
			prgmRegs.PUT("/:id/peo-po-mapping", coordinator, h.ProgrammeRegulation.UpdatePeoPoMapping)
			prgmRegs.PUT("/:id/verticals", coordinator, h.ProgrammeRegulation.UpdateVerticals)
			prgmRegs.PUT("/:id/min-credits", coordinator, h.ProgrammeRegulation.UpdateMinCredits)
			prgmRegs.PUT("/:id/status", h.ProgrammeRegulation.ChangeStatus)
			prgmRegs.POST("/:id/freeze", coordinator, h.ProgrammeRegulation.FreezeSemester)
			prgmRegs.POST("/:id/clone-scheme", coordinator, h.ProgrammeRegulation.CloneScheme)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", h.Course.List)
			courses.GET("/:id", h.Course.Get)
			courses.POST("", coordinator, h.Course.Create)
			courses.PUT("/status", h.Course.ChangeStatus)
			courses.PUT("/:id", coordinator, h.Course.Update)
			courses.DELETE("/:id", coordinator, h.Course.Delete)
			courses.PUT("/:id/outcomes", h.Course.UpdateOutcomes)
			courses.PUT("/:id/mapping-status", h.Course.ChangeMappingStatus)
		}

		batchYears := v1.Group("/batch-years")
		{
			batchYears.GET("", h.BatchYear.List)
			batchYears.GET("/pending", h.BatchYear.Pending)
			batchYears.POST("/assign", coordinator, h.BatchYear.Assign)
			batchYears.PUT("/reassign", coordinator, h.BatchYear.Reassign)
			batchYears.POST("/move-next", admin, h.BatchYear.MoveToNextSemester)
		}

		sync := v1.Group("/sync", admin)
		{
			sync.POST("/departments", h.Sync.Departments)
			sync.POST("/programmes", h.Sync.Programmes)
			sync.POST("/batch-years", h.Sync.BatchYears)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("", h.Job.List)
			jobs.GET("/:id", h.Job.Get)
		}

		v1.GET("/audit-logs", admin, h.Job.AuditLogs)

		calendar := v1.Group("/academic-calendar")
		{
			calendar.GET("", h.Calendar.Get)
			calendar.PUT("", admin, h.Calendar.Update)
		}

		export := v1.Group("/export")
		{
			export.GET("/scheme", h.Export.ExportScheme)
		}
	}

	return r
}
