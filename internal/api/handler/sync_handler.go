package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// SyncHandler reference data import endpoints. Every sync runs as a job.
type SyncHandler struct {
	syncSvc service.SyncService
}

func NewSyncHandler(syncSvc service.SyncService) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc}
}

// Departments POST /api/v1/sync/departments
func (h *SyncHandler) Departments(c *gin.Context) {
	var req dto.SyncDepartmentsRequest
	h.start(c, &req, func(actor model.Actor) (*model.Job, error) {
		return h.syncSvc.SyncDepartments(c.Request.Context(), &req, actor)
	})
}

// Programmes POST /api/v1/sync/programmes
func (h *SyncHandler) Programmes(c *gin.Context) {
	var req dto.SyncProgrammesRequest
	h.start(c, &req, func(actor model.Actor) (*model.Job, error) {
		return h.syncSvc.SyncProgrammes(c.Request.Context(), &req, actor)
	})
}

// BatchYears POST /api/v1/sync/batch-years
func (h *SyncHandler) BatchYears(c *gin.Context) {
	var req dto.SyncBatchYearsRequest
	h.start(c, &req, func(actor model.Actor) (*model.Job, error) {
		return h.syncSvc.SyncBatchYears(c.Request.Context(), &req, actor)
	})
}

func (h *SyncHandler) start(c *gin.Context, req any, fn func(model.Actor) (*model.Job, error)) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if !bindJSON(c, req) {
		return
	}
	job, err := fn(actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, response.Response{Code: 0, Message: "accepted", Data: job})
}
