package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// BatchYearHandler cohort binding endpoints.
type BatchYearHandler struct {
	batchSvc service.RegulationBatchYearService
}

func NewBatchYearHandler(batchSvc service.RegulationBatchYearService) *BatchYearHandler {
	return &BatchYearHandler{batchSvc: batchSvc}
}

// List GET /api/v1/batch-years
func (h *BatchYearHandler) List(c *gin.Context) {
	var q dto.BatchListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, size := pageParams(q.Page, q.PageSize)

	recs, total, err := h.batchSvc.List(c.Request.Context(), model.RegulationBatchYearFilter{
		RegulationID: q.RegulationID,
		ProgrammeID:  q.ProgrammeID,
		BatchYearID:  q.BatchYearID,
		Semester:     q.Semester,
		Page:         page,
		PageSize:     size,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKPage(c, recs, total, page, size)
}

// Pending GET /api/v1/batch-years/pending
func (h *BatchYearHandler) Pending(c *gin.Context) {
	groups, err := h.batchSvc.PendingProgrammes(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": groups})
}

// Assign POST /api/v1/batch-years/assign
func (h *BatchYearHandler) Assign(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.BindBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	recs, err := h.batchSvc.Assign(c.Request.Context(), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"list": recs})
}

// Reassign PUT /api/v1/batch-years/reassign
func (h *BatchYearHandler) Reassign(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.BindBatchRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.batchSvc.Reassign(c.Request.Context(), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.ReassignResponse{Modified: n})
}

// MoveToNextSemester POST /api/v1/batch-years/move-next
//
// Answers 202 with the job; progress is read from /jobs/:id.
func (h *BatchYearHandler) MoveToNextSemester(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	job, err := h.batchSvc.MoveToNextSemester(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, response.Response{Code: 0, Message: "accepted", Data: job})
}
