package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// JobHandler background job and audit log endpoints.
type JobHandler struct {
	jobSvc   service.JobService
	auditSvc service.AuditService
}

func NewJobHandler(jobSvc service.JobService, auditSvc service.AuditService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc, auditSvc: auditSvc}
}

// List GET /api/v1/jobs
func (h *JobHandler) List(c *gin.Context) {
	var q dto.JobListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, size := pageParams(q.Page, q.PageSize)

	jobs, total, err := h.jobSvc.List(c.Request.Context(), model.JobFilter{
		Name:     model.JobName(q.Name),
		Status:   model.JobStatus(q.Status),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKPage(c, jobs, total, page, size)
}

// Get GET /api/v1/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, job)
}

// AuditLogs GET /api/v1/audit-logs
func (h *JobHandler) AuditLogs(c *gin.Context) {
	var q dto.AuditListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, size := pageParams(q.Page, q.PageSize)

	entries, total, err := h.auditSvc.List(c.Request.Context(), model.AuditFilter{
		Entity:   q.Entity,
		EntityID: q.EntityID,
		ActorID:  q.ActorID,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKPage(c, entries, total, page, size)
}
