package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// RegulationHandler regulation endpoints.
type RegulationHandler struct {
	regSvc service.RegulationService
}

func NewRegulationHandler(regSvc service.RegulationService) *RegulationHandler {
	return &RegulationHandler{regSvc: regSvc}
}

// List GET /api/v1/regulations
func (h *RegulationHandler) List(c *gin.Context) {
	var q dto.RegulationListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, size := pageParams(q.Page, q.PageSize)

	regs, total, err := h.regSvc.List(c.Request.Context(), model.RegulationFilter{
		Status:   workflow.Status(q.Status),
		Year:     q.Year,
		Search:   q.Search,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKPage(c, regs, total, page, size)
}

// Get GET /api/v1/regulations/:id
func (h *RegulationHandler) Get(c *gin.Context) {
	reg, err := h.regSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, reg)
}

// Create POST /api/v1/regulations
func (h *RegulationHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateRegulationRequest
	if !bindJSON(c, &req) {
		return
	}

	reg, err := h.regSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, reg)
}

// Update PUT /api/v1/regulations/:id
func (h *RegulationHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateRegulationRequest
	if !bindJSON(c, &req) {
		return
	}

	reg, err := h.regSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, reg)
}

// Delete DELETE /api/v1/regulations/:id
func (h *RegulationHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if err := h.regSvc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}

// Clone POST /api/v1/regulations/:id/clone
func (h *RegulationHandler) Clone(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CloneRegulationRequest
	if !bindJSON(c, &req) {
		return
	}

	reg, err := h.regSvc.Clone(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, reg)
}

// ChangeStatus PUT /api/v1/regulations/:id/status
func (h *RegulationHandler) ChangeStatus(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	roles, ok := MustGetRoles(c)
	if !ok {
		return
	}
	var req dto.ChangeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	reg, err := h.regSvc.ChangeStatus(c.Request.Context(), c.Param("id"), &req, actor, roles)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, reg)
}

// Transitions GET /api/v1/regulations/:id/transitions
func (h *RegulationHandler) Transitions(c *gin.Context) {
	roles, ok := MustGetRoles(c)
	if !ok {
		return
	}
	opts, err := h.regSvc.AllowedTransitions(c.Request.Context(), c.Param("id"), roles)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"list": opts})
}
