package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// ProgrammeRegulationHandler endpoints for the per-programme part of a
// regulation: outcomes, verticals, credits and the course scheme.
type ProgrammeRegulationHandler struct {
	prgmSvc service.ProgrammeRegulationService
}

func NewProgrammeRegulationHandler(prgmSvc service.ProgrammeRegulationService) *ProgrammeRegulationHandler {
	return &ProgrammeRegulationHandler{prgmSvc: prgmSvc}
}

// ListByRegulation GET /api/v1/regulations/:id/programmes
func (h *ProgrammeRegulationHandler) ListByRegulation(c *gin.Context) {
	var q dto.MappingListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, size := pageParams(q.Page, q.PageSize)

	res, err := h.prgmSvc.ListByRegulation(c.Request.Context(), c.Param("id"), model.MappingFilter{
		PoStatus: workflow.Status(q.PoStatus),
		Search:   q.Search,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKPage(c, res.Records, res.Total, page, size)
}

// ProgrammeStatus GET /api/v1/regulations/:id/programme-status
func (h *ProgrammeRegulationHandler) ProgrammeStatus(c *gin.Context) {
	statuses, err := h.prgmSvc.ProgrammeStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, statuses)
}

// Get GET /api/v1/programme-regulations/:id
func (h *ProgrammeRegulationHandler) Get(c *gin.Context) {
	rec, err := h.prgmSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, rec)
}

// UpdateOutcomes PUT /api/v1/programme-regulations/:id/outcomes
func (h *ProgrammeRegulationHandler) UpdateOutcomes(c *gin.Context) {
	var req dto.UpdateOutcomesRequest
	h.update(c, &req, func(actor model.Actor) (*model.ProgrammeRegulation, error) {
		return h.prgmSvc.UpdateOutcomes(c.Request.Context(), c.Param("id"), &req, actor)
	})
}

// UpdatePeoPoMapping PUT /api/v1/programme-regulations/:id/peo-po-mapping
func (h *ProgrammeRegulationHandler) UpdatePeoPoMapping(c *gin.Context) {
	var req dto.UpdatePeoPoMappingRequest
	h.update(c, &req, func(actor model.Actor) (*model.ProgrammeRegulation, error) {
		return h.prgmSvc.UpdatePeoPoMapping(c.Request.Context(), c.Param("id"), &req, actor)
	})
}

// UpdateVerticals PUT /api/v1/programme-regulations/:id/verticals
func (h *ProgrammeRegulationHandler) UpdateVerticals(c *gin.Context) {
	var req dto.UpdateVerticalsRequest
	h.update(c, &req, func(actor model.Actor) (*model.ProgrammeRegulation, error) {
		return h.prgmSvc.UpdateVerticals(c.Request.Context(), c.Param("id"), &req, actor)
	})
}

// UpdateMinCredits PUT /api/v1/programme-regulations/:id/min-credits
func (h *ProgrammeRegulationHandler) UpdateMinCredits(c *gin.Context) {
	var req dto.UpdateMinCreditsRequest
	h.update(c, &req, func(actor model.Actor) (*model.ProgrammeRegulation, error) {
		return h.prgmSvc.UpdateMinCredits(c.Request.Context(), c.Param("id"), &req, actor)
	})
}

// FreezeSemester POST /api/v1/programme-regulations/:id/freeze
func (h *ProgrammeRegulationHandler) FreezeSemester(c *gin.Context) {
	var req dto.FreezeSemesterRequest
	h.update(c, &req, func(actor model.Actor) (*model.ProgrammeRegulation, error) {
		return h.prgmSvc.FreezeSemester(c.Request.Context(), c.Param("id"), &req, actor)
	})
}

// ChangeStatus PUT /api/v1/programme-regulations/:id/status
func (h *ProgrammeRegulationHandler) ChangeStatus(c *gin.Context) {
	roles, ok := MustGetRoles(c)
	if !ok {
		return
	}
	var req dto.ChangeStatusRequest
	h.update(c, &req, func(actor model.Actor) (*model.ProgrammeRegulation, error) {
		return h.prgmSvc.ChangeStatus(c.Request.Context(), c.Param("id"), &req, actor, roles)
	})
}

// CloneScheme POST /api/v1/programme-regulations/:id/clone-scheme
func (h *ProgrammeRegulationHandler) CloneScheme(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CloneSchemeRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.prgmSvc.CloneScheme(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, res)
}

// update runs the shared actor, bind and respond steps of the PUT endpoints.
func (h *ProgrammeRegulationHandler) update(c *gin.Context, req any, fn func(model.Actor) (*model.ProgrammeRegulation, error)) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if !bindJSON(c, req) {
		return
	}
	rec, err := fn(actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, rec)
}
