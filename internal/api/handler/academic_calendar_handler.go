package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// AcademicCalendarHandler term settings.
type AcademicCalendarHandler struct {
	calSvc service.AcademicCalendarService
}

func NewAcademicCalendarHandler(calSvc service.AcademicCalendarService) *AcademicCalendarHandler {
	return &AcademicCalendarHandler{calSvc: calSvc}
}

// Get GET /api/v1/academic-calendar
func (h *AcademicCalendarHandler) Get(c *gin.Context) {
	cal, err := h.calSvc.Get(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, cal)
}

// Update PUT /api/v1/academic-calendar
func (h *AcademicCalendarHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateAcademicCalendarRequest
	if !bindJSON(c, &req) {
		return
	}

	cal, err := h.calSvc.Update(c.Request.Context(), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, cal)
}
