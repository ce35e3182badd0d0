package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/dto"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// CourseHandler course endpoints.
type CourseHandler struct {
	courseSvc service.CourseService
}

func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// List GET /api/v1/courses?regulation_id=&programme_id=&semester=
//
// semester=0 lists the courses grouped by category.
func (h *CourseHandler) List(c *gin.Context) {
	var q dto.CourseListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, size := pageParams(q.Page, q.PageSize)

	courses, total, err := h.courseSvc.List(c.Request.Context(), model.CourseFilter{
		RegulationID: q.RegulationID,
		ProgrammeID:  q.ProgrammeID,
		Semester:     optionalInt(c, "semester"),
		Status:       workflow.Status(q.Status),
		Vertical:     q.Vertical,
		Search:       q.Search,
		Page:         page,
		PageSize:     size,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OKPage(c, courses, total, page, size)
}

// Get GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courseSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, course)
}

// Create POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, course)
}

// Update PUT /api/v1/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, course)
}

// Delete DELETE /api/v1/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if err := h.courseSvc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, nil)
}

// ChangeStatus PUT /api/v1/courses/status
func (h *CourseHandler) ChangeStatus(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	roles, ok := MustGetRoles(c)
	if !ok {
		return
	}
	var req dto.CourseStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.courseSvc.ChangeStatus(c.Request.Context(), &req, actor, roles)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, dto.BulkStatusResponse{Modified: n})
}

// UpdateOutcomes PUT /api/v1/courses/:id/outcomes
func (h *CourseHandler) UpdateOutcomes(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateCourseOutcomesRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseSvc.UpdateOutcomes(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, course)
}

// ChangeMappingStatus PUT /api/v1/courses/:id/mapping-status
func (h *CourseHandler) ChangeMappingStatus(c *gin.Context) {
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

	course, err := h.courseSvc.ChangeMappingStatus(c.Request.Context(), c.Param("id"), &req, actor, roles)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, course)
}
