package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/service"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// Context keys set by middleware.JWTAuth.
const (
	CtxUserID = "user_id"
	CtxName   = "name"
	CtxEmail  = "email"
	CtxRoles  = "roles"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// MustGetActor extracts the authenticated caller. When the JWT middleware did
// not run it writes a 401 and returns false; callers should return at once.
func MustGetActor(c *gin.Context) (model.Actor, bool) {
	id := c.GetString(CtxUserID)
	if id == "" {
		response.Unauthorized(c, 40100, "Not authenticated")
		return model.Actor{}, false
	}
	return model.Actor{ID: id, Name: c.GetString(CtxName), Email: c.GetString(CtxEmail)}, true
}

// MustGetRoles returns the caller's role set. An empty set is valid; the
// transition tables decide what it may do.
func MustGetRoles(c *gin.Context) (workflow.RoleSet, bool) {
	v, exists := c.Get(CtxRoles)
	if !exists {
		response.Unauthorized(c, 40100, "Not authenticated")
		return nil, false
	}
	roles, ok := v.(workflow.RoleSet)
	if !ok {
		response.Unauthorized(c, 40100, "Not authenticated")
		return nil, false
	}
	return roles, true
}

// bindJSON decodes the body. Field violations are reported the same way the
// services report them.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.FromError(c, service.ValidationError(verrs))
		return
	}
	response.BadRequest(c, 40000, "Invalid request body")
}

// pageParams clamps paging input.
func pageParams(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// optionalInt parses an integer query parameter; absent or malformed values
// yield nil.
func optionalInt(c *gin.Context, key string) *int {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
