package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/api/handler"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/workflow"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/jwt"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/response"
)

// JWTAuth verifies the bearer token from Authorization: Bearer <token> and
// puts the caller identity and role set into the context.
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 40100, "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 40100, "Malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 40100, "Token is invalid or expired")
			c.Abort()
			return
		}

		c.Set(handler.CtxUserID, claims.UserID)
		c.Set(handler.CtxName, claims.Name)
		c.Set(handler.CtxEmail, claims.Email)
		c.Set(handler.CtxRoles, workflow.RolesFromStrings(claims.Roles))

		c.Next()
	}
}

// RoleAuth admits callers holding at least one of the given roles.
func RoleAuth(allowed ...workflow.Role) gin.HandlerFunc {
	want := workflow.NewRoleSet(allowed...)
	return func(c *gin.Context) {
		v, exists := c.Get(handler.CtxRoles)
		if !exists {
			response.Unauthorized(c, 40100, "Not authenticated")
			c.Abort()
			return
		}

		roles, _ := v.(workflow.RoleSet)
		if !roles.Intersects(want) {
			response.Forbidden(c, 40300, "Access denied")
			c.Abort()
			return
		}

		c.Next()
	}
}
