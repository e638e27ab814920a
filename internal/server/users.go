package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	scandomain "github.com/scanbase/scanbase/internal/scan/domain"
	"github.com/scanbase/scanbase/internal/tenantctx"
	userdomain "github.com/scanbase/scanbase/internal/user/domain"
)

type createUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		AbortWithError(c, scandomain.ErrUnidentified)
		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, userdomain.ErrInvalidEmail)
		return
	}

	role := userdomain.Role(req.Role)
	if req.Role == "" {
		role = userdomain.RoleMember
	}

	user, err := s.userSvc.Create(ctx, userdomain.CreateRequest{
		TenantID: tenantID,
		Email:    req.Email,
		Role:     role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
