package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/scanbase/scanbase/internal/ledger/domain"
	scandomain "github.com/scanbase/scanbase/internal/scan/domain"
	"github.com/scanbase/scanbase/internal/tenantctx"
)

func (s *Server) ListHistory(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		AbortWithError(c, scandomain.ErrUnidentified)
		return
	}

	req := ledgerdomain.RecentRequest{
		TenantID:  tenantID,
		PageToken: c.Query("page_token"),
		PageSize:  parsePageSize(c.Query("page_size")),
	}
	// History is tenant-wide; narrowing to one user is opt-in.
	if raw := c.Query("user_id"); raw != "" {
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ledgerdomain.ErrInvalidUser)
			return
		}
		req.UserID = userID
	}

	resp, err := s.ledgerSvc.Recent(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetQuota(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		AbortWithError(c, scandomain.ErrUnidentified)
		return
	}
	userID, _ := tenantctx.UserIDFromContext(ctx)

	decision, err := s.quotaSvc.Authorize(ctx, userID, tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func parsePageSize(raw string) int32 {
	if raw == "" {
		return 0
	}
	size, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || size < 0 {
		return 0
	}
	return int32(size)
}
