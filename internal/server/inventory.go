package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	manifestdomain "github.com/scanbase/scanbase/internal/manifest/domain"
	scandomain "github.com/scanbase/scanbase/internal/scan/domain"
	"github.com/scanbase/scanbase/internal/tenantctx"
)

func (s *Server) ListInventory(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		AbortWithError(c, scandomain.ErrUnidentified)
		return
	}

	resp, err := s.manifestSvc.List(ctx, manifestdomain.ListRequest{
		TenantID:  tenantID,
		Search:    c.Query("search_query"),
		PageToken: c.Query("page_token"),
		PageSize:  parsePageSize(c.Query("page_size")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type importInventoryRequest struct {
	Items []manifestdomain.Item `json:"items"`
}

func (s *Server) ImportInventory(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		AbortWithError(c, scandomain.ErrUnidentified)
		return
	}

	var req importInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, manifestdomain.ErrEmptyImport)
		return
	}

	count, err := s.manifestSvc.Import(ctx, manifestdomain.ImportRequest{
		TenantID: tenantID,
		Items:    req.Items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}
