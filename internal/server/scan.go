package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	scandomain "github.com/scanbase/scanbase/internal/scan/domain"
	"github.com/scanbase/scanbase/internal/tenantctx"
	"go.uber.org/zap"
)

type scanRequest struct {
	Code     string `json:"code"`
	CodeType string `json:"code_type"`
	UserID   string `json:"user_id"`
}

func (s *Server) HandleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, scandomain.ErrInvalidCode)
		return
	}

	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		AbortWithError(c, scandomain.ErrUnidentified)
		return
	}

	// Kiosk deployments share one API token across stations and pass
	// the scanning user in the body instead.
	userID, ok := tenantctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		if parsed, err := snowflake.ParseString(req.UserID); err == nil {
			userID = parsed
		}
	}

	start := time.Now()
	result, err := s.scanSvc.Resolve(ctx, scandomain.Request{
		Code:        req.Code,
		ClaimedType: req.CodeType,
		UserID:      userID,
		TenantID:    tenantID,
	})
	if err != nil {
		var quotaErr *scandomain.QuotaExceededError
		if errors.As(err, &quotaErr) {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":      "trial_limit_reached",
				"used_scans": quotaErr.Decision.Used,
				"limit":      quotaErr.Decision.Limit,
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordScan(result.CodeType, result.Source, result.CostStatus, time.Since(start))
	c.JSON(http.StatusOK, result)
}

// ScanRateLimit throttles scans per tenant. Limiter errors fail open,
// redis being down must never block scanning.
func (s *Server) ScanRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		tenantID, ok := tenantctx.TenantIDFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		result, err := s.limiter.AllowTenant(c.Request.Context(), tenantID.String())
		if err != nil {
			s.log.Warn("scan rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			s.metrics.RecordRateLimitDenied(c.FullPath())
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter/time.Second)+1))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many scans, slow down",
			}})
			return
		}
		c.Next()
	}
}
