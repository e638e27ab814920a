package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/scanbase/scanbase/internal/billing/domain"
)

// HandleBillingWebhook ingests subscription lifecycle events. Unknown
// event types are acknowledged so the provider stops retrying them.
func (s *Server) HandleBillingWebhook(c *gin.Context) {
	var payload billingdomain.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, billingdomain.ErrMalformedEvent)
		return
	}

	err := s.billingSvc.HandleWebhook(c.Request.Context(), c.Param("provider"), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
