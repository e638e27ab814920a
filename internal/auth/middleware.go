package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/scanbase/scanbase/internal/auth/domain"
	"github.com/scanbase/scanbase/internal/tenantctx"
)

// IdentityMiddleware resolves the bearer token and stamps the caller's
// identity on the request context. Requests without a token pass
// through anonymous, handlers that need an identity reject them.
func IdentityMiddleware(svc authdomain.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		identity, err := svc.Verify(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		ctx = tenantctx.WithTenantID(ctx, identity.TenantID.Int64())
		ctx = tenantctx.WithUserID(ctx, identity.UserID.Int64())
		ctx = tenantctx.WithRole(ctx, identity.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", identity.TenantID.String())
		c.Set("user_id", identity.UserID.String())
		c.Set("role", identity.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return strings.TrimSpace(c.GetHeader("X-Api-Key"))
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}
