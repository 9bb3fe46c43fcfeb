package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/captech/portal/internal/infrastructure/logger"
)

// Context and header keys for company scoping
const (
	CompanyIDKey     = "company_id"
	CompanyHeaderKey = "X-Company-ID"
)

// CompanyConfig holds configuration for the company scoping middleware
type CompanyConfig struct {
	// SkipPaths bypass company resolution (health checks and the like)
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultCompanyConfig returns the default company middleware configuration
func DefaultCompanyConfig() CompanyConfig {
	return CompanyConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready"},
	}
}

// CompanyScope extracts the company ID from the X-Company-ID header and
// stores it in the gin and request contexts. Every API route is scoped
// to exactly one company; requests without a valid header are rejected.
func CompanyScope() gin.HandlerFunc {
	return CompanyScopeWithConfig(DefaultCompanyConfig())
}

// CompanyScopeWithConfig returns the company middleware with custom configuration
func CompanyScopeWithConfig(cfg CompanyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		raw := c.GetHeader(CompanyHeaderKey)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "COMPANY_MISSING",
					"message": "X-Company-ID header is required",
				},
			})
			return
		}

		companyID, err := uuid.Parse(raw)
		if err != nil || companyID == uuid.Nil {
			log.Warn("rejected request with malformed company header",
				zap.String("path", path),
				zap.String("company_header", raw))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "COMPANY_MISSING",
					"message": "X-Company-ID header must be a valid UUID",
				},
			})
			return
		}

		c.Set(CompanyIDKey, companyID)
		ctx, _ := logger.WithCompanyID(c.Request.Context(), logger.FromContext(c.Request.Context()), companyID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetCompanyID returns the company ID resolved by CompanyScope
func GetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(CompanyIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
