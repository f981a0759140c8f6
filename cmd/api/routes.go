package main

import (
	"database/sql"
	"net/http"
	"time"

	"adsync-platform/internal/auth"
	"adsync-platform/internal/httpapi"
	"adsync-platform/internal/rbac"
	"adsync-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if db != nil {
			if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "db unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		// Identity echo for dashboard session checks.
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			aid, _ := auth.AgencyID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "agency_id": aid, "role": role})
		})

		// SYNC routes
		// sync_bot is the hidden role used by the scheduler's service token.
		sync := v1.Group("/sync")
		sync.Use(rbac.RequireAgency())
		sync.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleSyncBot))
		{
			sync.POST("/meta", h.TriggerSync)
		}

		// INSIGHTS routes: live reads against the Graph API.
		insights := v1.Group("/insights")
		insights.Use(rbac.RequireAgency())
		insights.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleMember))
		{
			insights.GET("/account-overview", h.AccountOverview)
			insights.GET("/campaigns", h.CampaignInsights)
			insights.GET("/adsets", h.AdSetInsights)
			insights.GET("/demographics", h.DemographicInsights)
			insights.GET("/platforms", h.PlatformInsights)
		}

		// META routes
		v1.GET("/meta/token-status", rbac.RequireAgency(), h.TokenStatus)

		// REPORTS routes: reads over the synced rows, no upstream calls.
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireAgency())
		reports.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleMember))
		{
			reports.GET("/summary", h.ReportSummary)
			reports.GET("/daily", h.ReportDaily)
		}
	}
}
