package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"adsync-platform/internal/adsync"
	"adsync-platform/internal/auth"
	"adsync-platform/internal/meta"
	"adsync-platform/internal/reporting"
	"adsync-platform/pkg/logger"
	"adsync-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

// InsightsAPI is the slice of the Graph client the HTTP layer exposes.
type InsightsAPI interface {
	AccountOverview(ctx context.Context, accountID, since, until string) ([]meta.DailyMetric, error)
	CampaignBreakdown(ctx context.Context, accountID, since, until string) ([]meta.CampaignInsight, error)
	AdSetBreakdown(ctx context.Context, accountID, since, until string) ([]meta.AdSetInsight, error)
	DemographicBreakdown(ctx context.Context, accountID, since, until string) ([]meta.DemographicInsight, error)
	PlatformBreakdown(ctx context.Context, accountID, since, until string) ([]meta.PlatformInsight, error)
	TokenStatus(ctx context.Context) (meta.TokenStatus, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Sync      *adsync.Service
	Insights  InsightsAPI
	Reporting *reporting.Service

	// Redis backs the sync run lock. Nil disables locking (tests).
	Redis   *redislib.Client
	LockTTL time.Duration
}

// --- Auth ---

type loginRequest struct {
	UserID   string `json:"user_id"`
	AgencyID string `json:"agency_id"`
	Role     string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.AgencyID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, agency_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.AgencyID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Sync ---

// TriggerSync runs one sync invocation. A Redis run lock serializes runs per
// scope: a second trigger while one is in flight gets 409, not a queue slot.
func (h Handlers) TriggerSync(c *gin.Context) {
	if h.Sync == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync not configured"})
		return
	}
	var req adsync.RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	log := logger.FromGin(c)
	ctx := c.Request.Context()

	if h.Redis != nil {
		lockKey := "sync:meta:" + scopeKey(req.ClientID)
		token := uuid.NewString()
		ok, err := utils.AcquireSyncLock(ctx, h.Redis, lockKey, token, h.lockTTL())
		if err != nil {
			log.Error("sync lock acquire failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync lock unavailable"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "sync already running for this scope"})
			return
		}
		defer func() {
			if err := utils.ReleaseSyncLock(context.WithoutCancel(ctx), h.Redis, lockKey, token); err != nil {
				log.Warn("sync lock release failed", "err", err)
			}
		}()
	}

	summary, err := h.Sync.Run(ctx, req)
	if err != nil {
		if errors.Is(err, adsync.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("sync run failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (h Handlers) lockTTL() time.Duration {
	if h.LockTTL > 0 {
		return h.LockTTL
	}
	return 15 * time.Minute
}

func scopeKey(clientID string) string {
	if clientID == "" {
		return "all"
	}
	return clientID
}

// --- Insights ---

type insightQuery struct {
	AdAccountID string `form:"ad_account_id"`
	Since       string `form:"since"`
	Until       string `form:"until"`
}

// insightHandler wraps the shared query parsing and error mapping for the
// five breakdown endpoints. fetch is a method expression so the nil check
// happens before any method is selected.
func insightHandler[T any](h Handlers, fetch func(api InsightsAPI, ctx context.Context, accountID, since, until string) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Insights == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "insights not configured"})
			return
		}
		var q insightQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
			return
		}
		rows, err := fetch(h.Insights, c.Request.Context(), q.AdAccountID, q.Since, q.Until)
		if err != nil {
			status, msg := mapInsightError(err)
			if status >= http.StatusInternalServerError {
				logger.FromGin(c).Error("insights fetch failed", "ad_account_id", q.AdAccountID, "err", err)
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		if rows == nil {
			rows = []T{}
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

// mapInsightError translates classified upstream errors to HTTP statuses.
func mapInsightError(err error) (int, string) {
	if meta.IsValidation(err) {
		return http.StatusBadRequest, err.Error()
	}
	if apiErr, ok := meta.AsAPIError(err); ok {
		switch {
		case apiErr.IsTokenExpired():
			return http.StatusUnauthorized, "meta access token expired"
		case apiErr.IsPermissionError():
			return http.StatusForbidden, "missing permission for ad account"
		case apiErr.IsRateLimited():
			return http.StatusTooManyRequests, "meta rate limit reached"
		default:
			return http.StatusBadGateway, "meta api error"
		}
	}
	return http.StatusBadGateway, "meta api unreachable"
}

func (h Handlers) AccountOverview(c *gin.Context) {
	insightHandler(h, InsightsAPI.AccountOverview)(c)
}

func (h Handlers) CampaignInsights(c *gin.Context) {
	insightHandler(h, InsightsAPI.CampaignBreakdown)(c)
}

func (h Handlers) AdSetInsights(c *gin.Context) {
	insightHandler(h, InsightsAPI.AdSetBreakdown)(c)
}

func (h Handlers) DemographicInsights(c *gin.Context) {
	insightHandler(h, InsightsAPI.DemographicBreakdown)(c)
}

func (h Handlers) PlatformInsights(c *gin.Context) {
	insightHandler(h, InsightsAPI.PlatformBreakdown)(c)
}

// TokenStatus reports validity and expiry of the configured access token.
func (h Handlers) TokenStatus(c *gin.Context) {
	if h.Insights == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "insights not configured"})
		return
	}
	status, err := h.Insights.TokenStatus(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("token status check failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "token status check failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// --- Reports ---

type reportQuery struct {
	ClientID   string `form:"client_id"`
	CampaignID string `form:"campaign_id"`
	Since      string `form:"since"`
	Until      string `form:"until"`
}

func (h Handlers) ReportSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	sum, err := h.Reporting.Summary(c.Request.Context(), reporting.SummaryRequest{
		ClientID:   q.ClientID,
		CampaignID: q.CampaignID,
		Range:      reporting.DateRange{Since: q.Since, Until: q.Until},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "client_id, since, until required"})
			return
		}
		logger.FromGin(c).Error("report summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sum})
}

func (h Handlers) ReportDaily(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	series, err := h.Reporting.DailySeries(c.Request.Context(), reporting.DailySeriesRequest{
		ClientID:   q.ClientID,
		CampaignID: q.CampaignID,
		Range:      reporting.DateRange{Since: q.Since, Until: q.Until},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "client_id, since, until required"})
			return
		}
		logger.FromGin(c).Error("report daily failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	if series == nil {
		series = []reporting.DailyPoint{}
	}
	c.JSON(http.StatusOK, gin.H{"data": series})
}
