package handler

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/repository"
	"github.com/qs3c/inbox_premium_server/internal/service"
	"github.com/qs3c/inbox_premium_server/internal/testutil"
)

func setupCreditHandler(t *testing.T, freeCredits int) (*CreditHandler, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := &config.Config{Premium: config.PremiumConfig{FreeUnsubscribeCredits: freeCredits}}
	creditService := service.NewCreditService(db, repository.NewUserRepository(db), repository.NewPremiumRepository(db), cfg)

	return NewCreditHandler(creditService), &testContext{DB: db}, func() { testutil.CleanupTestDB(t, db) }
}

func creditRouter(h *CreditHandler, userID int64) *gin.Engine {
	router := gin.New()
	router.Use(mockAuth(userID))
	router.GET("/credits", h.Get)
	router.POST("/credits/use", h.Use)
	return router
}

func TestCreditHandler_UseUntilExhausted(t *testing.T) {
	handler, ctx, cleanup := setupCreditHandler(t, 2)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)
	router := creditRouter(handler, user.ID)

	w := performRequest(router, "GET", "/credits", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, float64(2), resp.Data.(map[string]interface{})["credits"])

	w = performRequest(router, "POST", "/credits/use", nil)
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, float64(1), resp.Data.(map[string]interface{})["remaining"])

	w = performRequest(router, "POST", "/credits/use", nil)
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	w = performRequest(router, "POST", "/credits/use", nil)
	assert.Equal(t, response.CodeCreditsExhausted, parseResponse(t, w).Code)
}

func TestCreditHandler_PremiumUnlimited(t *testing.T) {
	handler, ctx, cleanup := setupCreditHandler(t, 0)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)
	testutil.TestPremium(t, ctx.DB, []*model.User{user},
		testutil.WithTier(model.TierBasicMonthly, model.AccessUnlocked, model.AccessLocked, model.AccessLocked),
		testutil.WithRenewsAt(time.Now().Add(24*time.Hour)))
	router := creditRouter(handler, user.ID)

	w := performRequest(router, "GET", "/credits", nil)
	assert.Equal(t, true, parseResponse(t, w).Data.(map[string]interface{})["unlimited"])

	w = performRequest(router, "POST", "/credits/use", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, true, resp.Data.(map[string]interface{})["unlimited"])
}

func TestCreditHandler_UnknownUser(t *testing.T) {
	handler, _, cleanup := setupCreditHandler(t, 1)
	defer cleanup()

	w := performRequest(creditRouter(handler, 404), "POST", "/credits/use", nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
}
