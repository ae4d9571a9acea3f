package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/pkg/lemonsqueezy"
	"github.com/qs3c/inbox_premium_server/internal/pkg/premium"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/repository"
	"github.com/qs3c/inbox_premium_server/internal/service"
	"github.com/qs3c/inbox_premium_server/internal/testutil"
)

const testWebhookSecret = "whsec_handler"

func setupBillingHandler(t *testing.T) (*gin.Engine, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	premiumRepo := repository.NewPremiumRepository(db)
	catalog := premium.NewCatalog(handlerBilling())

	premiumService := service.NewPremiumService(db, userRepo, premiumRepo, catalog)
	webhookService := service.NewWebhookService(
		repository.NewWebhookEventRepository(db), userRepo, premiumRepo, premiumService, catalog, testWebhookSecret)

	router := gin.New()
	router.POST("/webhook", NewBillingHandler(webhookService).Webhook)

	return router, &testContext{DB: db}, func() { testutil.CleanupTestDB(t, db) }
}

func postWebhook(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func subscriptionCreated(t *testing.T, userID int64, variantID int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"meta": map[string]interface{}{
			"event_name":  "subscription_created",
			"custom_data": map[string]string{"user_id": strconv.FormatInt(userID, 10)},
		},
		"data": map[string]interface{}{
			"type": "subscriptions",
			"id":   "9001",
			"attributes": map[string]interface{}{
				"variant_id": variantID,
				"renews_at":  time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestBillingHandler_Webhook_Success(t *testing.T) {
	router, ctx, cleanup := setupBillingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)
	body := subscriptionCreated(t, user.ID, 105)

	w := postWebhook(router, body, lemonsqueezy.Sign(body, testWebhookSecret))
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, true, resp.Data.(map[string]interface{})["processed"])

	var reloaded model.User
	require.NoError(t, ctx.DB.Preload("Premium").First(&reloaded, user.ID).Error)
	require.NotNil(t, reloaded.Premium)
	assert.Equal(t, model.TierBusinessMonthly, *reloaded.Premium.Tier)

	// 重投
	w = postWebhook(router, body, lemonsqueezy.Sign(body, testWebhookSecret))
	resp = parseResponse(t, w)
	assert.Equal(t, true, resp.Data.(map[string]interface{})["duplicate"])
}

func TestBillingHandler_Webhook_BadSignature(t *testing.T) {
	router, ctx, cleanup := setupBillingHandler(t)
	defer cleanup()

	body := subscriptionCreated(t, 1, 105)

	w := postWebhook(router, body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postWebhook(router, body, lemonsqueezy.Sign(body, "other-secret"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeAuthFailed, parseResponse(t, w).Code)

	var count int64
	ctx.DB.Model(&model.BillingWebhookEvent{}).Count(&count)
	assert.Zero(t, count)
}

func TestBillingHandler_Webhook_InvalidPayload(t *testing.T) {
	router, _, cleanup := setupBillingHandler(t)
	defer cleanup()

	body := []byte(`not json`)
	w := postWebhook(router, body, lemonsqueezy.Sign(body, testWebhookSecret))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBillingHandler_Webhook_ProcessingFailure(t *testing.T) {
	router, ctx, cleanup := setupBillingHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)
	body := subscriptionCreated(t, user.ID, 4040)

	w := postWebhook(router, body, lemonsqueezy.Sign(body, testWebhookSecret))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeBillingError, parseResponse(t, w).Code)

	var event model.BillingWebhookEvent
	require.NoError(t, ctx.DB.First(&event).Error)
	assert.Nil(t, event.ProcessedAt)
	assert.NotEmpty(t, event.ProcessingError)
}
