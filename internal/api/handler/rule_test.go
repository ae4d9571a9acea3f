package handler

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/repository"
	"github.com/qs3c/inbox_premium_server/internal/service"
	"github.com/qs3c/inbox_premium_server/internal/testutil"
)

func setupRuleHandler(t *testing.T) (*RuleHandler, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	handler := NewRuleHandler(service.NewRuleService(repository.NewRuleRepository(db)))

	return handler, &testContext{DB: db}, func() { testutil.CleanupTestDB(t, db) }
}

func ruleRouter(h *RuleHandler, userID int64) *gin.Engine {
	router := gin.New()
	router.Use(mockAuth(userID))
	router.GET("/rules", h.List)
	router.POST("/rules", h.Create)
	router.GET("/rules/:id", h.Get)
	router.PUT("/rules/:id", h.Update)
	router.DELETE("/rules/:id", h.Delete)
	return router
}

func TestRuleHandler_CRUD(t *testing.T) {
	handler, ctx, cleanup := setupRuleHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)
	router := ruleRouter(handler, user.ID)

	w := performRequest(router, "POST", "/rules", dto.CreateRuleRequest{
		Name:         "Newsletters",
		Instructions: "Archive all newsletters",
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	created := resp.Data.(map[string]interface{})
	assert.Equal(t, true, created["enabled"])
	id := int64(created["id"].(float64))

	w = performRequest(router, "GET", fmt.Sprintf("/rules/%d", id), nil)
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	disabled := false
	w = performRequest(router, "PUT", fmt.Sprintf("/rules/%d", id), dto.UpdateRuleRequest{Enabled: &disabled})
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, false, resp.Data.(map[string]interface{})["enabled"])

	w = performRequest(router, "GET", "/rules?page=1&page_size=10", nil)
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, float64(1), resp.Data.(map[string]interface{})["total"])

	w = performRequest(router, "DELETE", fmt.Sprintf("/rules/%d", id), nil)
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	w = performRequest(router, "GET", fmt.Sprintf("/rules/%d", id), nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
}

func TestRuleHandler_Create_Validation(t *testing.T) {
	handler, ctx, cleanup := setupRuleHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)
	testutil.TestRule(t, ctx.DB, user.ID, "Existing")
	router := ruleRouter(handler, user.ID)

	w := performRequest(router, "POST", "/rules", dto.CreateRuleRequest{Name: "Short", Instructions: "abc"})
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)

	w = performRequest(router, "POST", "/rules", dto.CreateRuleRequest{Name: "Existing", Instructions: "Label receipts"})
	assert.Equal(t, response.CodeDuplicateAction, parseResponse(t, w).Code)

	w = performRequest(router, "POST", "/rules", map[string]string{"instructions": "no name given"})
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)

	w = performRequest(router, "POST", "/rules", dto.CreateRuleRequest{Name: "   ", Instructions: "Label receipts"})
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
}

func TestRuleHandler_OtherUsersRule(t *testing.T) {
	handler, ctx, cleanup := setupRuleHandler(t)
	defer cleanup()

	owner := testutil.TestUser(t, ctx.DB)
	other := testutil.TestUser(t, ctx.DB)
	rule := testutil.TestRule(t, ctx.DB, owner.ID, "Private")

	router := ruleRouter(handler, other.ID)

	w := performRequest(router, "GET", fmt.Sprintf("/rules/%d", rule.ID), nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)

	w = performRequest(router, "DELETE", fmt.Sprintf("/rules/%d", rule.ID), nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)

	w = performRequest(router, "GET", "/rules/abc", nil)
	assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
}
