package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/inbox_premium_server/internal/api/middleware"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

type RuleHandler struct {
	ruleService *service.RuleService
}

func NewRuleHandler(ruleService *service.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// List 规则列表
// GET /api/v1/rules
func (h *RuleHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var query dto.RuleListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	rules, total, err := h.ruleService.List(userID, query.Page, query.PageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, query.Page, query.PageSize, rules)
}

// Create 创建规则
// POST /api/v1/rules
func (h *RuleHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	rule, err := h.ruleService.Create(userID, &req)
	if err != nil {
		writeRuleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "创建成功", rule)
}

// Get 规则详情
// GET /api/v1/rules/:id
func (h *RuleHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	ruleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的规则ID")
		return
	}

	rule, err := h.ruleService.Get(userID, ruleID)
	if err != nil {
		writeRuleError(c, err)
		return
	}

	response.Success(c, rule)
}

// Update 更新规则
// PUT /api/v1/rules/:id
func (h *RuleHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	ruleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的规则ID")
		return
	}

	var req dto.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	rule, err := h.ruleService.Update(userID, ruleID, &req)
	if err != nil {
		writeRuleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", rule)
}

// Delete 删除规则
// DELETE /api/v1/rules/:id
func (h *RuleHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	ruleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的规则ID")
		return
	}

	if err := h.ruleService.Delete(userID, ruleID); err != nil {
		writeRuleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

func writeRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRuleNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrRuleNameExists):
		response.DuplicateError(c, err.Error())
	case errors.Is(err, service.ErrInstructionsShort), errors.Is(err, service.ErrRuleNameEmpty):
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
