package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/inbox_premium_server/internal/api/middleware"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetProfile 获取当前用户信息
// GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, profile)
}

// UpdateProfile 更新用户信息
// PUT /api/v1/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(userID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", profile)
}

// UpdateAISettings 设置 AI 模型和 API Key
// PUT /api/v1/user/ai-settings
func (h *UserHandler) UpdateAISettings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.userService.UpdateAISettings(userID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", profile)
}

// GetAPIKey 获取脱敏后的 API Key
// GET /api/v1/user/api-key
func (h *UserHandler) GetAPIKey(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	masked, err := h.userService.MaskedAPIKey(userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"api_key": masked,
		"has_key": masked != "",
	})
}

// UpdateColdEmailBlocker 陌生邮件拦截设置
// PUT /api/v1/user/cold-email-blocker
func (h *UserHandler) UpdateColdEmailBlocker(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateColdEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	profile, err := h.userService.UpdateColdEmailBlocker(userID, req.Setting)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", profile)
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, "用户不存在")
	case errors.Is(err, service.ErrModelNotSupported):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrEncryptionUnavailable):
		response.ServerError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
