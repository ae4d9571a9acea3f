package dto

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	PremiumID        *int64 `json:"premium_id,omitempty"`
	AIProvider       string `json:"ai_provider"`
	AIModel          string `json:"ai_model"`
	HasAPIKey        bool   `json:"has_api_key"`
	ColdEmailBlocker string `json:"cold_email_blocker"`
	CreatedAt        string `json:"created_at,omitempty"`
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty" binding:"omitempty,max=100"`
}

// UpdateAISettingsRequest 更新 AI 设置；APIKey 为空字符串表示清除
type UpdateAISettingsRequest struct {
	Provider string  `json:"provider" binding:"required"`
	Model    string  `json:"model" binding:"required"`
	APIKey   *string `json:"api_key,omitempty" binding:"omitempty,max=256"`
}

// UpdateColdEmailRequest 陌生邮件拦截设置
type UpdateColdEmailRequest struct {
	Setting string `json:"setting" binding:"required,oneof=DISABLED LIST LABEL ARCHIVE_AND_LABEL"`
}
