package dto

// PremiumStatus 当前用户的订阅状态
type PremiumStatus struct {
	IsPremium              bool          `json:"is_premium"`
	Tier                   string        `json:"tier,omitempty"`
	Expired                bool          `json:"expired"`
	RenewsAt               string        `json:"renews_at,omitempty"`
	HasUnsubscribeAccess   bool          `json:"has_unsubscribe_access"`
	HasAIAccess            bool          `json:"has_ai_access"`
	HasColdEmailAccess     bool          `json:"has_cold_email_access"`
	IsProPlanWithoutAPIKey bool          `json:"is_pro_plan_without_api_key"`
	IsAdmin                bool          `json:"is_admin"`
	EmailAccountsAccess    int           `json:"email_accounts_access"`
	UnsubscribeCredits     *int          `json:"unsubscribe_credits,omitempty"`
	Alert                  *PremiumAlert `json:"alert,omitempty"`
}

// 升级提示类型
const (
	AlertSwitchPlan = "switch_plan"
	AlertUpgrade    = "upgrade"
)

// PremiumAlert 无 AI 权限时给前端的升级提示
type PremiumAlert struct {
	Kind          string `json:"kind"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Button        string `json:"button"`
	ShowSetAPIKey bool   `json:"show_set_api_key"`
}

// SwitchPlanRequest 切换套餐请求
type SwitchPlanRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// UpdateSeatsRequest 调整邮箱账号数请求，delta 可为负
type UpdateSeatsRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// SeatsResponse 调整后的邮箱账号数
type SeatsResponse struct {
	EmailAccountsAccess int `json:"email_accounts_access"`
}

// PricingQuery 价格页查询参数
type PricingQuery struct {
	Frequency string `form:"frequency" binding:"omitempty,oneof=monthly annually"`
	Affiliate string `form:"aff" binding:"omitempty,max=64"`
}

// CreditsInfo 退订额度
type CreditsInfo struct {
	Unlimited bool `json:"unlimited"`
	Credits   *int `json:"credits,omitempty"`
	Month     int  `json:"month,omitempty"`
}

// WebhookResult webhook 处理结果
type WebhookResult struct {
	EventID   int64  `json:"event_id"`
	EventType string `json:"event_type"`
	Duplicate bool   `json:"duplicate"`
	Processed bool   `json:"processed"`
}
