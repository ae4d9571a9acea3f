package dto

// CreateRuleRequest 创建规则请求
type CreateRuleRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Instructions string `json:"instructions" binding:"required"`
	Automate     bool   `json:"automate"`
	Enabled      *bool  `json:"enabled,omitempty"`
}

// UpdateRuleRequest 更新规则请求
type UpdateRuleRequest struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,max=100"`
	Instructions *string `json:"instructions,omitempty"`
	Automate     *bool   `json:"automate,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
}

// RuleListQuery 规则列表查询参数
type RuleListQuery struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}
