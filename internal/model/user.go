package model

import (
	"time"
)

type User struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	Email            string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Name             string    `gorm:"size:100" json:"name"`
	PremiumID        *int64    `gorm:"index" json:"premium_id,omitempty"`
	Premium          *Premium  `json:"premium,omitempty"`
	AIProvider       string    `gorm:"column:ai_provider;size:30" json:"ai_provider"`
	AIModel          string    `gorm:"column:ai_model;size:50" json:"ai_model"`
	AIAPIKeyEnc      *string   `gorm:"column:ai_api_key_enc;type:text" json:"-"`
	ColdEmailBlocker string    `gorm:"size:30;default:DISABLED" json:"cold_email_blocker"` // DISABLED, LIST, LABEL, ARCHIVE_AND_LABEL
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasAPIKey 是否配置了自己的 AI API Key
func (u *User) HasAPIKey() bool {
	return u.AIAPIKeyEnc != nil && *u.AIAPIKeyEnc != ""
}
