package model

import (
	"time"
)

type Rule struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       int64     `gorm:"not null;index;uniqueIndex:idx_rule_user_name" json:"user_id"`
	Name         string    `gorm:"size:100;not null;uniqueIndex:idx_rule_user_name" json:"name"`
	Instructions string    `gorm:"type:text;not null" json:"instructions"`
	Automate     bool      `gorm:"default:false" json:"automate"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Rule) TableName() string {
	return "rules"
}
