package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/internal/model"
)

type PremiumRepository struct {
	db *gorm.DB
}

func NewPremiumRepository(db *gorm.DB) *PremiumRepository {
	return &PremiumRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *PremiumRepository) WithTx(tx *gorm.DB) *PremiumRepository {
	return &PremiumRepository{db: tx}
}

// Create 创建订阅，并把 owner 设为成员和管理员
func (r *PremiumRepository) Create(premium *model.Premium, owner *model.User) error {
	if err := r.db.Omit("Users", "Admins").Create(premium).Error; err != nil {
		return err
	}
	if owner == nil {
		return nil
	}
	if err := r.db.Model(&model.User{}).Where("id = ?", owner.ID).Update("premium_id", premium.ID).Error; err != nil {
		return err
	}
	return r.db.Model(premium).Association("Admins").Append(owner)
}

func (r *PremiumRepository) GetByID(id int64) (*model.Premium, error) {
	var premium model.Premium
	err := r.db.Where("id = ?", id).First(&premium).Error
	if err != nil {
		return nil, err
	}
	return &premium, nil
}

// GetByIDAndVariant 按 ID 和变体 ID 查询
func (r *PremiumRepository) GetByIDAndVariant(id, variantID int64) (*model.Premium, error) {
	var premium model.Premium
	err := r.db.Where("id = ? AND lemon_squeezy_variant_id = ?", id, variantID).First(&premium).Error
	if err != nil {
		return nil, err
	}
	return &premium, nil
}

// GetBySubscriptionID 按 Lemon Squeezy 订阅 ID 查询
func (r *PremiumRepository) GetBySubscriptionID(subscriptionID int64) (*model.Premium, error) {
	var premium model.Premium
	err := r.db.Where("lemon_squeezy_subscription_id = ?", subscriptionID).First(&premium).Error
	if err != nil {
		return nil, err
	}
	return &premium, nil
}

// UpdateFields 更新字段，返回影响行数
func (r *PremiumRepository) UpdateFields(id int64, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&model.Premium{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

// AddEmailAccounts 邮箱账号数增减
func (r *PremiumRepository) AddEmailAccounts(id int64, delta int) (int64, error) {
	res := r.db.Model(&model.Premium{}).Where("id = ?", id).
		Update("email_accounts_access", gorm.Expr("email_accounts_access + ?", delta))
	return res.RowsAffected, res.Error
}

// AddEmailAccountsAtLeast 增减邮箱账号数，结果小于 min 时不更新
func (r *PremiumRepository) AddEmailAccountsAtLeast(id int64, delta, min int) (int64, error) {
	res := r.db.Model(&model.Premium{}).
		Where("id = ? AND email_accounts_access + ? >= ?", id, delta, min).
		Update("email_accounts_access", gorm.Expr("email_accounts_access + ?", delta))
	return res.RowsAffected, res.Error
}

// ListAdminIDs 订阅管理员 ID
func (r *PremiumRepository) ListAdminIDs(id int64) ([]int64, error) {
	var ids []int64
	err := r.db.Table("premium_admins").
		Where("premium_id = ?", id).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// DecrementCredits 扣减一次退订额度，额度不足时不更新
func (r *PremiumRepository) DecrementCredits(id int64) (bool, error) {
	res := r.db.Model(&model.Premium{}).
		Where("id = ? AND unsubscribe_credits > 0", id).
		Update("unsubscribe_credits", gorm.Expr("unsubscribe_credits - 1"))
	return res.RowsAffected > 0, res.Error
}

// ResetCredits 重置单个订阅的月度额度
func (r *PremiumRepository) ResetCredits(id int64, credits, month int) error {
	return r.db.Model(&model.Premium{}).Where("id = ?", id).Updates(map[string]interface{}{
		"unsubscribe_credits": credits,
		"unsubscribe_month":   month,
	}).Error
}

// ResetAllCredits 重置所有未到本月的额度
func (r *PremiumRepository) ResetAllCredits(credits, month int) (int64, error) {
	res := r.db.Model(&model.Premium{}).
		Where("unsubscribe_month IS NULL OR unsubscribe_month <> ?", month).
		Updates(map[string]interface{}{
			"unsubscribe_credits": credits,
			"unsubscribe_month":   month,
		})
	return res.RowsAffected, res.Error
}
