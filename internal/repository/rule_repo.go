package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/internal/model"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(rule *model.Rule) error {
	return r.db.Create(rule).Error
}

// GetByIDAndUser 查询用户自己的规则
func (r *RuleRepository) GetByIDAndUser(id, userID int64) (*model.Rule, error) {
	var rule model.Rule
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) ListByUser(userID int64, page, pageSize int) ([]model.Rule, int64, error) {
	var rules []model.Rule
	var total int64

	query := r.db.Model(&model.Rule{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&rules).Error
	return rules, total, err
}

func (r *RuleRepository) Update(rule *model.Rule) error {
	return r.db.Save(rule).Error
}

// Delete 删除用户自己的规则
func (r *RuleRepository) Delete(id, userID int64) (int64, error) {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Rule{})
	return res.RowsAffected, res.Error
}

// ExistsByName 同名规则是否存在，excludeID 用于更新时排除自身
func (r *RuleRepository) ExistsByName(userID int64, name string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.Model(&model.Rule{}).Where("user_id = ? AND name = ?", userID, name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}
