package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDWithPremium 查询用户并预加载订阅
func (r *UserRepository) GetByIDWithPremium(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Preload("Premium").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail 按邮箱查找用户
func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// SetPremiumID 将用户挂到订阅下
func (r *UserRepository) SetPremiumID(id, premiumID int64) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Update("premium_id", premiumID).Error
}

// ListEmailsByPremiumID 订阅下所有成员的邮箱
func (r *UserRepository) ListEmailsByPremiumID(premiumID int64) ([]string, error) {
	var emails []string
	err := r.db.Model(&model.User{}).
		Where("premium_id = ?", premiumID).
		Order("id ASC").
		Pluck("email", &emails).Error
	return emails, err
}

// ListIDsByPremiumID 订阅下所有成员 ID
func (r *UserRepository) ListIDsByPremiumID(premiumID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.User{}).
		Where("premium_id = ?", premiumID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}
