package service

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/encrypt"
	"github.com/qs3c/inbox_premium_server/internal/repository"
)

var (
	ErrModelNotSupported     = errors.New("不支持的模型")
	ErrEncryptionUnavailable = errors.New("未配置加密密钥，无法保存 API Key")
)

type UserService struct {
	userRepo *repository.UserRepository
	box      *encrypt.Box
	cfg      *config.Config
}

func NewUserService(userRepo *repository.UserRepository, box *encrypt.Box, cfg *config.Config) *UserService {
	return &UserService{
		userRepo: userRepo,
		box:      box,
		cfg:      cfg,
	}
}

// GetProfile 获取用户详情
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	return buildUserInfo(user), nil
}

// UpdateProfile 更新用户信息
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
		if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"name": user.Name}); err != nil {
			return nil, err
		}
	}

	return buildUserInfo(user), nil
}

// UpdateAISettings 更新 AI 模型设置，API Key 加密保存
func (s *UserService) UpdateAISettings(userID int64, req *dto.UpdateAISettingsRequest) (*dto.UserInfo, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	if err := s.CheckModel(req.Provider, req.Model); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"ai_provider": req.Provider,
		"ai_model":    req.Model,
	}
	user.AIProvider = req.Provider
	user.AIModel = req.Model

	if req.APIKey != nil {
		key := strings.TrimSpace(*req.APIKey)
		if key == "" {
			fields["ai_api_key_enc"] = nil
			user.AIAPIKeyEnc = nil
		} else {
			if s.box == nil {
				return nil, ErrEncryptionUnavailable
			}
			sealed, err := s.box.Seal(key)
			if err != nil {
				return nil, err
			}
			fields["ai_api_key_enc"] = sealed
			user.AIAPIKeyEnc = &sealed
		}
	}

	if err := s.userRepo.UpdateFields(userID, fields); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"provider": req.Provider,
		"model":    req.Model,
		"has_key":  user.HasAPIKey(),
	}).Info("ai settings updated")

	return buildUserInfo(user), nil
}

// CheckModel 模型必须在配置列表中且属于该 provider
func (s *UserService) CheckModel(provider, modelName string) error {
	for _, m := range s.cfg.Models {
		if m.Name == modelName && m.Provider == provider {
			return nil
		}
	}
	return ErrModelNotSupported
}

// MaskedAPIKey 返回脱敏后的 API Key，未设置时为空
func (s *UserService) MaskedAPIKey(userID int64) (string, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return "", err
	}
	if !user.HasAPIKey() {
		return "", nil
	}
	if s.box == nil {
		return "", ErrEncryptionUnavailable
	}

	key, err := s.box.Open(*user.AIAPIKeyEnc)
	if err != nil {
		return "", err
	}
	return maskKey(key), nil
}

// UpdateColdEmailBlocker 更新陌生邮件拦截设置
func (s *UserService) UpdateColdEmailBlocker(userID int64, setting string) (*dto.UserInfo, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{
		"cold_email_blocker": setting,
	}); err != nil {
		return nil, err
	}
	user.ColdEmailBlocker = setting

	return buildUserInfo(user), nil
}

func (s *UserService) getUser(userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
}

func buildUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		PremiumID:        user.PremiumID,
		AIProvider:       user.AIProvider,
		AIModel:          user.AIModel,
		HasAPIKey:        user.HasAPIKey(),
		ColdEmailBlocker: user.ColdEmailBlocker,
		CreatedAt:        user.CreatedAt.Format(time.RFC3339),
	}
}
