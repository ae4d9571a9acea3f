package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/repository"
)

var (
	ErrRuleNotFound      = errors.New("规则不存在")
	ErrRuleNameExists    = errors.New("规则名称已存在")
	ErrInstructionsShort = errors.New("规则说明至少需要 5 个字符")
	ErrRuleNameEmpty     = errors.New("规则名称不能为空")
)

const minInstructionsLength = 5

type RuleService struct {
	ruleRepo *repository.RuleRepository
}

func NewRuleService(ruleRepo *repository.RuleRepository) *RuleService {
	return &RuleService{ruleRepo: ruleRepo}
}

// Create 创建规则
func (s *RuleService) Create(userID int64, req *dto.CreateRuleRequest) (*model.Rule, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrRuleNameEmpty
	}
	instructions := strings.TrimSpace(req.Instructions)
	if utf8.RuneCountInString(instructions) < minInstructionsLength {
		return nil, ErrInstructionsShort
	}

	exists, err := s.ruleRepo.ExistsByName(userID, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrRuleNameExists
	}

	rule := &model.Rule{
		UserID:       userID,
		Name:         name,
		Instructions: instructions,
		Automate:     req.Automate,
		Enabled:      true,
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := s.ruleRepo.Create(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Get 获取规则
func (s *RuleService) Get(userID, ruleID int64) (*model.Rule, error) {
	rule, err := s.ruleRepo.GetByIDAndUser(ruleID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// List 规则列表
func (s *RuleService) List(userID int64, page, pageSize int) ([]model.Rule, int64, error) {
	return s.ruleRepo.ListByUser(userID, page, pageSize)
}

// Update 更新规则
func (s *RuleService) Update(userID, ruleID int64, req *dto.UpdateRuleRequest) (*model.Rule, error) {
	rule, err := s.Get(userID, ruleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrRuleNameEmpty
		}
		if name != rule.Name {
			exists, err := s.ruleRepo.ExistsByName(userID, name, rule.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrRuleNameExists
			}
			rule.Name = name
		}
	}
	if req.Instructions != nil {
		instructions := strings.TrimSpace(*req.Instructions)
		if utf8.RuneCountInString(instructions) < minInstructionsLength {
			return nil, ErrInstructionsShort
		}
		rule.Instructions = instructions
	}
	if req.Automate != nil {
		rule.Automate = *req.Automate
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}

	if err := s.ruleRepo.Update(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Delete 删除规则
func (s *RuleService) Delete(userID, ruleID int64) error {
	n, err := s.ruleRepo.Delete(ruleID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRuleNotFound
	}
	return nil
}
