package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/repository"
	"github.com/qs3c/inbox_premium_server/internal/testutil"
)

func boolPtr(b bool) *bool { return &b }

func TestRuleService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := NewRuleService(repository.NewRuleRepository(db))
	user := testutil.TestUser(t, db)

	rule, err := service.Create(user.ID, &dto.CreateRuleRequest{
		Name:         " Receipts ",
		Instructions: "Label all receipts",
		Automate:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Receipts", rule.Name)
	assert.True(t, rule.Enabled)
	assert.True(t, rule.Automate)

	disabled, err := service.Create(user.ID, &dto.CreateRuleRequest{
		Name:         "Drafts",
		Instructions: "Draft replies to invoices",
		Enabled:      boolPtr(false),
	})
	require.NoError(t, err)

	found, err := service.Get(user.ID, disabled.ID)
	require.NoError(t, err)
	assert.False(t, found.Enabled)
}

func TestRuleService_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := NewRuleService(repository.NewRuleRepository(db))
	user := testutil.TestUser(t, db)
	testutil.TestRule(t, db, user.ID, "Receipts")

	_, err := service.Create(user.ID, &dto.CreateRuleRequest{Name: "Short", Instructions: " abc  "})
	assert.Equal(t, ErrInstructionsShort, err)

	_, err = service.Create(user.ID, &dto.CreateRuleRequest{Name: "   ", Instructions: "Label receipts"})
	assert.Equal(t, ErrRuleNameEmpty, err)

	_, err = service.Create(user.ID, &dto.CreateRuleRequest{Name: "Receipts", Instructions: "Label receipts"})
	assert.Equal(t, ErrRuleNameExists, err)

	// 其他用户可以使用同名规则
	other := testutil.TestUser(t, db)
	_, err = service.Create(other.ID, &dto.CreateRuleRequest{Name: "Receipts", Instructions: "Label receipts"})
	assert.NoError(t, err)
}

func TestRuleService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := NewRuleService(repository.NewRuleRepository(db))
	user := testutil.TestUser(t, db)
	rule := testutil.TestRule(t, db, user.ID, "Receipts")
	testutil.TestRule(t, db, user.ID, "Newsletters")

	updated, err := service.Update(user.ID, rule.ID, &dto.UpdateRuleRequest{
		Instructions: strPtr("Archive receipts older than a week"),
		Enabled:      boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, "Archive receipts older than a week", updated.Instructions)

	_, err = service.Update(user.ID, rule.ID, &dto.UpdateRuleRequest{Name: strPtr("Newsletters")})
	assert.Equal(t, ErrRuleNameExists, err)

	_, err = service.Update(user.ID, rule.ID, &dto.UpdateRuleRequest{Instructions: strPtr("no")})
	assert.Equal(t, ErrInstructionsShort, err)

	_, err = service.Update(user.ID, rule.ID, &dto.UpdateRuleRequest{Name: strPtr(" \t ")})
	assert.Equal(t, ErrRuleNameEmpty, err)

	other := testutil.TestUser(t, db)
	_, err = service.Update(other.ID, rule.ID, &dto.UpdateRuleRequest{})
	assert.Equal(t, ErrRuleNotFound, err)
}

func TestRuleService_ListAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	service := NewRuleService(repository.NewRuleRepository(db))
	user := testutil.TestUser(t, db)
	rule := testutil.TestRule(t, db, user.ID, "Receipts")
	testutil.TestRule(t, db, user.ID, "Newsletters")

	rules, total, err := service.List(user.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rules, 2)

	require.NoError(t, service.Delete(user.ID, rule.ID))
	assert.Equal(t, ErrRuleNotFound, service.Delete(user.ID, rule.ID))
}
