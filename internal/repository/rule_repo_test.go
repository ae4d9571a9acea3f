package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/inbox_premium_server/internal/testutil"
)

func TestRuleRepository_ListByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRuleRepository(db)

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	testutil.TestRule(t, db, user.ID, "Newsletters")
	testutil.TestRule(t, db, user.ID, "Receipts")
	testutil.TestRule(t, db, other.ID, "Newsletters")

	rules, total, err := repo.ListByUser(user.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rules, 1)
	assert.Equal(t, "Newsletters", rules[0].Name)
}

func TestRuleRepository_GetAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRuleRepository(db)

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	rule := testutil.TestRule(t, db, user.ID, "Receipts")

	_, err := repo.GetByIDAndUser(rule.ID, other.ID)
	assert.Error(t, err)

	n, err := repo.Delete(rule.ID, other.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Delete(rule.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRuleRepository_ExistsByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewRuleRepository(db)

	user := testutil.TestUser(t, db)
	rule := testutil.TestRule(t, db, user.ID, "Receipts")

	exists, err := repo.ExistsByName(user.ID, "Receipts", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByName(user.ID, "Receipts", rule.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
