package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/encrypt"
	"github.com/qs3c/inbox_premium_server/internal/repository"
	"github.com/qs3c/inbox_premium_server/internal/testutil"
)

const testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func testModelsConfig() *config.Config {
	return &config.Config{
		Models: []config.ModelConfig{
			{Name: "gpt-4o", Provider: "openai"},
			{Name: "gpt-4o-mini", Provider: "openai"},
			{Name: "claude-3-5-sonnet", Provider: "anthropic"},
		},
	}
}

func setupUserService(t *testing.T) (*UserService, *repository.UserRepository, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)

	box, err := encrypt.NewBox(testEncryptionKey)
	require.NoError(t, err)

	service := NewUserService(userRepo, box, testModelsConfig())

	return service, userRepo, func() { testutil.CleanupTestDB(t, db) }
}

func strPtr(s string) *string { return &s }

func TestUserService_GetProfile(t *testing.T) {
	service, userRepo, cleanup := setupUserService(t)
	defer cleanup()

	user := &model.User{Email: "profile@example.com", Name: "Profile"}
	require.NoError(t, userRepo.Create(user))

	profile, err := service.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "profile@example.com", profile.Email)
	assert.Equal(t, "Profile", profile.Name)
	assert.False(t, profile.HasAPIKey)

	_, err = service.GetProfile(99999)
	assert.Equal(t, ErrUserNotFound, err)
}

func TestUserService_UpdateProfile(t *testing.T) {
	service, userRepo, cleanup := setupUserService(t)
	defer cleanup()

	user := &model.User{Email: "rename@example.com", Name: "Old"}
	require.NoError(t, userRepo.Create(user))

	info, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Name: strPtr("  New Name ")})
	require.NoError(t, err)
	assert.Equal(t, "New Name", info.Name)

	found, err := userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", found.Name)
}

func TestUserService_UpdateAISettings(t *testing.T) {
	service, userRepo, cleanup := setupUserService(t)
	defer cleanup()

	user := &model.User{Email: "ai@example.com"}
	require.NoError(t, userRepo.Create(user))

	info, err := service.UpdateAISettings(user.ID, &dto.UpdateAISettingsRequest{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   strPtr("sk-test-1234567890abcd"),
	})
	require.NoError(t, err)
	assert.True(t, info.HasAPIKey)
	assert.Equal(t, "gpt-4o", info.AIModel)

	found, err := userRepo.GetByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.AIAPIKeyEnc)
	// 数据库中不保存明文
	assert.NotContains(t, *found.AIAPIKeyEnc, "sk-test")

	masked, err := service.MaskedAPIKey(user.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(masked, "sk-"))
	assert.True(t, strings.HasSuffix(masked, "abcd"))
	assert.NotContains(t, masked, "1234567890")

	// 空字符串清除 key
	info, err = service.UpdateAISettings(user.ID, &dto.UpdateAISettingsRequest{
		Provider: "anthropic",
		Model:    "claude-3-5-sonnet",
		APIKey:   strPtr(""),
	})
	require.NoError(t, err)
	assert.False(t, info.HasAPIKey)

	masked, err = service.MaskedAPIKey(user.ID)
	require.NoError(t, err)
	assert.Empty(t, masked)
}

func TestUserService_UpdateAISettings_KeepsKeyWhenOmitted(t *testing.T) {
	service, userRepo, cleanup := setupUserService(t)
	defer cleanup()

	user := &model.User{Email: "keep@example.com"}
	require.NoError(t, userRepo.Create(user))

	_, err := service.UpdateAISettings(user.ID, &dto.UpdateAISettingsRequest{
		Provider: "openai", Model: "gpt-4o", APIKey: strPtr("sk-keep-me-please"),
	})
	require.NoError(t, err)

	info, err := service.UpdateAISettings(user.ID, &dto.UpdateAISettingsRequest{
		Provider: "openai", Model: "gpt-4o-mini",
	})
	require.NoError(t, err)
	assert.True(t, info.HasAPIKey)
}

func TestUserService_UpdateAISettings_InvalidModel(t *testing.T) {
	service, userRepo, cleanup := setupUserService(t)
	defer cleanup()

	user := &model.User{Email: "bad@example.com"}
	require.NoError(t, userRepo.Create(user))

	// 模型和 provider 不匹配
	_, err := service.UpdateAISettings(user.ID, &dto.UpdateAISettingsRequest{
		Provider: "anthropic",
		Model:    "gpt-4o",
	})
	assert.Equal(t, ErrModelNotSupported, err)

	_, err = service.UpdateAISettings(user.ID, &dto.UpdateAISettingsRequest{
		Provider: "openai",
		Model:    "gpt-99",
	})
	assert.Equal(t, ErrModelNotSupported, err)
}

func TestUserService_UpdateAISettings_NoEncryptionKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userRepo := repository.NewUserRepository(db)
	service := NewUserService(userRepo, nil, testModelsConfig())

	user := testutil.TestUser(t, db)

	_, err := service.UpdateAISettings(user.ID, &dto.UpdateAISettingsRequest{
		Provider: "openai", Model: "gpt-4o", APIKey: strPtr("sk-anything"),
	})
	assert.Equal(t, ErrEncryptionUnavailable, err)
}

func TestUserService_UpdateColdEmailBlocker(t *testing.T) {
	service, userRepo, cleanup := setupUserService(t)
	defer cleanup()

	user := &model.User{Email: "cold@example.com"}
	require.NoError(t, userRepo.Create(user))

	info, err := service.UpdateColdEmailBlocker(user.ID, "ARCHIVE_AND_LABEL")
	require.NoError(t, err)
	assert.Equal(t, "ARCHIVE_AND_LABEL", info.ColdEmailBlocker)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", maskKey("abcd"))
	assert.Equal(t, "sk-*****wxyz", maskKey("sk-12345wxyz"))
}
