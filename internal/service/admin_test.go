package service

import (
	"context"
	"testing"

	"github.com/Rrens/recruit-advisor/internal/domain"
	"github.com/Rrens/recruit-advisor/internal/repository/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminService(t *testing.T) *AdminService {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.NewStore(db)
	return NewAdminService(store.Fragments, store.Settings)
}

func TestAdminService_Prompts(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t)

	saved, err := svc.UpsertPrompt(ctx, domain.PromptFragmentUpsert{Name: "recruiter_core_prompt", Content: "You are Coach Alex."})
	require.NoError(t, err)
	assert.True(t, saved.IsActive)

	inactive := false
	_, err = svc.UpsertPrompt(ctx, domain.PromptFragmentUpsert{Name: "welcome_message", Content: "Hi {username}", IsActive: &inactive})
	require.NoError(t, err)

	all, err := svc.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.SetPromptActive(ctx, "welcome_message", true))
	all, err = svc.ListPrompts(ctx)
	require.NoError(t, err)
	for _, f := range all {
		assert.True(t, f.IsActive, f.Name)
	}
}

func TestAdminService_Settings(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t)
	userID := uuid.New()

	setting, err := svc.GetSetting(ctx, userID)
	require.NoError(t, err)
	assert.False(t, setting.UntetheredMode)

	_, err = svc.SetUntethered(ctx, userID, true)
	require.NoError(t, err)

	setting, err = svc.GetSetting(ctx, userID)
	require.NoError(t, err)
	assert.True(t, setting.UntetheredMode)
}
