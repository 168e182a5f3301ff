package v1

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/app/core"
	"github.com/notevault/notevault/pkg/errors"
	"github.com/notevault/notevault/pkg/security"
	"github.com/notevault/notevault/pkg/types"
	"github.com/notevault/notevault/pkg/utils"
)

var setupIDWorkerOnce sync.Once

type testEnv struct {
	core     *core.Core
	provider *memProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	setupIDWorkerOnce.Do(func() {
		utils.SetupIDWorker(1)
	})

	provider := newMemProvider()
	return &testEnv{
		core:     core.New(core.CoreConfig{}, provider),
		provider: provider,
	}
}

func (e *testEnv) contextFor(userID string) context.Context {
	claims := security.NewTokenClaims(types.DEFAULT_APPID, "notevault", userID, time.Now().Add(time.Hour).Unix())
	return context.WithValue(context.Background(), TOKEN_CONTEXT_KEY, claims)
}

// seedSpace 建好内置角色并把 ownerUserID 挂为 owner 成员
func (e *testEnv) seedSpace(t *testing.T, spaceID, ownerUserID string) types.BuiltInRoleIDs {
	t.Helper()

	roleIDs, err := NewSpaceRoleLogic(e.contextFor(ownerUserID), e.core).EnsureBuiltInRoles(spaceID)
	require.NoError(t, err)

	e.seedMember(t, spaceID, ownerUserID, roleIDs.Owner, types.RoleTypeOwner)
	return roleIDs
}

func (e *testEnv) seedMember(t *testing.T, spaceID, userID, roleID string, tier types.RoleType) string {
	t.Helper()

	now := time.Now().Unix()
	member := types.SpaceMember{
		ID:          utils.GenUniqIDStr(),
		Appid:       types.DEFAULT_APPID,
		SpaceID:     spaceID,
		UserID:      userID,
		Role:        tier,
		SpaceRoleID: roleID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, e.provider.SpaceMemberStore().Create(context.Background(), member))
	return member.ID
}

func (e *testEnv) seedUser(t *testing.T, userID, name, email string) {
	t.Helper()

	now := time.Now().Unix()
	require.NoError(t, e.provider.UserStore().Create(context.Background(), types.User{
		ID:        userID,
		Appid:     types.DEFAULT_APPID,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)

	ce, ok := err.(*errors.CustomizedError)
	require.True(t, ok, "unexpected error type: %v", err)
	require.Equal(t, code, ce.GetCode(), "unexpected error code: %v", err)
}
