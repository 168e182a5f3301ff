package v1

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/pkg/types"
	"github.com/notevault/notevault/pkg/utils"
)

func TestCreateInvitationsEmail(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	logic := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core)

	created, err := logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com", "carol@example.com", "bob@example.com", ""},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	for _, v := range created {
		require.NotEmpty(t, v.Token)

		// 库里只有令牌哈希，明文只此一次
		stored, err := env.provider.SpaceInvitationStore().GetByID(context.Background(), types.DEFAULT_APPID, v.ID)
		require.NoError(t, err)
		assert.Equal(t, utils.HashInviteToken(v.Token), stored.TokenHash)
		assert.NotEqual(t, v.Token, stored.TokenHash)
		assert.Equal(t, types.SPACE_INVITATION_STATUS_PENDING, stored.InviteStatus)
		assert.Equal(t, types.RoleTypeMember, stored.Role)
		assert.Equal(t, v.ExpiredAt, stored.ExpiredAt)
	}

	// 同批共享同一过期时间
	assert.Equal(t, created[0].ExpiredAt, created[1].ExpiredAt)
}

func TestCreateInvitationsGuards(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	logic := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core)

	_, err := logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID: roleIDs.Member,
		Channel:     types.SPACE_INVITATION_CHANNEL_EMAIL,
	})
	requireCode(t, err, http.StatusBadRequest)

	_, err = logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID: roleIDs.Member,
		Channel:     "sms",
	})
	requireCode(t, err, http.StatusBadRequest)

	// owner 内置角色不可用于邀请
	_, err = logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Owner,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com"},
	})
	requireCode(t, err, http.StatusForbidden)

	// 同邮箱存在未过期的 PENDING 邀请时拒绝重复签发
	_, err = logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com"},
	})
	require.NoError(t, err)
	_, err = logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com"},
	})
	requireCode(t, err, http.StatusForbidden)

	// 在册成员的邮箱不再签发
	env.seedUser(t, "u-carol", "Carol", "carol@example.com")
	env.seedMember(t, "space-1", "u-carol", roleIDs.Member, types.RoleTypeMember)
	_, err = logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"carol@example.com"},
	})
	requireCode(t, err, http.StatusForbidden)
}

func TestCreateInvitationLink(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	logic := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core)

	created, err := logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_LINK,
		InviteeEmails: []string{"ignored@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Empty(t, created[0].InviteeEmail)
}

func TestAcceptInvitationOK(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	env.seedUser(t, "u-bob", "Bob", "bob@example.com")

	created, err := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core).CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com"},
	})
	require.NoError(t, err)

	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	require.Equal(t, types.ACCEPT_INVITATION_OK, result.Reason)
	assert.Equal(t, "space-1", result.SpaceID)
	require.NotEmpty(t, result.MemberID)

	member, err := env.provider.SpaceMemberStore().GetMember(context.Background(), types.DEFAULT_APPID, "space-1", result.MemberID)
	require.NoError(t, err)
	assert.Equal(t, "u-bob", member.UserID)
	assert.Equal(t, roleIDs.Member, member.SpaceRoleID)
	assert.Equal(t, types.RoleTypeMember, member.Role)

	stored, err := env.provider.SpaceInvitationStore().GetByID(context.Background(), types.DEFAULT_APPID, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, types.SPACE_INVITATION_STATUS_ACCEPTED, stored.InviteStatus)
	assert.Equal(t, "u-bob", stored.AcceptedBy)

	// 已接受的令牌再次使用
	result, err = NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	assert.Equal(t, types.ACCEPT_INVITATION_ALREADY_ACCEPTED, result.Reason)
}

func TestAcceptInvitationNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seedSpace(t, "space-1", "u-owner")

	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation("no-such-token")
	require.NoError(t, err)
	assert.Equal(t, types.ACCEPT_INVITATION_NOT_FOUND, result.Reason)
}

func TestAcceptInvitationEmailMismatch(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	env.seedUser(t, "u-mallory", "Mallory", "mallory@example.com")

	created, err := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core).CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com"},
	})
	require.NoError(t, err)

	result, err := NewSpaceInvitationLogic(env.contextFor("u-mallory"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	assert.Equal(t, types.ACCEPT_INVITATION_EMAIL_MISMATCH, result.Reason)
}

func TestAcceptInvitationLinkAnyUser(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")

	created, err := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core).CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID: roleIDs.Member,
		Channel:     types.SPACE_INVITATION_CHANNEL_LINK,
	})
	require.NoError(t, err)

	result, err := NewSpaceInvitationLogic(env.contextFor("u-anyone"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	assert.Equal(t, types.ACCEPT_INVITATION_OK, result.Reason)
}

func TestAcceptInvitationExpiredLazyFlip(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	env.seedUser(t, "u-bob", "Bob", "bob@example.com")

	created, err := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core).CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com"},
	})
	require.NoError(t, err)

	// 回拨过期时间，状态仍是 PENDING
	env.provider.mu.Lock()
	env.provider.invitations[created[0].ID].ExpiredAt = time.Now().Add(-time.Hour).Unix()
	env.provider.mu.Unlock()

	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	assert.Equal(t, types.ACCEPT_INVITATION_EXPIRED, result.Reason)

	// 读时已落库为 EXPIRED
	stored, err := env.provider.SpaceInvitationStore().GetByID(context.Background(), types.DEFAULT_APPID, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, types.SPACE_INVITATION_STATUS_EXPIRED, stored.InviteStatus)
}

func TestAcceptInvitationRevoked(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	ownerLogic := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core)

	created, err := ownerLogic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID: roleIDs.Member,
		Channel:     types.SPACE_INVITATION_CHANNEL_LINK,
	})
	require.NoError(t, err)

	require.NoError(t, ownerLogic.RevokeInvitation("space-1", created[0].ID))

	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	assert.Equal(t, types.ACCEPT_INVITATION_REVOKED, result.Reason)

	// 非 PENDING 不可再撤销
	err = ownerLogic.RevokeInvitation("space-1", created[0].ID)
	requireCode(t, err, http.StatusForbidden)
}

func TestAcceptInvitationReactivatesMember(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	env.seedUser(t, "u-bob", "Bob", "bob@example.com")
	bobID := env.seedMember(t, "space-1", "u-bob", roleIDs.Member, types.RoleTypeMember)

	require.NoError(t, NewSpaceMemberLogic(env.contextFor("u-owner"), env.core).RemoveMember("space-1", bobID))

	created, err := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core).CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com"},
	})
	require.NoError(t, err)

	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	require.Equal(t, types.ACCEPT_INVITATION_OK, result.Reason)
	assert.Equal(t, bobID, result.MemberID)

	member, err := env.provider.SpaceMemberStore().GetMember(context.Background(), types.DEFAULT_APPID, "space-1", bobID)
	require.NoError(t, err)
	assert.False(t, member.IsDeleted)
}

func TestAcceptInvitationIdempotentForActiveMember(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")

	created, err := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core).CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID: roleIDs.Member,
		Channel:     types.SPACE_INVITATION_CHANNEL_LINK,
	})
	require.NoError(t, err)

	bobID := env.seedMember(t, "space-1", "u-bob", roleIDs.Admin, types.RoleTypeAdmin)

	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	require.Equal(t, types.ACCEPT_INVITATION_OK, result.Reason)
	assert.Equal(t, bobID, result.MemberID)

	// 在册成员重复接受不改动现有角色
	member, err := env.provider.SpaceMemberStore().GetMember(context.Background(), types.DEFAULT_APPID, "space-1", bobID)
	require.NoError(t, err)
	assert.Equal(t, roleIDs.Admin, member.SpaceRoleID)
	assert.Equal(t, types.RoleTypeAdmin, member.Role)
}

func TestAcceptInvitationDeletedRoleFallsBack(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")

	custom, err := NewSpaceRoleLogic(env.contextFor("u-owner"), env.core).CreateRole("space-1", "Editors", "", nil)
	require.NoError(t, err)

	created, err := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core).CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID: custom.ID,
		Channel:     types.SPACE_INVITATION_CHANNEL_LINK,
	})
	require.NoError(t, err)

	// 角色在等待期间被直接软删，跳过级联改挂
	require.NoError(t, env.provider.SpaceRoleStore().SoftDelete(context.Background(), types.DEFAULT_APPID, "space-1", custom.ID))

	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	require.Equal(t, types.ACCEPT_INVITATION_OK, result.Reason)

	member, err := env.provider.SpaceMemberStore().GetMember(context.Background(), types.DEFAULT_APPID, "space-1", result.MemberID)
	require.NoError(t, err)
	assert.Equal(t, roleIDs.Member, member.SpaceRoleID)
	assert.Equal(t, types.RoleTypeMember, member.Role)
}

func TestResendInvitation(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	logic := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core)

	created, err := logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com"},
	})
	require.NoError(t, err)

	resent, err := logic.ResendInvitation("space-1", created[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, created[0].Token, resent.Token)

	stored, err := env.provider.SpaceInvitationStore().GetByID(context.Background(), types.DEFAULT_APPID, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, utils.HashInviteToken(resent.Token), stored.TokenHash)
	assert.EqualValues(t, 1, stored.ResendCount)

	// 旧令牌作废
	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	assert.Equal(t, types.ACCEPT_INVITATION_NOT_FOUND, result.Reason)
}

func TestResendInvitationExpired(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	logic := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core)

	created, err := logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID: roleIDs.Member,
		Channel:     types.SPACE_INVITATION_CHANNEL_LINK,
	})
	require.NoError(t, err)

	env.provider.mu.Lock()
	env.provider.invitations[created[0].ID].ExpiredAt = time.Now().Add(-time.Hour).Unix()
	env.provider.mu.Unlock()

	// 读时翻转为 EXPIRED 后不可重发
	_, err = logic.ResendInvitation("space-1", created[0].ID)
	requireCode(t, err, http.StatusForbidden)

	stored, err := env.provider.SpaceInvitationStore().GetByID(context.Background(), types.DEFAULT_APPID, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, types.SPACE_INVITATION_STATUS_EXPIRED, stored.InviteStatus)
	assert.EqualValues(t, 0, stored.ResendCount)
}

func TestResendInvitationGuards(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	logic := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core)

	created, err := logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID: roleIDs.Member,
		Channel:     types.SPACE_INVITATION_CHANNEL_LINK,
	})
	require.NoError(t, err)

	result, err := NewSpaceInvitationLogic(env.contextFor("u-bob"), env.core).AcceptInvitation(created[0].Token)
	require.NoError(t, err)
	require.Equal(t, types.ACCEPT_INVITATION_OK, result.Reason)

	// 已接受的邀请不可重发
	_, err = logic.ResendInvitation("space-1", created[0].ID)
	requireCode(t, err, http.StatusForbidden)

	_, err = logic.ResendInvitation("space-1", 404404)
	requireCode(t, err, http.StatusNotFound)
}

func TestListInvitationsLazyExpire(t *testing.T) {
	env := newTestEnv(t)
	roleIDs := env.seedSpace(t, "space-1", "u-owner")
	env.seedUser(t, "u-owner", "Alice", "alice@example.com")
	logic := NewSpaceInvitationLogic(env.contextFor("u-owner"), env.core)

	created, err := logic.CreateInvitations("space-1", CreateInvitationArgs{
		SpaceRoleID:   roleIDs.Member,
		Channel:       types.SPACE_INVITATION_CHANNEL_EMAIL,
		InviteeEmails: []string{"bob@example.com", "carol@example.com"},
	})
	require.NoError(t, err)

	env.provider.mu.Lock()
	env.provider.invitations[created[0].ID].ExpiredAt = time.Now().Add(-time.Hour).Unix()
	env.provider.mu.Unlock()

	list, total, err := logic.ListInvitations("space-1", types.ListSpaceInvitationOptions{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)

	byID := make(map[int64]Invitation)
	for _, v := range list {
		byID[v.ID] = v
		assert.Equal(t, "Alice", v.Inviter)
	}
	assert.Equal(t, types.SPACE_INVITATION_STATUS_EXPIRED, byID[created[0].ID].InviteStatus)
	assert.Equal(t, types.SPACE_INVITATION_STATUS_PENDING, byID[created[1].ID].InviteStatus)

	stored, err := env.provider.SpaceInvitationStore().GetByID(context.Background(), types.DEFAULT_APPID, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, types.SPACE_INVITATION_STATUS_EXPIRED, stored.InviteStatus)

	// 按状态过滤
	list, _, err = logic.ListInvitations("space-1", types.ListSpaceInvitationOptions{
		Status: types.SPACE_INVITATION_STATUS_PENDING,
	}, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created[1].ID, list[0].ID)
}
