package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/notevault/notevault/app/core"
	"github.com/notevault/notevault/pkg/errors"
	"github.com/notevault/notevault/pkg/i18n"
	"github.com/notevault/notevault/pkg/security"
	"github.com/notevault/notevault/pkg/types"
)

type _userInfo struct {
	ctx  context.Context
	core *core.Core
	u    *security.TokenClaims
}

func (u *_userInfo) GetUserInfo() security.TokenClaims {
	return *u.u
}

// Identification 校验当前用户在空间内是否持有某权限
// 成员挂载角色的存储权限集优先，角色行缺失时退回档位默认权限
func (u *_userInfo) Identification(spaceID string, key types.PermissionKey) error {
	member, err := u.core.Store().SpaceMemberStore().GetMemberByUserID(u.ctx, u.u.Appid, spaceID, u.u.User)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("_userInfo.Identification.SpaceMemberStore.GetMemberByUserID", i18n.ERROR_INTERNAL, err)
	}

	if member == nil || member.IsDeleted {
		return errors.New("_userInfo.Identification.NotMember", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden)
	}

	// owner 持有全部权限
	if member.Role == types.RoleTypeOwner {
		return nil
	}

	role, err := u.core.Store().SpaceRoleStore().GetRole(u.ctx, u.u.Appid, spaceID, member.SpaceRoleID)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("_userInfo.Identification.SpaceRoleStore.GetRole", i18n.ERROR_INTERNAL, err)
	}

	if role != nil && !role.IsDeleted {
		if role.HasPermission(key) {
			return nil
		}
		return errors.New("_userInfo.Identification.Denied", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden)
	}

	if u.core.Srv().RBAC().CheckPermission(member.Role, key) {
		return nil
	}
	return errors.New("_userInfo.Identification.TierDenied", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden)
}

func SetupUserInfo(ctx context.Context, core *core.Core) UserInfo {
	userInfo, ok := InjectTokenClaim(ctx)
	if !ok {
		slog.Error("Not found user in context", slog.String("component", "logic.v1.setupUserInfo"))
		userInfo = security.TokenClaims{}
	}
	return &_userInfo{
		ctx:  ctx,
		u:    &userInfo,
		core: core,
	}
}

type UserInfo interface {
	GetUserInfo() security.TokenClaims
	Identification(spaceID string, key types.PermissionKey) error
}
