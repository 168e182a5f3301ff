package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/notevault/notevault/app/core"
	"github.com/notevault/notevault/app/store"
	"github.com/notevault/notevault/pkg/errors"
	"github.com/notevault/notevault/pkg/i18n"
	"github.com/notevault/notevault/pkg/types"
	"github.com/notevault/notevault/pkg/utils"
)

type SpaceRoleLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewSpaceRoleLogic(ctx context.Context, core *core.Core) *SpaceRoleLogic {
	l := &SpaceRoleLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}

	return l
}

// EnsureBuiltInRoles 幂等补齐空间的三个内置角色
// 并发补建由数据库部分唯一索引裁决，冲突方读取已落库的一行
func (l *SpaceRoleLogic) EnsureBuiltInRoles(spaceID string) (types.BuiltInRoleIDs, error) {
	var result types.BuiltInRoleIDs

	for _, tier := range []types.RoleType{types.RoleTypeOwner, types.RoleTypeAdmin, types.RoleTypeMember} {
		role, err := l.ensureBuiltInRole(spaceID, tier)
		if err != nil {
			return types.BuiltInRoleIDs{}, err
		}

		switch tier {
		case types.RoleTypeOwner:
			result.Owner = role.ID
		case types.RoleTypeAdmin:
			result.Admin = role.ID
		case types.RoleTypeMember:
			result.Member = role.ID
		}
	}

	return result, nil
}

func (l *SpaceRoleLogic) ensureBuiltInRole(spaceID string, tier types.RoleType) (*types.SpaceRole, error) {
	appid := l.GetUserInfo().Appid

	role, err := l.core.Store().SpaceRoleStore().GetBuiltInRole(l.ctx, appid, spaceID, tier)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceRoleLogic.ensureBuiltInRole.SpaceRoleStore.GetBuiltInRole", i18n.ERROR_INTERNAL, err)
	}
	if role != nil {
		return role, nil
	}

	now := time.Now().Unix()
	err = l.core.Store().SpaceRoleStore().Create(l.ctx, types.SpaceRole{
		ID:          utils.GenUniqIDStr(),
		Appid:       appid,
		SpaceID:     spaceID,
		Name:        builtInRoleName(tier),
		IsBuiltIn:   true,
		BuiltInType: tier,
		Permissions: types.PermissionSet(types.DefaultPermissions(tier)),
		CreatedBy:   l.GetUserInfo().User,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		// 另一请求先建成了同档内置角色，以落库的一行为准
		if store.IsConflict(err) {
			role, err = l.core.Store().SpaceRoleStore().GetBuiltInRole(l.ctx, appid, spaceID, tier)
			if err != nil {
				return nil, errors.New("SpaceRoleLogic.ensureBuiltInRole.Reread", i18n.ERROR_INTERNAL, err)
			}
			return role, nil
		}
		return nil, errors.New("SpaceRoleLogic.ensureBuiltInRole.SpaceRoleStore.Create", i18n.ERROR_INTERNAL, err)
	}

	role, err = l.core.Store().SpaceRoleStore().GetBuiltInRole(l.ctx, appid, spaceID, tier)
	if err != nil {
		return nil, errors.New("SpaceRoleLogic.ensureBuiltInRole.Get", i18n.ERROR_INTERNAL, err)
	}
	return role, nil
}

func builtInRoleName(tier types.RoleType) string {
	switch tier {
	case types.RoleTypeOwner:
		return "Owner"
	case types.RoleTypeAdmin:
		return "Admin"
	default:
		return "Member"
	}
}

func (l *SpaceRoleLogic) GetRole(spaceID, id string) (*types.SpaceRole, error) {
	if err := l.Identification(spaceID, types.PermissionRoleView); err != nil {
		return nil, err
	}

	role, err := l.core.Store().SpaceRoleStore().GetRole(l.ctx, l.GetUserInfo().Appid, spaceID, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceRoleLogic.GetRole.SpaceRoleStore.GetRole", i18n.ERROR_INTERNAL, err)
	}

	if role == nil || role.IsDeleted {
		return nil, errors.New("SpaceRoleLogic.GetRole.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return role, nil
}

// ListRoles 列表前先补齐内置角色，结果永远包含三个内置档位
func (l *SpaceRoleLogic) ListRoles(spaceID string) ([]types.SpaceRole, int64, error) {
	if err := l.Identification(spaceID, types.PermissionRoleView); err != nil {
		return nil, 0, err
	}

	if _, err := l.EnsureBuiltInRoles(spaceID); err != nil {
		return nil, 0, err
	}

	opts := types.ListSpaceRoleOptions{
		Appid:   l.GetUserInfo().Appid,
		SpaceID: spaceID,
	}

	list, err := l.core.Store().SpaceRoleStore().List(l.ctx, opts, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		return nil, 0, errors.New("SpaceRoleLogic.ListRoles.SpaceRoleStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().SpaceRoleStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("SpaceRoleLogic.ListRoles.SpaceRoleStore.Total", i18n.ERROR_INTERNAL, err)
	}

	return list, total, nil
}

func (l *SpaceRoleLogic) CreateRole(spaceID, name, description string, permissions []types.PermissionKey) (*types.SpaceRole, error) {
	if err := l.Identification(spaceID, types.PermissionRoleManage); err != nil {
		return nil, err
	}

	if name == "" {
		return nil, errors.New("SpaceRoleLogic.CreateRole.EmptyName", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	if err := validatePermissions("SpaceRoleLogic.CreateRole", permissions); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	role := types.SpaceRole{
		ID:          utils.GenUniqIDStr(),
		Appid:       l.GetUserInfo().Appid,
		SpaceID:     spaceID,
		Name:        name,
		Description: description,
		Permissions: types.PermissionSet(permissions),
		CreatedBy:   l.GetUserInfo().User,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := l.core.Store().SpaceRoleStore().Create(l.ctx, role); err != nil {
		return nil, errors.New("SpaceRoleLogic.CreateRole.SpaceRoleStore.Create", i18n.ERROR_INTERNAL, err)
	}

	return &role, nil
}

// UpdateRole 部分更新，未提交的字段保持原值
// owner 内置角色任何字段都不可改，其余内置角色只允许调整权限集
func (l *SpaceRoleLogic) UpdateRole(spaceID, id string, args types.UpdateSpaceRoleArgs) (*types.SpaceRole, error) {
	if err := l.Identification(spaceID, types.PermissionRoleManage); err != nil {
		return nil, err
	}

	appid := l.GetUserInfo().Appid
	role, err := l.core.Store().SpaceRoleStore().GetRole(l.ctx, appid, spaceID, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceRoleLogic.UpdateRole.SpaceRoleStore.GetRole", i18n.ERROR_INTERNAL, err)
	}

	if role == nil || role.IsDeleted {
		return nil, errors.New("SpaceRoleLogic.UpdateRole.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	if role.IsBuiltIn {
		if role.BuiltInType == types.RoleTypeOwner {
			return nil, errors.New("SpaceRoleLogic.UpdateRole.Owner", i18n.ERROR_OWNER_ROLE_IMMUTABLE, nil).Code(http.StatusForbidden)
		}
		if args.Name != nil || args.Description != nil {
			return nil, errors.New("SpaceRoleLogic.UpdateRole.BuiltIn", i18n.ERROR_BUILTIN_ROLE_READONLY, nil).Code(http.StatusForbidden)
		}
	}

	name := role.Name
	if args.Name != nil {
		if *args.Name == "" {
			return nil, errors.New("SpaceRoleLogic.UpdateRole.EmptyName", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
		}
		name = *args.Name
	}

	description := role.Description
	if args.Description != nil {
		description = *args.Description
	}

	permissions := role.Permissions
	if args.Permissions != nil {
		if err := validatePermissions("SpaceRoleLogic.UpdateRole", args.Permissions); err != nil {
			return nil, err
		}
		permissions = types.PermissionSet(args.Permissions)
	}

	if err := l.core.Store().SpaceRoleStore().Update(l.ctx, appid, spaceID, id, name, description, permissions); err != nil {
		return nil, errors.New("SpaceRoleLogic.UpdateRole.SpaceRoleStore.Update", i18n.ERROR_INTERNAL, err)
	}

	role.Name = name
	role.Description = description
	role.Permissions = permissions
	return role, nil
}

// DeleteRole 软删自定义角色，同一事务内把挂在该角色上的成员与待处理邀请降级到内置成员角色
func (l *SpaceRoleLogic) DeleteRole(spaceID, id string) (*types.RoleCascadeResult, error) {
	if err := l.Identification(spaceID, types.PermissionRoleManage); err != nil {
		return nil, err
	}

	appid := l.GetUserInfo().Appid
	role, err := l.core.Store().SpaceRoleStore().GetRole(l.ctx, appid, spaceID, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceRoleLogic.DeleteRole.SpaceRoleStore.GetRole", i18n.ERROR_INTERNAL, err)
	}

	if role == nil || role.IsDeleted {
		return nil, errors.New("SpaceRoleLogic.DeleteRole.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	if role.IsBuiltIn {
		return nil, errors.New("SpaceRoleLogic.DeleteRole.BuiltIn", i18n.ERROR_BUILTIN_ROLE_UNDELETABLE, nil).Code(http.StatusForbidden)
	}

	fallback, err := l.core.Store().SpaceRoleStore().GetBuiltInRole(l.ctx, appid, spaceID, types.RoleTypeMember)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceRoleLogic.DeleteRole.SpaceRoleStore.GetBuiltInRole", i18n.ERROR_INTERNAL, err)
	}

	if fallback == nil {
		return nil, errors.New("SpaceRoleLogic.DeleteRole.FallbackMissing", i18n.ERROR_FALLBACK_ROLE_MISSING, nil).Code(http.StatusConflict)
	}

	var result types.RoleCascadeResult
	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		members, err := l.core.Store().SpaceMemberStore().RetargetRole(ctx, appid, spaceID, id, fallback.ID, types.RoleTypeMember)
		if err != nil {
			return errors.New("SpaceRoleLogic.DeleteRole.SpaceMemberStore.RetargetRole", i18n.ERROR_INTERNAL, err)
		}

		invitations, err := l.core.Store().SpaceInvitationStore().RetargetRole(ctx, appid, spaceID, id, fallback.ID, types.RoleTypeMember)
		if err != nil {
			return errors.New("SpaceRoleLogic.DeleteRole.SpaceInvitationStore.RetargetRole", i18n.ERROR_INTERNAL, err)
		}

		if err = l.core.Store().SpaceRoleStore().SoftDelete(ctx, appid, spaceID, id); err != nil {
			return errors.New("SpaceRoleLogic.DeleteRole.SpaceRoleStore.SoftDelete", i18n.ERROR_INTERNAL, err)
		}

		result.DowngradedMemberCount = members
		result.DowngradedInvitationCount = invitations
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.core.Metrics().RoleCascadeAdd("member", result.DowngradedMemberCount)
	l.core.Metrics().RoleCascadeAdd("invitation", result.DowngradedInvitationCount)

	return &result, nil
}

func validatePermissions(trace string, permissions []types.PermissionKey) error {
	for _, key := range permissions {
		if !types.IsValidPermission(key) {
			return errors.New(trace+".InvalidPermission."+string(key), i18n.ERROR_INVALID_PERMISSION, nil).Code(http.StatusBadRequest)
		}
	}
	return nil
}
