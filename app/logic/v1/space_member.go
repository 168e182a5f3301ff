package v1

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/samber/lo"

	"github.com/notevault/notevault/app/core"
	"github.com/notevault/notevault/pkg/errors"
	"github.com/notevault/notevault/pkg/i18n"
	"github.com/notevault/notevault/pkg/types"
)

type SpaceMemberLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewSpaceMemberLogic(ctx context.Context, core *core.Core) *SpaceMemberLogic {
	l := &SpaceMemberLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}

	return l
}

// normalizePagination 页码与页大小收敛到合法区间
func normalizePagination(page, pageSize uint64) (uint64, uint64) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = types.DEFAULT_PAGE_SIZE
	}
	if pageSize > types.MAX_PAGE_SIZE {
		pageSize = types.MAX_PAGE_SIZE
	}
	return page, pageSize
}

func (l *SpaceMemberLogic) ListMembers(spaceID, keywords string, page, pageSize uint64) ([]types.SpaceMemberDetail, int64, error) {
	if err := l.Identification(spaceID, types.PermissionMemberView); err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePagination(page, pageSize)

	opts := types.ListSpaceMemberOptions{
		Appid:    l.GetUserInfo().Appid,
		SpaceID:  spaceID,
		Keywords: keywords,
	}

	list, err := l.core.Store().SpaceMemberStore().List(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("SpaceMemberLogic.ListMembers.SpaceMemberStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().SpaceMemberStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("SpaceMemberLogic.ListMembers.SpaceMemberStore.Total", i18n.ERROR_INTERNAL, err)
	}

	if len(list) == 0 {
		return nil, total, nil
	}

	userIDs := lo.Uniq(lo.Map(list, func(item types.SpaceMember, _ int) string {
		return item.UserID
	}))

	users, err := l.core.Store().UserStore().ListUsers(l.ctx, types.ListUserOptions{
		Appid: l.GetUserInfo().Appid,
		IDs:   userIDs,
	}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		return nil, 0, errors.New("SpaceMemberLogic.ListMembers.UserStore.ListUsers", i18n.ERROR_INTERNAL, err)
	}

	userMap := lo.SliceToMap(users, func(user types.User) (string, types.User) {
		return user.ID, user
	})

	result := lo.Map(list, func(item types.SpaceMember, _ int) types.SpaceMemberDetail {
		user := userMap[item.UserID]
		return types.SpaceMemberDetail{
			ID:          item.ID,
			SpaceID:     item.SpaceID,
			UserID:      item.UserID,
			Role:        item.Role,
			SpaceRoleID: item.SpaceRoleID,
			Name:        user.Name,
			Email:       user.Email,
			Avatar:      user.Avatar,
			CreatedAt:   item.CreatedAt,
		}
	})

	return result, total, nil
}

// UpdateMemberRole 调整成员角色，粗粒度档位随新角色一并投影落库
func (l *SpaceMemberLogic) UpdateMemberRole(spaceID, memberID, roleID string) error {
	if err := l.Identification(spaceID, types.PermissionMemberRoleChange); err != nil {
		return err
	}

	appid := l.GetUserInfo().Appid
	member, err := l.core.Store().SpaceMemberStore().GetMember(l.ctx, appid, spaceID, memberID)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("SpaceMemberLogic.UpdateMemberRole.SpaceMemberStore.GetMember", i18n.ERROR_INTERNAL, err)
	}

	if member == nil || member.IsDeleted {
		return errors.New("SpaceMemberLogic.UpdateMemberRole.nil", i18n.ERROR_MEMBER_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	if member.Role == types.RoleTypeOwner {
		return errors.New("SpaceMemberLogic.UpdateMemberRole.Owner", i18n.ERROR_OWNER_MEMBER_IMMUTABLE, nil).Code(http.StatusForbidden)
	}

	role, err := l.resolveAssignableRole(spaceID, roleID)
	if err != nil {
		return err
	}

	if err = l.core.Store().SpaceMemberStore().UpdateRole(l.ctx, appid, spaceID, memberID, role.ID, types.ProjectCoarseTier(role.BuiltInType)); err != nil {
		return errors.New("SpaceMemberLogic.UpdateMemberRole.SpaceMemberStore.UpdateRole", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// BatchUpdateMemberRole 批量调整，任何一个成员不满足条件则整体失败
func (l *SpaceMemberLogic) BatchUpdateMemberRole(spaceID string, memberIDs []string, roleID string) error {
	if err := l.Identification(spaceID, types.PermissionMemberRoleChange); err != nil {
		return err
	}

	memberIDs = lo.Uniq(memberIDs)
	if len(memberIDs) == 0 {
		return errors.New("SpaceMemberLogic.BatchUpdateMemberRole.Empty", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	appid := l.GetUserInfo().Appid
	members, err := l.core.Store().SpaceMemberStore().ListMembersByIDs(l.ctx, appid, spaceID, memberIDs)
	if err != nil {
		return errors.New("SpaceMemberLogic.BatchUpdateMemberRole.SpaceMemberStore.ListMembersByIDs", i18n.ERROR_INTERNAL, err)
	}

	if len(members) != len(memberIDs) {
		return errors.New("SpaceMemberLogic.BatchUpdateMemberRole.Missing", i18n.ERROR_MEMBER_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	for _, member := range members {
		if member.Role == types.RoleTypeOwner {
			return errors.New("SpaceMemberLogic.BatchUpdateMemberRole.Owner", i18n.ERROR_OWNER_MEMBER_IMMUTABLE, nil).Code(http.StatusForbidden)
		}
	}

	role, err := l.resolveAssignableRole(spaceID, roleID)
	if err != nil {
		return err
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().SpaceMemberStore().UpdateMembersRole(ctx, appid, spaceID, memberIDs, role.ID, types.ProjectCoarseTier(role.BuiltInType)); err != nil {
			return errors.New("SpaceMemberLogic.BatchUpdateMemberRole.SpaceMemberStore.UpdateMembersRole", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
}

// resolveAssignableRole owner 内置角色不可被指派给成员
func (l *SpaceMemberLogic) resolveAssignableRole(spaceID, roleID string) (*types.SpaceRole, error) {
	role, err := l.core.Store().SpaceRoleStore().GetRole(l.ctx, l.GetUserInfo().Appid, spaceID, roleID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceMemberLogic.resolveAssignableRole.SpaceRoleStore.GetRole", i18n.ERROR_INTERNAL, err)
	}

	if role == nil || role.IsDeleted {
		return nil, errors.New("SpaceMemberLogic.resolveAssignableRole.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	if role.BuiltInType == types.RoleTypeOwner {
		return nil, errors.New("SpaceMemberLogic.resolveAssignableRole.Owner", i18n.ERROR_OWNER_ROLE_IMMUTABLE, nil).Code(http.StatusForbidden)
	}

	return role, nil
}

func (l *SpaceMemberLogic) RemoveMember(spaceID, memberID string) error {
	if err := l.Identification(spaceID, types.PermissionMemberRemove); err != nil {
		return err
	}

	appid := l.GetUserInfo().Appid
	member, err := l.core.Store().SpaceMemberStore().GetMember(l.ctx, appid, spaceID, memberID)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("SpaceMemberLogic.RemoveMember.SpaceMemberStore.GetMember", i18n.ERROR_INTERNAL, err)
	}

	if member == nil || member.IsDeleted {
		return errors.New("SpaceMemberLogic.RemoveMember.nil", i18n.ERROR_MEMBER_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	if member.Role == types.RoleTypeOwner {
		return errors.New("SpaceMemberLogic.RemoveMember.Owner", i18n.ERROR_OWNER_MEMBER_IMMUTABLE, nil).Code(http.StatusForbidden)
	}

	if err = l.core.Store().SpaceMemberStore().Remove(l.ctx, appid, spaceID, memberID); err != nil {
		return errors.New("SpaceMemberLogic.RemoveMember.SpaceMemberStore.Remove", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// BatchRemoveMembers 批量移除，任何一个成员不满足条件则整体失败
func (l *SpaceMemberLogic) BatchRemoveMembers(spaceID string, memberIDs []string) error {
	if err := l.Identification(spaceID, types.PermissionMemberRemove); err != nil {
		return err
	}

	memberIDs = lo.Uniq(memberIDs)
	if len(memberIDs) == 0 {
		return errors.New("SpaceMemberLogic.BatchRemoveMembers.Empty", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	appid := l.GetUserInfo().Appid
	members, err := l.core.Store().SpaceMemberStore().ListMembersByIDs(l.ctx, appid, spaceID, memberIDs)
	if err != nil {
		return errors.New("SpaceMemberLogic.BatchRemoveMembers.SpaceMemberStore.ListMembersByIDs", i18n.ERROR_INTERNAL, err)
	}

	if len(members) != len(memberIDs) {
		return errors.New("SpaceMemberLogic.BatchRemoveMembers.Missing", i18n.ERROR_MEMBER_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	for _, member := range members {
		if member.Role == types.RoleTypeOwner {
			return errors.New("SpaceMemberLogic.BatchRemoveMembers.Owner", i18n.ERROR_OWNER_MEMBER_IMMUTABLE, nil).Code(http.StatusForbidden)
		}
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().SpaceMemberStore().RemoveMembers(ctx, appid, spaceID, memberIDs); err != nil {
			return errors.New("SpaceMemberLogic.BatchRemoveMembers.SpaceMemberStore.RemoveMembers", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
}
