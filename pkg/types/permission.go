package types

// PermissionKey 空间内权限点，闭集，边界校验时拒绝集合外的值
type PermissionKey string

const (
	PermissionSpaceView     PermissionKey = "space.view"
	PermissionSpaceEdit     PermissionKey = "space.edit"
	PermissionSpaceSettings PermissionKey = "space.settings"
	PermissionSpaceDelete   PermissionKey = "space.delete"

	PermissionMemberView       PermissionKey = "member.view"
	PermissionMemberInvite     PermissionKey = "member.invite"
	PermissionMemberRemove     PermissionKey = "member.remove"
	PermissionMemberRoleChange PermissionKey = "member.role.change"

	PermissionRoleView   PermissionKey = "role.view"
	PermissionRoleManage PermissionKey = "role.manage"

	PermissionPageView   PermissionKey = "page.view"
	PermissionPageCreate PermissionKey = "page.create"
	PermissionPageEdit   PermissionKey = "page.edit"
	PermissionPageDelete PermissionKey = "page.delete"
	PermissionPageMove   PermissionKey = "page.move"
	PermissionPageExport PermissionKey = "page.export"

	PermissionShareCreate PermissionKey = "share.create"
	PermissionShareRevoke PermissionKey = "share.revoke"

	PermissionCommentCreate    PermissionKey = "comment.create"
	PermissionCommentEditOwn   PermissionKey = "comment.edit.own"
	PermissionCommentDeleteOwn PermissionKey = "comment.delete.own"
	PermissionCommentDeleteAny PermissionKey = "comment.delete.any"
	PermissionCommentResolve   PermissionKey = "comment.resolve"

	PermissionLikeAdd PermissionKey = "like.add"

	PermissionAttachmentUpload PermissionKey = "attachment.upload"

	PermissionIndexQuery   PermissionKey = "index.query"
	PermissionIndexRebuild PermissionKey = "index.rebuild"
)

// permissionCatalog 权限全集，顺序即 OWNER 内置角色的默认权限集
var permissionCatalog = []PermissionKey{
	PermissionSpaceView,
	PermissionSpaceEdit,
	PermissionSpaceSettings,
	PermissionSpaceDelete,
	PermissionMemberView,
	PermissionMemberInvite,
	PermissionMemberRemove,
	PermissionMemberRoleChange,
	PermissionRoleView,
	PermissionRoleManage,
	PermissionPageView,
	PermissionPageCreate,
	PermissionPageEdit,
	PermissionPageDelete,
	PermissionPageMove,
	PermissionPageExport,
	PermissionShareCreate,
	PermissionShareRevoke,
	PermissionCommentCreate,
	PermissionCommentEditOwn,
	PermissionCommentDeleteOwn,
	PermissionCommentDeleteAny,
	PermissionCommentResolve,
	PermissionLikeAdd,
	PermissionAttachmentUpload,
	PermissionIndexQuery,
	PermissionIndexRebuild,
}

var permissionCatalogSet = func() map[PermissionKey]struct{} {
	m := make(map[PermissionKey]struct{}, len(permissionCatalog))
	for _, v := range permissionCatalog {
		m[v] = struct{}{}
	}
	return m
}()

func IsValidPermission(key PermissionKey) bool {
	_, ok := permissionCatalogSet[key]
	return ok
}

// PermissionCatalog 返回权限全集的拷贝
func PermissionCatalog() []PermissionKey {
	res := make([]PermissionKey, len(permissionCatalog))
	copy(res, permissionCatalog)
	return res
}

// DefaultPermissions 内置角色首次落库时的默认权限集
// OWNER 为全集，ADMIN 为全集去掉空间删除，MEMBER 为内容协作子集
func DefaultPermissions(tier RoleType) []PermissionKey {
	switch tier {
	case RoleTypeOwner:
		return PermissionCatalog()
	case RoleTypeAdmin:
		var res []PermissionKey
		for _, v := range permissionCatalog {
			if v == PermissionSpaceDelete {
				continue
			}
			res = append(res, v)
		}
		return res
	case RoleTypeMember:
		return []PermissionKey{
			PermissionSpaceView,
			PermissionMemberView,
			PermissionPageView,
			PermissionPageCreate,
			PermissionPageEdit,
			PermissionPageExport,
			PermissionShareCreate,
			PermissionCommentCreate,
			PermissionCommentEditOwn,
			PermissionCommentDeleteOwn,
			PermissionCommentResolve,
			PermissionLikeAdd,
			PermissionAttachmentUpload,
			PermissionIndexQuery,
		}
	default:
		return nil
	}
}
