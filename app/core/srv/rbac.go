package srv

import (
	"github.com/mikespook/gorbac/v2"

	"github.com/notevault/notevault/pkg/types"
)

// SetupRBACSrv 以内置三档角色构建继承链，各档位挂载默认权限集
// 自定义角色不进入该实例，其权限以角色行存储的权限集为准
func SetupRBACSrv() *RBACSrv {
	rbac := gorbac.New()

	roleOwner := gorbac.NewStdRole(string(types.RoleTypeOwner))
	roleAdmin := gorbac.NewStdRole(string(types.RoleTypeAdmin))
	roleMember := gorbac.NewStdRole(string(types.RoleTypeMember))

	for tier, role := range map[types.RoleType]*gorbac.StdRole{
		types.RoleTypeOwner:  roleOwner,
		types.RoleTypeAdmin:  roleAdmin,
		types.RoleTypeMember: roleMember,
	} {
		for _, key := range types.DefaultPermissions(tier) {
			role.Assign(gorbac.NewStdPermission(string(key)))
		}
	}

	rbac.Add(roleOwner)
	rbac.Add(roleAdmin)
	rbac.Add(roleMember)

	// 档位继承关系 owner > admin > member
	rbac.SetParent(string(types.RoleTypeAdmin), string(types.RoleTypeMember))
	rbac.SetParent(string(types.RoleTypeOwner), string(types.RoleTypeAdmin))

	return &RBACSrv{
		rbac: rbac,
	}
}

type RBACSrv struct {
	rbac *gorbac.RBAC
}

// CheckPermission 检查档位是否有某权限
func (a *RBACSrv) CheckPermission(tier types.RoleType, key types.PermissionKey) bool {
	return a.rbac.IsGranted(string(tier), gorbac.NewStdPermission(string(key)), nil)
}
