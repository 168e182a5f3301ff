package types

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// RoleType 内置角色档位，自定义角色为空值
type RoleType string

const (
	RoleTypeOwner  RoleType = "owner"
	RoleTypeAdmin  RoleType = "admin"
	RoleTypeMember RoleType = "member"
	// RoleTypeCustom 自定义角色没有内置档位
	RoleTypeCustom RoleType = ""
)

func (t RoleType) IsBuiltIn() bool {
	switch t {
	case RoleTypeOwner, RoleTypeAdmin, RoleTypeMember:
		return true
	default:
		return false
	}
}

// ProjectCoarseTier 由角色的内置档位推导成员的粗粒度档位
// owner/admin 原样映射，其余（member 内置或自定义角色）一律 member
func ProjectCoarseTier(builtInType RoleType) RoleType {
	switch builtInType {
	case RoleTypeOwner:
		return RoleTypeOwner
	case RoleTypeAdmin:
		return RoleTypeAdmin
	default:
		return RoleTypeMember
	}
}

// SpaceRole 空间角色表结构
type SpaceRole struct {
	ID          string         `json:"id" db:"id"`
	Appid       string         `json:"appid" db:"appid"`
	SpaceID     string         `json:"space_id" db:"space_id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	IsBuiltIn   bool           `json:"is_built_in" db:"is_built_in"`
	BuiltInType RoleType       `json:"built_in_type" db:"built_in_type"` // 自定义角色为空
	Permissions pq.StringArray `json:"permissions" db:"permissions"`
	IsDeleted   bool           `json:"is_deleted" db:"is_deleted"`
	CreatedBy   string         `json:"created_by" db:"created_by"`
	CreatedAt   int64          `json:"created_at" db:"created_at"`
	UpdatedAt   int64          `json:"updated_at" db:"updated_at"`
}

func (r *SpaceRole) HasPermission(key PermissionKey) bool {
	for _, v := range r.Permissions {
		if PermissionKey(v) == key {
			return true
		}
	}
	return false
}

// PermissionSet 将存储层的字符串数组还原为权限集合
func PermissionSet(keys []PermissionKey) pq.StringArray {
	res := make(pq.StringArray, 0, len(keys))
	for _, v := range keys {
		res = append(res, string(v))
	}
	return res
}

// UpdateSpaceRoleArgs 部分更新，nil 字段保持原值
type UpdateSpaceRoleArgs struct {
	Name        *string
	Description *string
	Permissions []PermissionKey
}

// BuiltInRoleIDs 一个空间三个内置角色的ID
type BuiltInRoleIDs struct {
	Owner  string `json:"owner"`
	Admin  string `json:"admin"`
	Member string `json:"member"`
}

// RoleCascadeResult 删除自定义角色时级联降级的数量统计
type RoleCascadeResult struct {
	DowngradedMemberCount     int64 `json:"downgraded_member_count"`
	DowngradedInvitationCount int64 `json:"downgraded_invitation_count"`
}

type ListSpaceRoleOptions struct {
	Appid          string
	SpaceID        string
	IncludeDeleted bool
}

func (opts ListSpaceRoleOptions) Apply(query *sq.SelectBuilder) {
	if opts.Appid != "" {
		*query = query.Where(sq.Eq{"appid": opts.Appid})
	}
	if opts.SpaceID != "" {
		*query = query.Where(sq.Eq{"space_id": opts.SpaceID})
	}
	if !opts.IncludeDeleted {
		*query = query.Where(sq.Eq{"is_deleted": false})
	}
}
