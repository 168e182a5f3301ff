package types

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// SpaceMember 空间成员表结构
// Role 是 SpaceRoleID 指向角色 built_in_type 的投影，随 SpaceRoleID 一起写入
type SpaceMember struct {
	ID          string   `json:"id" db:"id"`
	Appid       string   `json:"appid" db:"appid"`
	SpaceID     string   `json:"space_id" db:"space_id"`
	UserID      string   `json:"user_id" db:"user_id"`
	Role        RoleType `json:"role" db:"role"`
	SpaceRoleID string   `json:"space_role_id" db:"space_role_id"`
	IsDeleted   bool     `json:"is_deleted" db:"is_deleted"`
	CreatedAt   int64    `json:"created_at" db:"created_at"`
	UpdatedAt   int64    `json:"updated_at" db:"updated_at"`
}

// SpaceMemberDetail 成员列表视图，带用户身份信息
type SpaceMemberDetail struct {
	ID          string   `json:"id"`
	SpaceID     string   `json:"space_id"`
	UserID      string   `json:"user_id"`
	Role        RoleType `json:"role"`
	SpaceRoleID string   `json:"space_role_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Avatar      string   `json:"avatar"`
	CreatedAt   int64    `json:"created_at"`
}

type ListSpaceMemberOptions struct {
	Appid          string
	SpaceID        string
	UserID         string
	SpaceRoleID    string
	Keywords       string
	IncludeDeleted bool
}

func (opts ListSpaceMemberOptions) Apply(query *sq.SelectBuilder) {
	prefix := TABLE_SPACE_MEMBER.Name()
	if opts.Appid != "" {
		*query = query.Where(sq.Eq{prefix + ".appid": opts.Appid})
	}
	if opts.SpaceID != "" {
		*query = query.Where(sq.Eq{prefix + ".space_id": opts.SpaceID})
	}
	if opts.UserID != "" {
		*query = query.Where(sq.Eq{prefix + ".user_id": opts.UserID})
	}
	if opts.SpaceRoleID != "" {
		*query = query.Where(sq.Eq{prefix + ".space_role_id": opts.SpaceRoleID})
	}
	if !opts.IncludeDeleted {
		*query = query.Where(sq.Eq{prefix + ".is_deleted": false})
	}
	if opts.Keywords != "" {
		*query = query.InnerJoin(fmt.Sprintf("%s as u ON u.id = %s.user_id", TABLE_USER.Name(), prefix)).
			Where(sq.Or{sq.Eq{"u.id": opts.Keywords}, sq.Like{"u.name": "%" + opts.Keywords + "%"}, sq.Eq{"u.email": opts.Keywords}})
	}
}
