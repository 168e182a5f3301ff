package store

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/notevault/notevault/pkg/sqlstore"
	"github.com/notevault/notevault/pkg/types"
)

// Provider 业务层依赖的存储端口集合，sqlstore.Provider 为生产实现
// 测试可用纯内存实现替换
type Provider interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	SpaceRoleStore() SpaceRoleStore
	SpaceMemberStore() SpaceMemberStore
	SpaceInvitationStore() SpaceInvitationStore
	UserStore() UserStore
}

// ErrAlreadyExists 内存实现用它表示唯一约束冲突，postgres 实现抛 pq 23505
var ErrAlreadyExists = errors.New("already exists")

// IsConflict 判断错误是否为唯一约束冲突，内置角色并发补建依赖该判定
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAlreadyExists) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type SpaceRoleStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.SpaceRole) error
	GetRole(ctx context.Context, appid, spaceID, id string) (*types.SpaceRole, error)
	GetBuiltInRole(ctx context.Context, appid, spaceID string, builtInType types.RoleType) (*types.SpaceRole, error)
	// Update 只更新名称/描述/权限集，is_built_in 与 built_in_type 不可变
	Update(ctx context.Context, appid, spaceID, id, name, description string, permissions pq.StringArray) error
	SoftDelete(ctx context.Context, appid, spaceID, id string) error
	List(ctx context.Context, opts types.ListSpaceRoleOptions, page, pageSize uint64) ([]types.SpaceRole, error)
	Total(ctx context.Context, opts types.ListSpaceRoleOptions) (int64, error)
}

type SpaceMemberStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.SpaceMember) error
	GetMember(ctx context.Context, appid, spaceID, id string) (*types.SpaceMember, error)
	GetMemberByUserID(ctx context.Context, appid, spaceID, userID string) (*types.SpaceMember, error)
	ListMembersByIDs(ctx context.Context, appid, spaceID string, ids []string) ([]types.SpaceMember, error)
	// UpdateRole 同时写 space_role_id 与投影档位，两者永不分开落库
	UpdateRole(ctx context.Context, appid, spaceID, id, roleID string, tier types.RoleType) error
	UpdateMembersRole(ctx context.Context, appid, spaceID string, ids []string, roleID string, tier types.RoleType) error
	// RetargetRole 把持有 fromRoleID 的在册成员改挂到 toRoleID，返回影响行数
	RetargetRole(ctx context.Context, appid, spaceID, fromRoleID, toRoleID string, tier types.RoleType) (int64, error)
	Remove(ctx context.Context, appid, spaceID, id string) error
	RemoveMembers(ctx context.Context, appid, spaceID string, ids []string) error
	Reactivate(ctx context.Context, appid, spaceID, id, roleID string, tier types.RoleType) error
	List(ctx context.Context, opts types.ListSpaceMemberOptions, page, pageSize uint64) ([]types.SpaceMember, error)
	Total(ctx context.Context, opts types.ListSpaceMemberOptions) (int64, error)
}

type SpaceInvitationStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.SpaceInvitation) error
	GetByID(ctx context.Context, appid string, id int64) (*types.SpaceInvitation, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*types.SpaceInvitation, error)
	GetPendingByEmail(ctx context.Context, appid, spaceID, inviteeEmail string) (*types.SpaceInvitation, error)
	UpdateStatus(ctx context.Context, appid string, id int64, status types.SpaceInvitationStatus) error
	MarkAccepted(ctx context.Context, appid string, id int64, acceptedBy string, acceptedAt int64) error
	// Resend 换发令牌并顺延过期时间，resend_count 自增
	Resend(ctx context.Context, appid string, id int64, tokenHash string, expiredAt, sentAt int64) error
	// RetargetRole 把仍为 PENDING 且指向 fromRoleID 的邀请改挂到 toRoleID，返回影响行数
	RetargetRole(ctx context.Context, appid, spaceID, fromRoleID, toRoleID string, tier types.RoleType) (int64, error)
	List(ctx context.Context, appid, spaceID string, opts types.ListSpaceInvitationOptions, page, pageSize uint64) ([]types.SpaceInvitation, error)
	Total(ctx context.Context, appid, spaceID string, opts types.ListSpaceInvitationOptions) (int64, error)
}

type UserStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.User) error
	GetUser(ctx context.Context, appid, id string) (*types.User, error)
	GetByEmail(ctx context.Context, appid, email string) (*types.User, error)
	ListUsers(ctx context.Context, opts types.ListUserOptions, page, pageSize uint64) ([]types.User, error)
	Total(ctx context.Context, opts types.ListUserOptions) (int64, error)
}
