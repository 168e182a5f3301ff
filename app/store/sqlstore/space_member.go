package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/notevault/notevault/pkg/register"
	"github.com/notevault/notevault/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.SpaceMemberStore = NewSpaceMemberStore(provider)
	})
}

// SpaceMemberStoreImpl 提供空间成员表的操作
type SpaceMemberStoreImpl struct {
	CommonFields
}

func NewSpaceMemberStore(provider SqlProviderAchieve) *SpaceMemberStoreImpl {
	repo := &SpaceMemberStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_SPACE_MEMBER)
	repo.SetAllColumns(
		"id", "appid", "space_id", "user_id", "role", "space_role_id",
		"is_deleted", "created_at", "updated_at",
	)
	return repo
}

func (s *SpaceMemberStoreImpl) Create(ctx context.Context, data types.SpaceMember) error {
	query := sq.Insert(s.GetTable()).
		Columns("id", "appid", "space_id", "user_id", "role", "space_role_id", "is_deleted", "created_at", "updated_at").
		Values(data.ID, data.Appid, data.SpaceID, data.UserID, data.Role, data.SpaceRoleID, data.IsDeleted, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceMemberStoreImpl) GetMember(ctx context.Context, appid, spaceID, id string) (*types.SpaceMember, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.SpaceMember
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetMemberByUserID 按用户查成员关系，包含已软删的行，复活逻辑需要区分二者
func (s *SpaceMemberStoreImpl) GetMemberByUserID(ctx context.Context, appid, spaceID, userID string) (*types.SpaceMember, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "user_id": userID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.SpaceMember
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *SpaceMemberStoreImpl) ListMembersByIDs(ctx context.Context, appid, spaceID string, ids []string) ([]types.SpaceMember, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": ids, "is_deleted": false})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.SpaceMember
	if err := s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateRole 角色指向与投影档位一条语句落库，不会出现只改其一的中间态
func (s *SpaceMemberStoreImpl) UpdateRole(ctx context.Context, appid, spaceID, id, roleID string, tier types.RoleType) error {
	query := sq.Update(s.GetTable()).
		Set("space_role_id", roleID).
		Set("role", tier).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceMemberStoreImpl) UpdateMembersRole(ctx context.Context, appid, spaceID string, ids []string, roleID string, tier types.RoleType) error {
	query := sq.Update(s.GetTable()).
		Set("space_role_id", roleID).
		Set("role", tier).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": ids})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// RetargetRole 把挂在 fromRoleID 上的在册成员整体改挂到 toRoleID
func (s *SpaceMemberStoreImpl) RetargetRole(ctx context.Context, appid, spaceID, fromRoleID, toRoleID string, tier types.RoleType) (int64, error) {
	query := sq.Update(s.GetTable()).
		Set("space_role_id", toRoleID).
		Set("role", tier).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "space_role_id": fromRoleID, "is_deleted": false})

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	result, err := s.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *SpaceMemberStoreImpl) Remove(ctx context.Context, appid, spaceID, id string) error {
	query := sq.Update(s.GetTable()).
		Set("is_deleted", true).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceMemberStoreImpl) RemoveMembers(ctx context.Context, appid, spaceID string, ids []string) error {
	query := sq.Update(s.GetTable()).
		Set("is_deleted", true).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": ids})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Reactivate 复活软删成员并重置其角色
func (s *SpaceMemberStoreImpl) Reactivate(ctx context.Context, appid, spaceID, id, roleID string, tier types.RoleType) error {
	query := sq.Update(s.GetTable()).
		Set("is_deleted", false).
		Set("space_role_id", roleID).
		Set("role", tier).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceMemberStoreImpl) List(ctx context.Context, opts types.ListSpaceMemberOptions, page, pageSize uint64) ([]types.SpaceMember, error) {
	query := sq.Select(s.GetAllColumnsWithPrefix(s.GetTable())...).From(s.GetTable()).
		OrderBy(s.GetTable() + ".created_at ASC")

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.SpaceMember
	if err := s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SpaceMemberStoreImpl) Total(ctx context.Context, opts types.ListSpaceMemberOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var res int64
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return 0, err
	}
	return res, nil
}
