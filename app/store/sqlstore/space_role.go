package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/notevault/notevault/pkg/register"
	"github.com/notevault/notevault/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.SpaceRoleStore = NewSpaceRoleStore(provider)
	})
}

// SpaceRoleStoreImpl 提供空间角色表的操作
type SpaceRoleStoreImpl struct {
	CommonFields
}

func NewSpaceRoleStore(provider SqlProviderAchieve) *SpaceRoleStoreImpl {
	repo := &SpaceRoleStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_SPACE_ROLE)
	repo.SetAllColumns(
		"id", "appid", "space_id", "name", "description", "is_built_in",
		"built_in_type", "permissions", "is_deleted", "created_by", "created_at", "updated_at",
	)
	return repo
}

// Create 创建角色，内置角色冲突由部分唯一索引裁决
func (s *SpaceRoleStoreImpl) Create(ctx context.Context, data types.SpaceRole) error {
	query := sq.Insert(s.GetTable()).
		Columns("id", "appid", "space_id", "name", "description", "is_built_in",
			"built_in_type", "permissions", "is_deleted", "created_by", "created_at", "updated_at").
		Values(data.ID, data.Appid, data.SpaceID, data.Name, data.Description, data.IsBuiltIn,
			data.BuiltInType, data.Permissions, data.IsDeleted, data.CreatedBy, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceRoleStoreImpl) GetRole(ctx context.Context, appid, spaceID, id string) (*types.SpaceRole, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.SpaceRole
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *SpaceRoleStoreImpl) GetBuiltInRole(ctx context.Context, appid, spaceID string, builtInType types.RoleType) (*types.SpaceRole, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "is_built_in": true, "built_in_type": builtInType})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.SpaceRole
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// Update 仅更新名称、描述与权限集，is_built_in/built_in_type 永不出现在 SET 子句
func (s *SpaceRoleStoreImpl) Update(ctx context.Context, appid, spaceID, id, name, description string, permissions pq.StringArray) error {
	query := sq.Update(s.GetTable()).
		Set("name", name).
		Set("description", description).
		Set("permissions", permissions).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceRoleStoreImpl) SoftDelete(ctx context.Context, appid, spaceID, id string) error {
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

func (s *SpaceRoleStoreImpl) List(ctx context.Context, opts types.ListSpaceRoleOptions, page, pageSize uint64) ([]types.SpaceRole, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		OrderBy("created_at ASC")

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.SpaceRole
	if err := s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SpaceRoleStoreImpl) Total(ctx context.Context, opts types.ListSpaceRoleOptions) (int64, error) {
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
