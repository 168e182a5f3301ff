package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/notevault/notevault/pkg/register"
	"github.com/notevault/notevault/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.UserStore = NewUserStore(provider)
	})
}

// UserStoreImpl 用户表操作，本子系统只读取身份字段
type UserStoreImpl struct {
	CommonFields
}

func NewUserStore(provider SqlProviderAchieve) *UserStoreImpl {
	repo := &UserStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_USER)
	repo.SetAllColumns("id", "appid", "name", "avatar", "email", "created_at", "updated_at")
	return repo
}

func (s *UserStoreImpl) Create(ctx context.Context, data types.User) error {
	query := sq.Insert(s.GetTable()).
		Columns("id", "appid", "name", "avatar", "email", "created_at", "updated_at").
		Values(data.ID, data.Appid, data.Name, data.Avatar, data.Email, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *UserStoreImpl) GetUser(ctx context.Context, appid, id string) (*types.User, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"appid": appid, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.User
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *UserStoreImpl) GetByEmail(ctx context.Context, appid, email string) (*types.User, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"appid": appid, "email": email})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.User
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *UserStoreImpl) ListUsers(ctx context.Context, opts types.ListUserOptions, page, pageSize uint64) ([]types.User, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable())

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.User
	if err := s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *UserStoreImpl) Total(ctx context.Context, opts types.ListUserOptions) (int64, error) {
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
