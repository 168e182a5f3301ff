package types

import sq "github.com/Masterminds/squirrel"

// User 用户表结构，本子系统只读身份字段
type User struct {
	ID        string `json:"id" db:"id"`
	Appid     string `json:"appid" db:"appid"`
	Name      string `json:"name" db:"name"`
	Avatar    string `json:"avatar" db:"avatar"`
	Email     string `json:"email" db:"email"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}

type ListUserOptions struct {
	Appid string
	IDs   []string
	Email string
}

func (opts ListUserOptions) Apply(query *sq.SelectBuilder) {
	if opts.Appid != "" {
		*query = query.Where(sq.Eq{"appid": opts.Appid})
	}
	if len(opts.IDs) > 0 {
		*query = query.Where(sq.Eq{"id": opts.IDs})
	}
	if opts.Email != "" {
		*query = query.Where(sq.Eq{"email": opts.Email})
	}
}
