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
		provider.stores.SpaceInvitationStore = NewSpaceInvitationStore(provider)
	})
}

// SpaceInvitationStoreImpl 提供空间邀请表的操作
type SpaceInvitationStoreImpl struct {
	CommonFields
}

func NewSpaceInvitationStore(provider SqlProviderAchieve) *SpaceInvitationStoreImpl {
	repo := &SpaceInvitationStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_SPACE_INVITATION)
	repo.SetAllColumns(
		"id", "appid", "space_id", "inviter_id", "invitee_email", "invitee_user_id",
		"role", "space_role_id", "channel", "invite_status", "token_hash",
		"expired_at", "accepted_at", "accepted_by", "sent_at", "resend_count",
		"created_at", "updated_at",
	)
	return repo
}

func (s *SpaceInvitationStoreImpl) Create(ctx context.Context, data types.SpaceInvitation) error {
	query := sq.Insert(s.GetTable()).
		Columns("id", "appid", "space_id", "inviter_id", "invitee_email", "invitee_user_id",
			"role", "space_role_id", "channel", "invite_status", "token_hash",
			"expired_at", "accepted_at", "accepted_by", "sent_at", "resend_count",
			"created_at", "updated_at").
		Values(data.ID, data.Appid, data.SpaceID, data.InviterID, data.InviteeEmail, data.InviteeUserID,
			data.Role, data.SpaceRoleID, data.Channel, data.InviteStatus, data.TokenHash,
			data.ExpiredAt, data.AcceptedAt, data.AcceptedBy, data.SentAt, data.ResendCount,
			data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceInvitationStoreImpl) GetByID(ctx context.Context, appid string, id int64) (*types.SpaceInvitation, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"appid": appid, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.SpaceInvitation
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByTokenHash 凭令牌哈希定位邀请，接受流程的唯一入口
func (s *SpaceInvitationStoreImpl) GetByTokenHash(ctx context.Context, tokenHash string) (*types.SpaceInvitation, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"token_hash": tokenHash})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.SpaceInvitation
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *SpaceInvitationStoreImpl) GetPendingByEmail(ctx context.Context, appid, spaceID, inviteeEmail string) (*types.SpaceInvitation, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "invitee_email": inviteeEmail, "invite_status": types.SPACE_INVITATION_STATUS_PENDING})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.SpaceInvitation
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *SpaceInvitationStoreImpl) UpdateStatus(ctx context.Context, appid string, id int64, status types.SpaceInvitationStatus) error {
	query := sq.Update(s.GetTable()).
		Set("invite_status", status).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id, "appid": appid})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *SpaceInvitationStoreImpl) MarkAccepted(ctx context.Context, appid string, id int64, acceptedBy string, acceptedAt int64) error {
	query := sq.Update(s.GetTable()).
		Set("invite_status", types.SPACE_INVITATION_STATUS_ACCEPTED).
		Set("accepted_by", acceptedBy).
		Set("accepted_at", acceptedAt).
		Set("updated_at", acceptedAt).
		Where(sq.Eq{"id": id, "appid": appid})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Resend 换发令牌并顺延有效期，旧令牌随哈希覆盖即刻作废
func (s *SpaceInvitationStoreImpl) Resend(ctx context.Context, appid string, id int64, tokenHash string, expiredAt, sentAt int64) error {
	query := sq.Update(s.GetTable()).
		Set("token_hash", tokenHash).
		Set("expired_at", expiredAt).
		Set("sent_at", sentAt).
		Set("resend_count", sq.Expr("resend_count + 1")).
		Set("updated_at", sentAt).
		Where(sq.Eq{"id": id, "appid": appid})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// RetargetRole 把仍在等待中的邀请从 fromRoleID 改挂到 toRoleID
func (s *SpaceInvitationStoreImpl) RetargetRole(ctx context.Context, appid, spaceID, fromRoleID, toRoleID string, tier types.RoleType) (int64, error) {
	query := sq.Update(s.GetTable()).
		Set("space_role_id", toRoleID).
		Set("role", tier).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"appid": appid, "space_id": spaceID, "space_role_id": fromRoleID, "invite_status": types.SPACE_INVITATION_STATUS_PENDING})

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

func (s *SpaceInvitationStoreImpl) List(ctx context.Context, appid, spaceID string, opts types.ListSpaceInvitationOptions, page, pageSize uint64) ([]types.SpaceInvitation, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).Where(sq.Eq{"appid": appid, "space_id": spaceID}).
		OrderBy("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize)

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.SpaceInvitation
	if err := s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SpaceInvitationStoreImpl) Total(ctx context.Context, appid, spaceID string, opts types.ListSpaceInvitationOptions) (int64, error) {
	query := sq.Select("COUNT(*)").
		From(s.GetTable()).Where(sq.Eq{"appid": appid, "space_id": spaceID})

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
