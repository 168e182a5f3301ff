package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/notevault/notevault/app/core"
	"github.com/notevault/notevault/pkg/errors"
	"github.com/notevault/notevault/pkg/i18n"
	"github.com/notevault/notevault/pkg/types"
	"github.com/notevault/notevault/pkg/utils"
)

type SpaceInvitationLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewSpaceInvitationLogic(ctx context.Context, core *core.Core) *SpaceInvitationLogic {
	l := &SpaceInvitationLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}

	return l
}

type CreateInvitationArgs struct {
	SpaceRoleID   string                       `json:"space_role_id"`
	Channel       types.SpaceInvitationChannel `json:"channel"`
	InviteeEmails []string                     `json:"invitee_emails"`
}

// CreatedInvitation Token 为明文令牌，仅在签发与重发时返回一次
type CreatedInvitation struct {
	ID           int64  `json:"id"`
	InviteeEmail string `json:"invitee_email,omitempty"`
	Token        string `json:"token"`
	ExpiredAt    int64  `json:"expired_at"`
}

// CreateInvitations 批量签发邀请，同批共享同一过期时间
func (l *SpaceInvitationLogic) CreateInvitations(spaceID string, args CreateInvitationArgs) ([]CreatedInvitation, error) {
	if err := l.Identification(spaceID, types.PermissionMemberInvite); err != nil {
		return nil, err
	}

	role, err := l.resolveInvitableRole(spaceID, args.SpaceRoleID)
	if err != nil {
		return nil, err
	}

	var emails []string
	switch args.Channel {
	case types.SPACE_INVITATION_CHANNEL_EMAIL:
		emails = lo.Uniq(lo.Filter(args.InviteeEmails, func(item string, _ int) bool {
			return item != ""
		}))
		if len(emails) == 0 {
			return nil, errors.New("SpaceInvitationLogic.CreateInvitations.EmptyEmails", i18n.ERROR_INVITATION_EMAIL_REQUIRED, nil).Code(http.StatusBadRequest)
		}
	case types.SPACE_INVITATION_CHANNEL_LINK:
		// link 渠道一批只签发一张，不绑定邮箱
		emails = []string{""}
	default:
		return nil, errors.New("SpaceInvitationLogic.CreateInvitations.UnknownChannel", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	appid := l.GetUserInfo().Appid
	for _, email := range emails {
		if email == "" {
			continue
		}

		exist, err := l.core.Store().SpaceInvitationStore().GetPendingByEmail(l.ctx, appid, spaceID, email)
		if err != nil && err != sql.ErrNoRows {
			return nil, errors.New("SpaceInvitationLogic.CreateInvitations.SpaceInvitationStore.GetPendingByEmail", i18n.ERROR_INTERNAL, err)
		}
		if exist != nil && !exist.IsExpired(time.Now().Unix()) {
			return nil, errors.New("SpaceInvitationLogic.CreateInvitations.Already", i18n.ERROR_ALREADY_INVITED, nil).Code(http.StatusForbidden)
		}

		// 已是在册成员的邮箱不再签发
		user, err := l.core.Store().UserStore().GetByEmail(l.ctx, appid, email)
		if err != nil && err != sql.ErrNoRows {
			return nil, errors.New("SpaceInvitationLogic.CreateInvitations.UserStore.GetByEmail", i18n.ERROR_INTERNAL, err)
		}
		if user != nil {
			member, err := l.core.Store().SpaceMemberStore().GetMemberByUserID(l.ctx, appid, spaceID, user.ID)
			if err != nil && err != sql.ErrNoRows {
				return nil, errors.New("SpaceInvitationLogic.CreateInvitations.SpaceMemberStore.GetMemberByUserID", i18n.ERROR_INTERNAL, err)
			}
			if member != nil && !member.IsDeleted {
				return nil, errors.New("SpaceInvitationLogic.CreateInvitations.AlreadyMember", i18n.ERROR_ALREADY_INVITED, nil).Code(http.StatusForbidden)
			}
		}
	}

	now := time.Now()
	expiredAt := now.Add(l.core.Cfg().Invitation.TTL()).Unix()

	var result []CreatedInvitation
	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		for _, email := range emails {
			rawToken := utils.GenRandomID()
			invitation := types.SpaceInvitation{
				ID:           utils.GenUniqID(),
				Appid:        appid,
				SpaceID:      spaceID,
				InviterID:    l.GetUserInfo().User,
				InviteeEmail: email,
				Role:         types.ProjectCoarseTier(role.BuiltInType),
				SpaceRoleID:  role.ID,
				Channel:      args.Channel,
				InviteStatus: types.SPACE_INVITATION_STATUS_PENDING,
				TokenHash:    utils.HashInviteToken(rawToken),
				ExpiredAt:    expiredAt,
				SentAt:       now.Unix(),
				CreatedAt:    now.Unix(),
				UpdatedAt:    now.Unix(),
			}

			if err := l.core.Store().SpaceInvitationStore().Create(ctx, invitation); err != nil {
				return errors.New("SpaceInvitationLogic.CreateInvitations.SpaceInvitationStore.Create", i18n.ERROR_INTERNAL, err)
			}

			result = append(result, CreatedInvitation{
				ID:           invitation.ID,
				InviteeEmail: email,
				Token:        rawToken,
				ExpiredAt:    expiredAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (l *SpaceInvitationLogic) resolveInvitableRole(spaceID, roleID string) (*types.SpaceRole, error) {
	role, err := l.core.Store().SpaceRoleStore().GetRole(l.ctx, l.GetUserInfo().Appid, spaceID, roleID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceInvitationLogic.resolveInvitableRole.SpaceRoleStore.GetRole", i18n.ERROR_INTERNAL, err)
	}

	if role == nil || role.IsDeleted {
		return nil, errors.New("SpaceInvitationLogic.resolveInvitableRole.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	if role.BuiltInType == types.RoleTypeOwner {
		return nil, errors.New("SpaceInvitationLogic.resolveInvitableRole.Owner", i18n.ERROR_OWNER_ROLE_IMMUTABLE, nil).Code(http.StatusForbidden)
	}

	return role, nil
}

type Invitation struct {
	ID           int64                        `json:"id"`
	InviterID    string                       `json:"inviter_id"`
	Inviter      string                       `json:"inviter"`
	InviteeEmail string                       `json:"invitee_email"`
	SpaceID      string                       `json:"space_id"`
	Role         types.RoleType               `json:"role"`
	SpaceRoleID  string                       `json:"space_role_id"`
	Channel      types.SpaceInvitationChannel `json:"channel"`
	InviteStatus types.SpaceInvitationStatus  `json:"invite_status"`
	ExpiredAt    int64                        `json:"expired_at"`
	ResendCount  int32                        `json:"resend_count"`
	CreatedAt    int64                        `json:"created_at"`
}

func (l *SpaceInvitationLogic) ListInvitations(spaceID string, opts types.ListSpaceInvitationOptions, page, pagesize uint64) ([]Invitation, int64, error) {
	if err := l.Identification(spaceID, types.PermissionMemberView); err != nil {
		return nil, 0, err
	}

	page, pagesize = normalizePagination(page, pagesize)

	appid := l.GetUserInfo().Appid
	list, err := l.core.Store().SpaceInvitationStore().List(l.ctx, appid, spaceID, opts, page, pagesize)
	if err != nil {
		return nil, 0, errors.New("SpaceInvitationLogic.ListInvitations.SpaceInvitationStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().SpaceInvitationStore().Total(l.ctx, appid, spaceID, opts)
	if err != nil {
		return nil, 0, errors.New("SpaceInvitationLogic.ListInvitations.SpaceInvitationStore.Total", i18n.ERROR_INTERNAL, err)
	}

	if len(list) == 0 {
		return nil, total, nil
	}

	// 过期状态读时落库，同一批共用一次取钟
	now := time.Now().Unix()
	for i := range list {
		if list[i].InviteStatus == types.SPACE_INVITATION_STATUS_PENDING && list[i].IsExpired(now) {
			if err := l.core.Store().SpaceInvitationStore().UpdateStatus(l.ctx, appid, list[i].ID, types.SPACE_INVITATION_STATUS_EXPIRED); err != nil {
				return nil, 0, errors.New("SpaceInvitationLogic.ListInvitations.SpaceInvitationStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
			}
			list[i].InviteStatus = types.SPACE_INVITATION_STATUS_EXPIRED
		}
	}

	inviterIDs := lo.Uniq(lo.Map(list, func(item types.SpaceInvitation, _ int) string {
		return item.InviterID
	}))

	users, err := l.core.Store().UserStore().ListUsers(l.ctx, types.ListUserOptions{
		Appid: appid,
		IDs:   inviterIDs,
	}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		return nil, 0, errors.New("SpaceInvitationLogic.ListInvitations.UserStore.ListUsers", i18n.ERROR_INTERNAL, err)
	}

	userMap := lo.SliceToMap(users, func(user types.User) (string, string) {
		return user.ID, user.Name
	})

	var result []Invitation
	for _, v := range list {
		result = append(result, Invitation{
			ID:           v.ID,
			InviterID:    v.InviterID,
			Inviter:      userMap[v.InviterID],
			InviteeEmail: v.InviteeEmail,
			SpaceID:      v.SpaceID,
			Role:         v.Role,
			SpaceRoleID:  v.SpaceRoleID,
			Channel:      v.Channel,
			InviteStatus: v.InviteStatus,
			ExpiredAt:    v.ExpiredAt,
			ResendCount:  v.ResendCount,
			CreatedAt:    v.CreatedAt,
		})
	}

	return result, total, nil
}

// getInvitationForUpdate 读取邀请并在读时落库过期状态
func (l *SpaceInvitationLogic) getInvitationForUpdate(spaceID string, id int64) (*types.SpaceInvitation, error) {
	appid := l.GetUserInfo().Appid
	invitation, err := l.core.Store().SpaceInvitationStore().GetByID(l.ctx, appid, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceInvitationLogic.getInvitationForUpdate.SpaceInvitationStore.GetByID", i18n.ERROR_INTERNAL, err)
	}

	if invitation == nil || invitation.SpaceID != spaceID {
		return nil, errors.New("SpaceInvitationLogic.getInvitationForUpdate.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	if invitation.InviteStatus == types.SPACE_INVITATION_STATUS_PENDING && invitation.IsExpired(time.Now().Unix()) {
		if err := l.core.Store().SpaceInvitationStore().UpdateStatus(l.ctx, appid, id, types.SPACE_INVITATION_STATUS_EXPIRED); err != nil {
			return nil, errors.New("SpaceInvitationLogic.getInvitationForUpdate.SpaceInvitationStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
		}
		invitation.InviteStatus = types.SPACE_INVITATION_STATUS_EXPIRED
	}

	return invitation, nil
}

func (l *SpaceInvitationLogic) GetInvitation(spaceID string, id int64) (*types.SpaceInvitation, error) {
	if err := l.Identification(spaceID, types.PermissionMemberView); err != nil {
		return nil, err
	}

	return l.getInvitationForUpdate(spaceID, id)
}

// ResendInvitation 换发令牌并顺延有效期
// 仅未过期的 PENDING 邀请可重发，其余状态（含读时翻转的 EXPIRED）一律拒绝
func (l *SpaceInvitationLogic) ResendInvitation(spaceID string, id int64) (*CreatedInvitation, error) {
	if err := l.Identification(spaceID, types.PermissionMemberInvite); err != nil {
		return nil, err
	}

	invitation, err := l.getInvitationForUpdate(spaceID, id)
	if err != nil {
		return nil, err
	}

	if invitation.InviteStatus != types.SPACE_INVITATION_STATUS_PENDING {
		return nil, errors.New("SpaceInvitationLogic.ResendInvitation.Status", i18n.ERROR_INVITATION_NOT_RESENDABLE, nil).Code(http.StatusForbidden)
	}

	appid := l.GetUserInfo().Appid
	now := time.Now()
	rawToken := utils.GenRandomID()
	expiredAt := now.Add(l.core.Cfg().Invitation.TTL()).Unix()

	if err = l.core.Store().SpaceInvitationStore().Resend(l.ctx, appid, id, utils.HashInviteToken(rawToken), expiredAt, now.Unix()); err != nil {
		return nil, errors.New("SpaceInvitationLogic.ResendInvitation.SpaceInvitationStore.Resend", i18n.ERROR_INTERNAL, err)
	}

	return &CreatedInvitation{
		ID:           id,
		InviteeEmail: invitation.InviteeEmail,
		Token:        rawToken,
		ExpiredAt:    expiredAt,
	}, nil
}

// RevokeInvitation 只有等待中的邀请可撤销
func (l *SpaceInvitationLogic) RevokeInvitation(spaceID string, id int64) error {
	if err := l.Identification(spaceID, types.PermissionMemberInvite); err != nil {
		return err
	}

	invitation, err := l.getInvitationForUpdate(spaceID, id)
	if err != nil {
		return err
	}

	if invitation.InviteStatus != types.SPACE_INVITATION_STATUS_PENDING {
		return errors.New("SpaceInvitationLogic.RevokeInvitation.Status", i18n.ERROR_FORBIDDEN, nil).Code(http.StatusForbidden)
	}

	if err = l.core.Store().SpaceInvitationStore().UpdateStatus(l.ctx, l.GetUserInfo().Appid, id, types.SPACE_INVITATION_STATUS_REVOKED); err != nil {
		return errors.New("SpaceInvitationLogic.RevokeInvitation.SpaceInvitationStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// AcceptInvitation 凭明文令牌接受邀请
// 除内部错误外的失败都以 Reason 表达，属于业务结果而非异常
func (l *SpaceInvitationLogic) AcceptInvitation(rawToken string) (*types.AcceptInvitationResult, error) {
	result, err := l.acceptInvitation(rawToken)
	if err != nil {
		return nil, err
	}

	l.core.Metrics().InvitationAcceptInc(string(result.Reason))
	return result, nil
}

func (l *SpaceInvitationLogic) acceptInvitation(rawToken string) (*types.AcceptInvitationResult, error) {
	appid := l.GetUserInfo().Appid
	userID := l.GetUserInfo().User

	invitation, err := l.core.Store().SpaceInvitationStore().GetByTokenHash(l.ctx, utils.HashInviteToken(rawToken))
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceInvitationLogic.AcceptInvitation.SpaceInvitationStore.GetByTokenHash", i18n.ERROR_INTERNAL, err)
	}

	// 跨租户令牌按不存在处理
	if invitation == nil || invitation.Appid != appid {
		return &types.AcceptInvitationResult{Reason: types.ACCEPT_INVITATION_NOT_FOUND}, nil
	}

	switch invitation.InviteStatus {
	case types.SPACE_INVITATION_STATUS_ACCEPTED:
		return &types.AcceptInvitationResult{Reason: types.ACCEPT_INVITATION_ALREADY_ACCEPTED}, nil
	case types.SPACE_INVITATION_STATUS_REVOKED:
		return &types.AcceptInvitationResult{Reason: types.ACCEPT_INVITATION_REVOKED}, nil
	case types.SPACE_INVITATION_STATUS_EXPIRED:
		return &types.AcceptInvitationResult{Reason: types.ACCEPT_INVITATION_EXPIRED}, nil
	}

	now := time.Now().Unix()
	if invitation.IsExpired(now) {
		if err = l.core.Store().SpaceInvitationStore().UpdateStatus(l.ctx, appid, invitation.ID, types.SPACE_INVITATION_STATUS_EXPIRED); err != nil {
			return nil, errors.New("SpaceInvitationLogic.AcceptInvitation.SpaceInvitationStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
		}
		return &types.AcceptInvitationResult{Reason: types.ACCEPT_INVITATION_EXPIRED}, nil
	}

	if invitation.Channel == types.SPACE_INVITATION_CHANNEL_EMAIL {
		user, err := l.core.Store().UserStore().GetUser(l.ctx, appid, userID)
		if err != nil && err != sql.ErrNoRows {
			return nil, errors.New("SpaceInvitationLogic.AcceptInvitation.UserStore.GetUser", i18n.ERROR_INTERNAL, err)
		}
		if user == nil || user.Email != invitation.InviteeEmail {
			return &types.AcceptInvitationResult{Reason: types.ACCEPT_INVITATION_EMAIL_MISMATCH}, nil
		}
	}

	role, err := l.core.Store().SpaceRoleStore().GetRole(l.ctx, appid, invitation.SpaceID, invitation.SpaceRoleID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("SpaceInvitationLogic.AcceptInvitation.SpaceRoleStore.GetRole", i18n.ERROR_INTERNAL, err)
	}

	// 角色在等待期间被删时退回内置成员角色
	if role == nil || role.IsDeleted {
		role, err = l.core.Store().SpaceRoleStore().GetBuiltInRole(l.ctx, appid, invitation.SpaceID, types.RoleTypeMember)
		if err != nil && err != sql.ErrNoRows {
			return nil, errors.New("SpaceInvitationLogic.AcceptInvitation.SpaceRoleStore.GetBuiltInRole", i18n.ERROR_INTERNAL, err)
		}
		if role == nil {
			return nil, errors.New("SpaceInvitationLogic.AcceptInvitation.FallbackMissing", i18n.ERROR_FALLBACK_ROLE_MISSING, nil).Code(http.StatusConflict)
		}
	}

	tier := types.ProjectCoarseTier(role.BuiltInType)

	var memberID string
	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().SpaceInvitationStore().MarkAccepted(ctx, appid, invitation.ID, userID, now); err != nil {
			return errors.New("SpaceInvitationLogic.AcceptInvitation.SpaceInvitationStore.MarkAccepted", i18n.ERROR_INTERNAL, err)
		}

		member, err := l.core.Store().SpaceMemberStore().GetMemberByUserID(ctx, appid, invitation.SpaceID, userID)
		if err != nil && err != sql.ErrNoRows {
			return errors.New("SpaceInvitationLogic.AcceptInvitation.SpaceMemberStore.GetMemberByUserID", i18n.ERROR_INTERNAL, err)
		}

		switch {
		case member == nil:
			member = &types.SpaceMember{
				ID:          utils.GenUniqIDStr(),
				Appid:       appid,
				SpaceID:     invitation.SpaceID,
				UserID:      userID,
				Role:        tier,
				SpaceRoleID: role.ID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := l.core.Store().SpaceMemberStore().Create(ctx, *member); err != nil {
				return errors.New("SpaceInvitationLogic.AcceptInvitation.SpaceMemberStore.Create", i18n.ERROR_INTERNAL, err)
			}
		case member.IsDeleted:
			if err := l.core.Store().SpaceMemberStore().Reactivate(ctx, appid, invitation.SpaceID, member.ID, role.ID, tier); err != nil {
				return errors.New("SpaceInvitationLogic.AcceptInvitation.SpaceMemberStore.Reactivate", i18n.ERROR_INTERNAL, err)
			}
		default:
			// 在册成员重复接受是幂等空操作，不改动现有角色
		}

		memberID = member.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &types.AcceptInvitationResult{
		Reason:   types.ACCEPT_INVITATION_OK,
		SpaceID:  invitation.SpaceID,
		MemberID: memberID,
	}, nil
}
