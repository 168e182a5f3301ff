package types

import sq "github.com/Masterminds/squirrel"

type SpaceInvitationStatus int32

const (
	SPACE_INVITATION_STATUS_PENDING SpaceInvitationStatus = iota + 1
	SPACE_INVITATION_STATUS_ACCEPTED
	SPACE_INVITATION_STATUS_EXPIRED
	SPACE_INVITATION_STATUS_REVOKED
)

type SpaceInvitationChannel string

const (
	SPACE_INVITATION_CHANNEL_EMAIL SpaceInvitationChannel = "email"
	SPACE_INVITATION_CHANNEL_LINK  SpaceInvitationChannel = "link"
)

// SpaceInvitation 空间邀请表结构
// TokenHash 全局唯一，是将状态迁出 PENDING 的唯一凭证
type SpaceInvitation struct {
	ID            int64                  `json:"id" db:"id"`
	Appid         string                 `json:"appid" db:"appid"`
	SpaceID       string                 `json:"space_id" db:"space_id"`
	InviterID     string                 `json:"inviter_id" db:"inviter_id"`
	InviteeEmail  string                 `json:"invitee_email" db:"invitee_email"` // link 渠道为空
	InviteeUserID string                 `json:"invitee_user_id" db:"invitee_user_id"`
	Role          RoleType               `json:"role" db:"role"` // 接受时写入成员的粗粒度档位
	SpaceRoleID   string                 `json:"space_role_id" db:"space_role_id"`
	Channel       SpaceInvitationChannel `json:"channel" db:"channel"`
	InviteStatus  SpaceInvitationStatus  `json:"invite_status" db:"invite_status"`
	TokenHash     string                 `json:"-" db:"token_hash"`
	ExpiredAt     int64                  `json:"expired_at" db:"expired_at"`
	AcceptedAt    int64                  `json:"accepted_at" db:"accepted_at"`
	AcceptedBy    string                 `json:"accepted_by" db:"accepted_by"`
	SentAt        int64                  `json:"sent_at" db:"sent_at"`
	ResendCount   int32                  `json:"resend_count" db:"resend_count"`
	CreatedAt     int64                  `json:"created_at" db:"created_at"`
	UpdatedAt     int64                  `json:"updated_at" db:"updated_at"`
}

func (i *SpaceInvitation) IsExpired(now int64) bool {
	return i.ExpiredAt < now
}

// AcceptInvitationReason 接受邀请的业务结果，属于预期分支而非异常
type AcceptInvitationReason string

const (
	ACCEPT_INVITATION_OK               AcceptInvitationReason = "ok"
	ACCEPT_INVITATION_NOT_FOUND        AcceptInvitationReason = "not_found"
	ACCEPT_INVITATION_ALREADY_ACCEPTED AcceptInvitationReason = "already_accepted"
	ACCEPT_INVITATION_REVOKED          AcceptInvitationReason = "revoked"
	ACCEPT_INVITATION_EXPIRED          AcceptInvitationReason = "expired"
	ACCEPT_INVITATION_EMAIL_MISMATCH   AcceptInvitationReason = "email_mismatch"
)

type AcceptInvitationResult struct {
	Reason   AcceptInvitationReason `json:"reason"`
	SpaceID  string                 `json:"space_id,omitempty"`
	MemberID string                 `json:"member_id,omitempty"`
}

type ListSpaceInvitationOptions struct {
	Status      SpaceInvitationStatus
	SpaceRoleID string
}

func (opts ListSpaceInvitationOptions) Apply(query *sq.SelectBuilder) {
	if opts.Status != 0 {
		*query = query.Where(sq.Eq{"invite_status": opts.Status})
	}
	if opts.SpaceRoleID != "" {
		*query = query.Where(sq.Eq{"space_role_id": opts.SpaceRoleID})
	}
}
