package v1

import (
	"context"
	"database/sql"
	"sync"

	"github.com/lib/pq"

	"github.com/notevault/notevault/app/store"
	"github.com/notevault/notevault/pkg/types"
)

// memProvider 纯内存的存储实现，逻辑层测试无需数据库
type memProvider struct {
	mu sync.Mutex

	roles       map[string]*types.SpaceRole
	members     map[string]*types.SpaceMember
	invitations map[int64]*types.SpaceInvitation
	users       map[string]*types.User
}

func newMemProvider() *memProvider {
	return &memProvider{
		roles:       make(map[string]*types.SpaceRole),
		members:     make(map[string]*types.SpaceMember),
		invitations: make(map[int64]*types.SpaceInvitation),
		users:       make(map[string]*types.User),
	}
}

func (p *memProvider) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (p *memProvider) SpaceRoleStore() store.SpaceRoleStore {
	return &memSpaceRoleStore{p: p}
}

func (p *memProvider) SpaceMemberStore() store.SpaceMemberStore {
	return &memSpaceMemberStore{p: p}
}

func (p *memProvider) SpaceInvitationStore() store.SpaceInvitationStore {
	return &memSpaceInvitationStore{p: p}
}

func (p *memProvider) UserStore() store.UserStore {
	return &memUserStore{p: p}
}

type memSpaceRoleStore struct {
	p *memProvider
}

func (s *memSpaceRoleStore) GetTable(...interface{}) string {
	return types.TABLE_SPACE_ROLE.Name()
}

func (s *memSpaceRoleStore) Create(ctx context.Context, data types.SpaceRole) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if data.IsBuiltIn {
		for _, v := range s.p.roles {
			if v.IsBuiltIn && v.Appid == data.Appid && v.SpaceID == data.SpaceID && v.BuiltInType == data.BuiltInType {
				return store.ErrAlreadyExists
			}
		}
	}

	cp := data
	s.p.roles[data.ID] = &cp
	return nil
}

func (s *memSpaceRoleStore) GetRole(ctx context.Context, appid, spaceID, id string) (*types.SpaceRole, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	role, ok := s.p.roles[id]
	if !ok || role.Appid != appid || role.SpaceID != spaceID {
		return nil, sql.ErrNoRows
	}
	cp := *role
	return &cp, nil
}

func (s *memSpaceRoleStore) GetBuiltInRole(ctx context.Context, appid, spaceID string, builtInType types.RoleType) (*types.SpaceRole, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	for _, v := range s.p.roles {
		if v.IsBuiltIn && v.Appid == appid && v.SpaceID == spaceID && v.BuiltInType == builtInType {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memSpaceRoleStore) Update(ctx context.Context, appid, spaceID, id, name, description string, permissions pq.StringArray) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	role, ok := s.p.roles[id]
	if !ok || role.Appid != appid || role.SpaceID != spaceID {
		return nil
	}
	role.Name = name
	role.Description = description
	role.Permissions = permissions
	return nil
}

func (s *memSpaceRoleStore) SoftDelete(ctx context.Context, appid, spaceID, id string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if role, ok := s.p.roles[id]; ok && role.Appid == appid && role.SpaceID == spaceID {
		role.IsDeleted = true
	}
	return nil
}

func (s *memSpaceRoleStore) List(ctx context.Context, opts types.ListSpaceRoleOptions, page, pageSize uint64) ([]types.SpaceRole, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	var res []types.SpaceRole
	for _, v := range s.p.roles {
		if opts.Appid != "" && v.Appid != opts.Appid {
			continue
		}
		if opts.SpaceID != "" && v.SpaceID != opts.SpaceID {
			continue
		}
		if !opts.IncludeDeleted && v.IsDeleted {
			continue
		}
		res = append(res, *v)
	}
	return res, nil
}

func (s *memSpaceRoleStore) Total(ctx context.Context, opts types.ListSpaceRoleOptions) (int64, error) {
	list, _ := s.List(ctx, opts, types.NO_PAGINATION, types.NO_PAGINATION)
	return int64(len(list)), nil
}

type memSpaceMemberStore struct {
	p *memProvider
}

func (s *memSpaceMemberStore) GetTable(...interface{}) string {
	return types.TABLE_SPACE_MEMBER.Name()
}

func (s *memSpaceMemberStore) Create(ctx context.Context, data types.SpaceMember) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	cp := data
	s.p.members[data.ID] = &cp
	return nil
}

func (s *memSpaceMemberStore) GetMember(ctx context.Context, appid, spaceID, id string) (*types.SpaceMember, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	member, ok := s.p.members[id]
	if !ok || member.Appid != appid || member.SpaceID != spaceID {
		return nil, sql.ErrNoRows
	}
	cp := *member
	return &cp, nil
}

func (s *memSpaceMemberStore) GetMemberByUserID(ctx context.Context, appid, spaceID, userID string) (*types.SpaceMember, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	for _, v := range s.p.members {
		if v.Appid == appid && v.SpaceID == spaceID && v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memSpaceMemberStore) ListMembersByIDs(ctx context.Context, appid, spaceID string, ids []string) ([]types.SpaceMember, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	var res []types.SpaceMember
	for _, id := range ids {
		if v, ok := s.p.members[id]; ok && v.Appid == appid && v.SpaceID == spaceID && !v.IsDeleted {
			res = append(res, *v)
		}
	}
	return res, nil
}

func (s *memSpaceMemberStore) UpdateRole(ctx context.Context, appid, spaceID, id, roleID string, tier types.RoleType) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if v, ok := s.p.members[id]; ok && v.Appid == appid && v.SpaceID == spaceID {
		v.SpaceRoleID = roleID
		v.Role = tier
	}
	return nil
}

func (s *memSpaceMemberStore) UpdateMembersRole(ctx context.Context, appid, spaceID string, ids []string, roleID string, tier types.RoleType) error {
	for _, id := range ids {
		if err := s.UpdateRole(ctx, appid, spaceID, id, roleID, tier); err != nil {
			return err
		}
	}
	return nil
}

func (s *memSpaceMemberStore) RetargetRole(ctx context.Context, appid, spaceID, fromRoleID, toRoleID string, tier types.RoleType) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	var affected int64
	for _, v := range s.p.members {
		if v.Appid == appid && v.SpaceID == spaceID && v.SpaceRoleID == fromRoleID && !v.IsDeleted {
			v.SpaceRoleID = toRoleID
			v.Role = tier
			affected++
		}
	}
	return affected, nil
}

func (s *memSpaceMemberStore) Remove(ctx context.Context, appid, spaceID, id string) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if v, ok := s.p.members[id]; ok && v.Appid == appid && v.SpaceID == spaceID {
		v.IsDeleted = true
	}
	return nil
}

func (s *memSpaceMemberStore) RemoveMembers(ctx context.Context, appid, spaceID string, ids []string) error {
	for _, id := range ids {
		if err := s.Remove(ctx, appid, spaceID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *memSpaceMemberStore) Reactivate(ctx context.Context, appid, spaceID, id, roleID string, tier types.RoleType) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if v, ok := s.p.members[id]; ok && v.Appid == appid && v.SpaceID == spaceID {
		v.IsDeleted = false
		v.SpaceRoleID = roleID
		v.Role = tier
	}
	return nil
}

func (s *memSpaceMemberStore) List(ctx context.Context, opts types.ListSpaceMemberOptions, page, pageSize uint64) ([]types.SpaceMember, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	var res []types.SpaceMember
	for _, v := range s.p.members {
		if opts.Appid != "" && v.Appid != opts.Appid {
			continue
		}
		if opts.SpaceID != "" && v.SpaceID != opts.SpaceID {
			continue
		}
		if opts.UserID != "" && v.UserID != opts.UserID {
			continue
		}
		if opts.SpaceRoleID != "" && v.SpaceRoleID != opts.SpaceRoleID {
			continue
		}
		if !opts.IncludeDeleted && v.IsDeleted {
			continue
		}
		res = append(res, *v)
	}
	return res, nil
}

func (s *memSpaceMemberStore) Total(ctx context.Context, opts types.ListSpaceMemberOptions) (int64, error) {
	list, _ := s.List(ctx, opts, types.NO_PAGINATION, types.NO_PAGINATION)
	return int64(len(list)), nil
}

type memSpaceInvitationStore struct {
	p *memProvider
}

func (s *memSpaceInvitationStore) GetTable(...interface{}) string {
	return types.TABLE_SPACE_INVITATION.Name()
}

func (s *memSpaceInvitationStore) Create(ctx context.Context, data types.SpaceInvitation) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	for _, v := range s.p.invitations {
		if v.TokenHash == data.TokenHash {
			return store.ErrAlreadyExists
		}
	}

	cp := data
	s.p.invitations[data.ID] = &cp
	return nil
}

func (s *memSpaceInvitationStore) GetByID(ctx context.Context, appid string, id int64) (*types.SpaceInvitation, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	v, ok := s.p.invitations[id]
	if !ok || v.Appid != appid {
		return nil, sql.ErrNoRows
	}
	cp := *v
	return &cp, nil
}

func (s *memSpaceInvitationStore) GetByTokenHash(ctx context.Context, tokenHash string) (*types.SpaceInvitation, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	for _, v := range s.p.invitations {
		if v.TokenHash == tokenHash {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memSpaceInvitationStore) GetPendingByEmail(ctx context.Context, appid, spaceID, inviteeEmail string) (*types.SpaceInvitation, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	for _, v := range s.p.invitations {
		if v.Appid == appid && v.SpaceID == spaceID && v.InviteeEmail == inviteeEmail && v.InviteStatus == types.SPACE_INVITATION_STATUS_PENDING {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memSpaceInvitationStore) UpdateStatus(ctx context.Context, appid string, id int64, status types.SpaceInvitationStatus) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if v, ok := s.p.invitations[id]; ok && v.Appid == appid {
		v.InviteStatus = status
	}
	return nil
}

func (s *memSpaceInvitationStore) MarkAccepted(ctx context.Context, appid string, id int64, acceptedBy string, acceptedAt int64) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if v, ok := s.p.invitations[id]; ok && v.Appid == appid {
		v.InviteStatus = types.SPACE_INVITATION_STATUS_ACCEPTED
		v.AcceptedBy = acceptedBy
		v.AcceptedAt = acceptedAt
	}
	return nil
}

func (s *memSpaceInvitationStore) Resend(ctx context.Context, appid string, id int64, tokenHash string, expiredAt, sentAt int64) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	if v, ok := s.p.invitations[id]; ok && v.Appid == appid {
		v.TokenHash = tokenHash
		v.ExpiredAt = expiredAt
		v.SentAt = sentAt
		v.ResendCount++
	}
	return nil
}

func (s *memSpaceInvitationStore) RetargetRole(ctx context.Context, appid, spaceID, fromRoleID, toRoleID string, tier types.RoleType) (int64, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	var affected int64
	for _, v := range s.p.invitations {
		if v.Appid == appid && v.SpaceID == spaceID && v.SpaceRoleID == fromRoleID && v.InviteStatus == types.SPACE_INVITATION_STATUS_PENDING {
			v.SpaceRoleID = toRoleID
			v.Role = tier
			affected++
		}
	}
	return affected, nil
}

func (s *memSpaceInvitationStore) List(ctx context.Context, appid, spaceID string, opts types.ListSpaceInvitationOptions, page, pageSize uint64) ([]types.SpaceInvitation, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	var res []types.SpaceInvitation
	for _, v := range s.p.invitations {
		if v.Appid != appid || v.SpaceID != spaceID {
			continue
		}
		if opts.Status != 0 && v.InviteStatus != opts.Status {
			continue
		}
		if opts.SpaceRoleID != "" && v.SpaceRoleID != opts.SpaceRoleID {
			continue
		}
		res = append(res, *v)
	}
	return res, nil
}

func (s *memSpaceInvitationStore) Total(ctx context.Context, appid, spaceID string, opts types.ListSpaceInvitationOptions) (int64, error) {
	list, _ := s.List(ctx, appid, spaceID, opts, types.NO_PAGINATION, types.NO_PAGINATION)
	return int64(len(list)), nil
}

type memUserStore struct {
	p *memProvider
}

func (s *memUserStore) GetTable(...interface{}) string {
	return types.TABLE_USER.Name()
}

func (s *memUserStore) Create(ctx context.Context, data types.User) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	cp := data
	s.p.users[data.ID] = &cp
	return nil
}

func (s *memUserStore) GetUser(ctx context.Context, appid, id string) (*types.User, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	v, ok := s.p.users[id]
	if !ok || v.Appid != appid {
		return nil, sql.ErrNoRows
	}
	cp := *v
	return &cp, nil
}

func (s *memUserStore) GetByEmail(ctx context.Context, appid, email string) (*types.User, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	for _, v := range s.p.users {
		if v.Appid == appid && v.Email == email {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memUserStore) ListUsers(ctx context.Context, opts types.ListUserOptions, page, pageSize uint64) ([]types.User, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	var res []types.User
	for _, v := range s.p.users {
		if opts.Appid != "" && v.Appid != opts.Appid {
			continue
		}
		if opts.Email != "" && v.Email != opts.Email {
			continue
		}
		if len(opts.IDs) > 0 {
			found := false
			for _, id := range opts.IDs {
				if id == v.ID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		res = append(res, *v)
	}
	return res, nil
}

func (s *memUserStore) Total(ctx context.Context, opts types.ListUserOptions) (int64, error) {
	list, _ := s.ListUsers(ctx, opts, types.NO_PAGINATION, types.NO_PAGINATION)
	return int64(len(list)), nil
}
