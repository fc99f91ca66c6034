package group

import (
	"context"
	"errors"
	"log/slog"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrUserNotFound        = errors.New("user not found")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
	ErrLastAdmin           = errors.New("group must keep at least one admin")
)

// Store is the persistence the group service needs. *Repository implements it.
type Store interface {
	CreateWithAdmin(ctx context.Context, req *CreateGroupRequest, creatorID int64) (*Group, error)
	GetByID(ctx context.Context, id int64) (*Group, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error)
	Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error)
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, groupID int64, req *AddMemberRequest) (*GroupMember, error)
	GetMembers(ctx context.Context, groupID int64) ([]*GroupMember, error)
	GetMember(ctx context.Context, groupID, userID int64) (*GroupMember, error)
	CountMembers(ctx context.Context, groupID int64, userIDs []int64) (int, error)
	UpdateMember(ctx context.Context, groupID, userID int64, req *UpdateMemberRequest) (*GroupMember, error)
	RemoveMember(ctx context.Context, groupID, userID int64) error
}

// Notifier delivers group invitations.
type Notifier interface {
	NotifyGroupInvite(ctx context.Context, recipientID int64, groupName string, groupID int64) error
}

// Service handles group business logic
type Service struct {
	repo     Store
	notifier Notifier
}

// NewService creates a new group service. notifier may be nil.
func NewService(repo Store, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Create creates a new group and adds the creator as a joined admin
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	return s.repo.CreateWithAdmin(ctx, req, creatorID)
}

// GetByID retrieves a group by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Group, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// GetByIDWithMembers retrieves a group with all its members. The caller must
// belong to the group.
func (s *Service) GetByIDWithMembers(ctx context.Context, callerID, id int64) (*Group, []*GroupMember, error) {
	group, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireMember(ctx, id, callerID); err != nil {
		return nil, nil, err
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// ListByUserID retrieves all groups for a user
func (s *Service) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// Update modifies an existing group. Admin only.
func (s *Service) Update(ctx context.Context, callerID, id int64, req *UpdateGroupRequest) (*Group, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, id, callerID); err != nil {
		return nil, err
	}

	group, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Delete removes a group. Admin only.
func (s *Service) Delete(ctx context.Context, callerID, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, id, callerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AddMember invites a user to a group. Any member may invite.
func (s *Service) AddMember(ctx context.Context, callerID, groupID int64, req *AddMemberRequest) (*GroupMember, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	caller, err := s.repo.GetMember(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, ErrNotAuthorized
	}
	if req.Role == MemberRoleAdmin && !caller.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	existing, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMemberAlreadyExists
	}

	member, err := s.repo.AddMember(ctx, groupID, req)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyGroupInvite(ctx, member.UserID, group.Name, group.ID); err != nil {
			slog.Warn("failed to send group invite", "group_id", groupID, "user_id", member.UserID, "error", err)
		}
	}
	return member, nil
}

// GetMembers retrieves all members of a group. The caller must belong to the group.
func (s *Service) GetMembers(ctx context.Context, callerID, groupID int64) ([]*GroupMember, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, err
	}

	return s.repo.GetMembers(ctx, groupID)
}

// UpdateMember updates a member's status or role. Admin only.
func (s *Service) UpdateMember(ctx context.Context, callerID, groupID, userID int64, req *UpdateMemberRequest) (*GroupMember, error) {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	if req.Role != nil && *req.Role != MemberRoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, groupID, userID); err != nil {
			return nil, err
		}
	}

	member, err := s.repo.UpdateMember(ctx, groupID, userID, req)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// RemoveMember removes a user from a group. Admins may remove anyone; members
// may remove themselves.
func (s *Service) RemoveMember(ctx context.Context, callerID, groupID, userID int64) error {
	if callerID != userID {
		if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
			return err
		}
	}
	if err := s.ensureAnotherAdmin(ctx, groupID, userID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, groupID, userID)
}

// AcceptInvitation allows a user to accept their group invitation
func (s *Service) AcceptInvitation(ctx context.Context, groupID, userID int64) (*GroupMember, error) {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if member.Status != MemberStatusInvited {
		return member, nil // Already joined
	}

	return s.repo.UpdateMember(ctx, groupID, userID, &UpdateMemberRequest{
		Status: statusPtr(MemberStatusJoined),
	})
}

// IsMember reports whether userID has a membership row in the group,
// invited or joined.
func (s *Service) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// AreMembers reports whether every id in userIDs belongs to the group.
func (s *Service) AreMembers(ctx context.Context, groupID int64, userIDs []int64) (bool, error) {
	unique := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return true, nil
	}

	n, err := s.repo.CountMembers(ctx, groupID, userIDs)
	if err != nil {
		return false, err
	}
	return n == len(unique), nil
}

// IsAdmin reports whether userID administers the group.
func (s *Service) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return member.IsAdmin(), nil
}

func (s *Service) requireMember(ctx context.Context, groupID, userID int64) error {
	ok, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID int64) error {
	ok, err := s.IsAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

// ensureAnotherAdmin fails when userID is the group's only admin.
func (s *Service) ensureAnotherAdmin(ctx context.Context, groupID, userID int64) error {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrMemberNotFound
	}
	if !member.IsAdmin() {
		return nil
	}

	members, err := s.repo.GetMembers(ctx, groupID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.UserID != userID && m.IsAdmin() {
			return nil
		}
	}
	return ErrLastAdmin
}

// Helper function to get a pointer to a MemberStatus
func statusPtr(s MemberStatus) *MemberStatus {
	return &s
}
