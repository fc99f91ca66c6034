package group

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/pkg/middleware"
)

type fakeStore struct {
	groups  map[int64]*Group
	members map[int64][]*GroupMember
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{groups: map[int64]*Group{}, members: map[int64][]*GroupMember{}, nextID: 1}
}

func (s *fakeStore) CreateWithAdmin(_ context.Context, req *CreateGroupRequest, creatorID int64) (*Group, error) {
	g := &Group{ID: s.nextID, Name: req.Name, Description: req.Description, IsTemporary: req.IsTemporary, CreatedAt: time.Now()}
	s.nextID++
	s.groups[g.ID] = g
	s.members[g.ID] = []*GroupMember{{GroupID: g.ID, UserID: creatorID, Status: MemberStatusJoined, Role: MemberRoleAdmin}}
	return g, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*Group, error) {
	return s.groups[id], nil
}

func (s *fakeStore) ListByUserID(_ context.Context, userID int64, _, _ int) ([]*Group, int, error) {
	var out []*Group
	for id, members := range s.members {
		for _, m := range members {
			if m.UserID == userID {
				out = append(out, s.groups[id])
			}
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) Update(_ context.Context, id int64, req *UpdateGroupRequest) (*Group, error) {
	g := s.groups[id]
	if g != nil && req.Name != nil {
		g.Name = *req.Name
	}
	return g, nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	delete(s.groups, id)
	delete(s.members, id)
	return nil
}

func (s *fakeStore) AddMember(_ context.Context, groupID int64, req *AddMemberRequest) (*GroupMember, error) {
	role := req.Role
	if role == "" {
		role = MemberRoleMember
	}
	m := &GroupMember{GroupID: groupID, UserID: req.UserID, Status: MemberStatusInvited, Role: role}
	s.members[groupID] = append(s.members[groupID], m)
	return m, nil
}

func (s *fakeStore) GetMembers(_ context.Context, groupID int64) ([]*GroupMember, error) {
	return s.members[groupID], nil
}

func (s *fakeStore) GetMember(_ context.Context, groupID, userID int64) (*GroupMember, error) {
	for _, m := range s.members[groupID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CountMembers(ctx context.Context, groupID int64, userIDs []int64) (int, error) {
	seen := map[int64]bool{}
	for _, id := range userIDs {
		if m, _ := s.GetMember(ctx, groupID, id); m != nil {
			seen[id] = true
		}
	}
	return len(seen), nil
}

func (s *fakeStore) UpdateMember(ctx context.Context, groupID, userID int64, req *UpdateMemberRequest) (*GroupMember, error) {
	m, _ := s.GetMember(ctx, groupID, userID)
	if m == nil {
		return nil, nil
	}
	if req.Status != nil {
		m.Status = *req.Status
	}
	if req.Role != nil {
		m.Role = *req.Role
	}
	return m, nil
}

func (s *fakeStore) RemoveMember(_ context.Context, groupID, userID int64) error {
	members := s.members[groupID]
	for i, m := range members {
		if m.UserID == userID {
			s.members[groupID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return ErrMemberNotFound
}

type invite struct {
	recipient int64
	groupName string
}

type fakeNotifier struct {
	invites []invite
	err     error
}

func (n *fakeNotifier) NotifyGroupInvite(_ context.Context, recipientID int64, groupName string, _ int64) error {
	n.invites = append(n.invites, invite{recipientID, groupName})
	return n.err
}

// setup creates group 1 administered by user 1 with user 2 as a member.
func setup(t *testing.T) (*Service, *fakeNotifier) {
	t.Helper()
	ctx := context.Background()
	notifier := &fakeNotifier{}
	svc := NewService(newFakeStore(), notifier)

	if _, err := svc.Create(ctx, 1, &CreateGroupRequest{Name: "Trip"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.AddMember(ctx, 1, 1, &AddMemberRequest{UserID: 2}); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	return svc, notifier
}

func TestCreateMakesCreatorAdmin(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	admin, err := svc.IsAdmin(ctx, 1, 1)
	if err != nil || !admin {
		t.Fatalf("IsAdmin(1) = %v, %v", admin, err)
	}
	admin, _ = svc.IsAdmin(ctx, 1, 2)
	if admin {
		t.Error("invited member should not be admin")
	}
}

func TestAddMemberNotifies(t *testing.T) {
	svc, notifier := setup(t)

	if len(notifier.invites) != 1 || notifier.invites[0] != (invite{2, "Trip"}) {
		t.Errorf("invites = %v", notifier.invites)
	}

	notifier.err = errors.New("smtp down")
	if _, err := svc.AddMember(context.Background(), 1, 1, &AddMemberRequest{UserID: 3}); err != nil {
		t.Errorf("notification failure should not fail AddMember: %v", err)
	}
}

func TestAddMemberRules(t *testing.T) {
	tests := []struct {
		name    string
		caller  int64
		req     AddMemberRequest
		wantErr error
	}{
		{"duplicate", 1, AddMemberRequest{UserID: 2}, ErrMemberAlreadyExists},
		{"outsider invites", 9, AddMemberRequest{UserID: 5}, ErrNotAuthorized},
		{"member grants admin", 2, AddMemberRequest{UserID: 5, Role: MemberRoleAdmin}, ErrNotAuthorized},
		{"member invites", 2, AddMemberRequest{UserID: 5}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setup(t)
			_, err := svc.AddMember(context.Background(), tt.caller, 1, &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddMember() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAreMembers(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		ids  []int64
		want bool
	}{
		{[]int64{1, 2}, true},
		{[]int64{1, 1, 2}, true},
		{[]int64{1, 3}, false},
		{nil, true},
	}
	for _, tt := range tests {
		got, err := svc.AreMembers(ctx, 1, tt.ids)
		if err != nil {
			t.Fatalf("AreMembers(%v) error: %v", tt.ids, err)
		}
		if got != tt.want {
			t.Errorf("AreMembers(%v) = %v, want %v", tt.ids, got, tt.want)
		}
	}
}

func TestAdminOnlyOperations(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	name := "Renamed"

	if _, err := svc.Update(ctx, 2, 1, &UpdateGroupRequest{Name: &name}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("member Update error = %v, want ErrNotAuthorized", err)
	}
	if err := svc.Delete(ctx, 2, 1); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("member Delete error = %v, want ErrNotAuthorized", err)
	}
	if err := svc.RemoveMember(ctx, 2, 1, 1); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("member removing admin error = %v, want ErrNotAuthorized", err)
	}
	if g, err := svc.Update(ctx, 1, 1, &UpdateGroupRequest{Name: &name}); err != nil || g.Name != name {
		t.Errorf("admin Update = %v, %v", g, err)
	}
}

func TestLastAdminCannotLeaveOrStepDown(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	member := MemberRoleMember

	if err := svc.RemoveMember(ctx, 1, 1, 1); !errors.Is(err, ErrLastAdmin) {
		t.Errorf("RemoveMember(last admin) error = %v, want ErrLastAdmin", err)
	}
	if _, err := svc.UpdateMember(ctx, 1, 1, 1, &UpdateMemberRequest{Role: &member}); !errors.Is(err, ErrLastAdmin) {
		t.Errorf("demote last admin error = %v, want ErrLastAdmin", err)
	}

	admin := MemberRoleAdmin
	if _, err := svc.UpdateMember(ctx, 1, 1, 2, &UpdateMemberRequest{Role: &admin}); err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if err := svc.RemoveMember(ctx, 1, 1, 1); err != nil {
		t.Errorf("RemoveMember with another admin failed: %v", err)
	}
}

func TestMemberCanLeave(t *testing.T) {
	svc, _ := setup(t)
	if err := svc.RemoveMember(context.Background(), 2, 1, 2); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if ok, _ := svc.IsMember(context.Background(), 1, 2); ok {
		t.Error("user 2 still a member after leaving")
	}
}

func TestAcceptInvitation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	m, err := svc.AcceptInvitation(ctx, 1, 2)
	if err != nil || m.Status != MemberStatusJoined {
		t.Fatalf("AcceptInvitation = %+v, %v", m, err)
	}
	if _, err := svc.AcceptInvitation(ctx, 1, 42); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("stranger accept error = %v, want ErrMemberNotFound", err)
	}
}

func TestHandlerStatusCodes(t *testing.T) {
	svc, _ := setup(t)
	r := chi.NewRouter()
	r.Use(middleware.TestUserMiddleware)
	r.Mount("/groups", NewHandler(svc).Routes())
	srv := httptest.NewServer(r)
	defer srv.Close()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		caller int64
		status int
	}{
		{"get as member", http.MethodGet, "/groups/1", "", 2, http.StatusOK},
		{"get as outsider", http.MethodGet, "/groups/1", "", 7, http.StatusForbidden},
		{"get missing", http.MethodGet, "/groups/99", "", 1, http.StatusNotFound},
		{"bad id", http.MethodGet, "/groups/abc", "", 1, http.StatusBadRequest},
		{"create empty name", http.MethodPost, "/groups", `{"name":"  "}`, 1, http.StatusBadRequest},
		{"create", http.MethodPost, "/groups", `{"name":"Flat"}`, 3, http.StatusCreated},
		{"bad role", http.MethodPost, "/groups/1/members", `{"user_id":4,"role":"OWNER"}`, 1, http.StatusBadRequest},
		{"duplicate member", http.MethodPost, "/groups/1/members", `{"user_id":2}`, 1, http.StatusConflict},
		{"delete as member", http.MethodDelete, "/groups/1", "", 2, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			req.Header.Set("X-Test-User-ID", strconv.FormatInt(tt.caller, 10))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}
