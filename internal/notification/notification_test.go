package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/money"
)

type fakeStore struct {
	items []*Notification
}

func (s *fakeStore) Create(_ context.Context, recipientID int64, message string, entityType EntityType, entityID int64) (*Notification, error) {
	n := &Notification{
		ID:                int64(len(s.items) + 1),
		RecipientID:       recipientID,
		Message:           message,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
		CreatedAt:         time.Now(),
	}
	s.items = append(s.items, n)
	return n, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*Notification, error) {
	for _, n := range s.items {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListByRecipientID(_ context.Context, recipientID int64, _, _ int, unreadOnly bool) ([]*Notification, int, error) {
	var out []*Notification
	for _, n := range s.items {
		if n.RecipientID == recipientID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) MarkAsRead(_ context.Context, id int64) error {
	for _, n := range s.items {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func (s *fakeStore) MarkAllAsRead(_ context.Context, recipientID int64) (int64, error) {
	var changed int64
	for _, n := range s.items {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (s *fakeStore) GetUnreadCount(_ context.Context, recipientID int64) (int, error) {
	count := 0
	for _, n := range s.items {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func TestNotifyMessages(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()

	tests := []struct {
		name   string
		notify func() error
		want   string
		entity EntityType
	}{
		{"invite", func() error { return svc.NotifyGroupInvite(ctx, 2, "Trip", 1) }, "You have been invited to join group: Trip", EntityGroup},
		{"expense", func() error {
			return svc.NotifyExpenseAdded(ctx, 2, "alice", "Dinner", money.MustParse("10"), 5)
		}, `alice added "Dinner" and your share is 10.00`, EntityExpense},
		{"settlement", func() error {
			return svc.NotifySettlementCreated(ctx, 1, "bob", money.MustParse("12.5"), 3)
		}, "bob says they paid you 12.50. Please confirm.", EntitySettlement},
		{"confirmed", func() error {
			return svc.NotifySettlementResolved(ctx, 2, "alice", money.MustParse("12.5"), 3, true)
		}, "alice confirmed your payment of 12.50", EntitySettlement},
		{"rejected", func() error {
			return svc.NotifySettlementResolved(ctx, 2, "alice", money.MustParse("1"), 3, false)
		}, "alice rejected your payment of 1.00", EntitySettlement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.notify(); err != nil {
				t.Fatalf("notify failed: %v", err)
			}
			last := store.items[len(store.items)-1]
			if last.Message != tt.want {
				t.Errorf("message = %q, want %q", last.Message, tt.want)
			}
			if *last.RelatedEntityType != tt.entity {
				t.Errorf("entity = %s, want %s", *last.RelatedEntityType, tt.entity)
			}
		})
	}
}

func TestMarkAsReadChecksRecipient(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()
	_ = svc.NotifyGroupInvite(ctx, 2, "Trip", 1)

	if err := svc.MarkAsRead(ctx, 1, 3); !errors.Is(err, ErrNotRecipient) {
		t.Errorf("error = %v, want ErrNotRecipient", err)
	}
	if err := svc.MarkAsRead(ctx, 9, 2); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("error = %v, want ErrNotificationNotFound", err)
	}
	if err := svc.MarkAsRead(ctx, 1, 2); err != nil {
		t.Fatalf("MarkAsRead failed: %v", err)
	}
	if count, _ := svc.GetUnreadCount(ctx, 2); count != 0 {
		t.Errorf("unread = %d, want 0", count)
	}
}

func TestHandlerUnreadFlow(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()
	_ = svc.NotifyGroupInvite(ctx, 2, "Trip", 1)
	_ = svc.NotifyGroupInvite(ctx, 2, "Flat", 2)
	_ = svc.NotifyGroupInvite(ctx, 3, "Flat", 2)

	r := chi.NewRouter()
	r.Use(middleware.TestUserMiddleware)
	r.Mount("/notifications", NewHandler(svc).Routes())
	srv := httptest.NewServer(r)
	defer srv.Close()

	call := func(method, path string) map[string]any {
		req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(""))
		req.Header.Set("X-Test-User-ID", "2")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s failed: %v", method, path, err)
		}
		defer resp.Body.Close()
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		return body
	}

	count := call(http.MethodGet, "/notifications/unread-count")["data"].(map[string]any)["unread_count"]
	if count != float64(2) {
		t.Fatalf("unread_count = %v, want 2", count)
	}

	updated := call(http.MethodPost, "/notifications/read-all")["data"].(map[string]any)["updated"]
	if updated != float64(2) {
		t.Errorf("updated = %v, want 2", updated)
	}

	list := call(http.MethodGet, "/notifications?unread_only=true")["data"].([]any)
	if len(list) != 0 {
		t.Errorf("unread list has %d items, want 0", len(list))
	}
	if c, _ := svc.GetUnreadCount(ctx, 3); c != 1 {
		t.Errorf("other user's unread = %d, want 1", c)
	}
}
