package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/fkhayef/splitledger/pkg/money"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Store is the persistence the notification service needs. *Repository implements it.
type Store interface {
	Create(ctx context.Context, recipientID int64, message string, entityType EntityType, entityID int64) (*Notification, error)
	GetByID(ctx context.Context, id int64) (*Notification, error)
	ListByRecipientID(ctx context.Context, recipientID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error)
	MarkAsRead(ctx context.Context, id int64) error
	MarkAllAsRead(ctx context.Context, recipientID int64) (int64, error)
	GetUnreadCount(ctx context.Context, recipientID int64) (int, error)
}

// Service handles notification business logic
type Service struct {
	repo Store
}

// NewService creates a new notification service
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// ListByRecipientID retrieves all notifications for a user
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}
	if n.IsRead {
		return nil
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user and returns how
// many changed.
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// NotifyGroupInvite tells a user they were invited to a group.
func (s *Service) NotifyGroupInvite(ctx context.Context, recipientID int64, groupName string, groupID int64) error {
	message := "You have been invited to join group: " + groupName
	_, err := s.repo.Create(ctx, recipientID, message, EntityGroup, groupID)
	return err
}

// NotifyExpenseAdded tells a participant their share of a new expense.
func (s *Service) NotifyExpenseAdded(ctx context.Context, recipientID int64, payerName, description string, share money.Money, expenseID int64) error {
	message := fmt.Sprintf("%s added %q and your share is %s", payerName, description, share)
	_, err := s.repo.Create(ctx, recipientID, message, EntityExpense, expenseID)
	return err
}

// NotifySettlementCreated asks the receiver to confirm a recorded payment.
func (s *Service) NotifySettlementCreated(ctx context.Context, recipientID int64, payerName string, amount money.Money, settlementID int64) error {
	message := fmt.Sprintf("%s says they paid you %s. Please confirm.", payerName, amount)
	_, err := s.repo.Create(ctx, recipientID, message, EntitySettlement, settlementID)
	return err
}

// NotifySettlementResolved tells the payer whether the receiver confirmed or
// rejected their payment.
func (s *Service) NotifySettlementResolved(ctx context.Context, recipientID int64, receiverName string, amount money.Money, settlementID int64, confirmed bool) error {
	verb := "rejected"
	if confirmed {
		verb = "confirmed"
	}
	message := fmt.Sprintf("%s %s your payment of %s", receiverName, verb, amount)
	_, err := s.repo.Create(ctx, recipientID, message, EntitySettlement, settlementID)
	return err
}
