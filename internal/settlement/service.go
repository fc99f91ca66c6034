package settlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fkhayef/splitledger/pkg/money"
)

// Common errors
var (
	ErrSettlementNotFound  = errors.New("settlement not found")
	ErrNotMember           = errors.New("you are not a member of this group")
	ErrPartyNotMember      = errors.New("both users must be members of the group")
	ErrNotReceiver         = errors.New("only the receiver can confirm or reject a settlement")
	ErrInvalidStatusChange = errors.New("settlement is no longer pending")
	ErrNothingToSettle     = errors.New("no outstanding debt between these users")
)

// Store is the persistence the settlement service needs. *Repository implements it.
type Store interface {
	Create(ctx context.Context, s *Settlement) (*Settlement, error)
	GetByID(ctx context.Context, id int64) (*Settlement, error)
	ListByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Settlement, int, error)
	Transition(ctx context.Context, id int64, from, to SettlementStatus) (*Settlement, error)
}

// Membership answers group membership questions. *group.Service implements it.
type Membership interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	AreMembers(ctx context.Context, groupID int64, userIDs []int64) (bool, error)
}

// Notifier tells the other party about a settlement. *notification.Service implements it.
type Notifier interface {
	NotifySettlementCreated(ctx context.Context, recipientID int64, payerName string, amount money.Money, settlementID int64) error
	NotifySettlementResolved(ctx context.Context, recipientID int64, receiverName string, amount money.Money, settlementID int64, confirmed bool) error
}

// Suggester reports what one member owes another after debt simplification.
// *balance.Service implements it.
type Suggester interface {
	SuggestedAmount(ctx context.Context, groupID, from, to int64) (money.Money, error)
}

// Service handles settlement business logic
type Service struct {
	repo      Store
	members   Membership
	notifier  Notifier
	suggester Suggester
}

// NewService creates a new settlement service. notifier may be nil.
func NewService(repo Store, members Membership, notifier Notifier, suggester Suggester) *Service {
	return &Service{
		repo:      repo,
		members:   members,
		notifier:  notifier,
		suggester: suggester,
	}
}

// CreateSettlement records a payment between two members of a group. Any
// member may record one. It starts PENDING unless the receiver records it
// themselves, in which case it is CONFIRMED straight away.
func (s *Service) CreateSettlement(ctx context.Context, callerID int64, req *CreateSettlementRequest) (*Settlement, error) {
	if err := s.requireMember(ctx, req.GroupID, callerID); err != nil {
		return nil, err
	}
	ok, err := s.members.AreMembers(ctx, req.GroupID, []int64{req.FromUserID, req.ToUserID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPartyNotMember
	}

	var amount money.Money
	if req.Amount != nil {
		amount = *req.Amount
	} else {
		amount, err = s.suggester.SuggestedAmount(ctx, req.GroupID, req.FromUserID, req.ToUserID)
		if err != nil {
			return nil, err
		}
		if !amount.IsPositive() {
			return nil, ErrNothingToSettle
		}
	}

	status := SettlementStatusPending
	if callerID == req.ToUserID {
		status = SettlementStatusConfirmed
	}

	created, err := s.repo.Create(ctx, &Settlement{
		GroupID:    req.GroupID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     amount,
		Note:       req.Note,
		Status:     status,
	})
	if err != nil {
		return nil, err
	}

	if status == SettlementStatusPending && s.notifier != nil {
		if err := s.notifier.NotifySettlementCreated(ctx, created.ToUserID, created.FromUsername, created.Amount, created.ID); err != nil {
			slog.Warn("failed to notify settlement receiver", "settlement_id", created.ID, "error", err)
		}
	}
	return created, nil
}

// GetByID retrieves a settlement. The caller must belong to its group.
func (s *Service) GetByID(ctx context.Context, callerID, id int64) (*Settlement, error) {
	settlement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	if err := s.requireMember(ctx, settlement.GroupID, callerID); err != nil {
		return nil, err
	}
	return settlement, nil
}

// ListByGroupID retrieves a page of a group's settlement history
func (s *Service) ListByGroupID(ctx context.Context, callerID, groupID int64, page, perPage int) ([]*Settlement, int, error) {
	if err := s.requireMember(ctx, groupID, callerID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByGroupID(ctx, groupID, perPage, offset)
}

// Confirm lets the receiver acknowledge the money arrived. From then on the
// settlement counts towards balances.
func (s *Service) Confirm(ctx context.Context, settlementID, userID int64) (*Settlement, error) {
	return s.resolve(ctx, settlementID, userID, SettlementStatusConfirmed)
}

// Reject lets the receiver deny the payment. Rejected settlements never
// affect balances.
func (s *Service) Reject(ctx context.Context, settlementID, userID int64) (*Settlement, error) {
	return s.resolve(ctx, settlementID, userID, SettlementStatusRejected)
}

func (s *Service) resolve(ctx context.Context, settlementID, userID int64, to SettlementStatus) (*Settlement, error) {
	settlement, err := s.repo.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, ErrSettlementNotFound
	}
	if settlement.ToUserID != userID {
		return nil, ErrNotReceiver
	}
	if settlement.Status != SettlementStatusPending {
		return nil, ErrInvalidStatusChange
	}

	updated, err := s.repo.Transition(ctx, settlementID, SettlementStatusPending, to)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// someone else resolved it between the read and the update
		return nil, ErrInvalidStatusChange
	}

	if s.notifier != nil {
		confirmed := to == SettlementStatusConfirmed
		if err := s.notifier.NotifySettlementResolved(ctx, updated.FromUserID, updated.ToUsername, updated.Amount, updated.ID, confirmed); err != nil {
			slog.Warn("failed to notify settlement payer", "settlement_id", updated.ID, "error", err)
		}
	}
	return updated, nil
}

func (s *Service) requireMember(ctx context.Context, groupID, userID int64) error {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}
