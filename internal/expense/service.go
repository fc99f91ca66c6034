package expense

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/pkg/metrics"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Common errors
var (
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrNotMember            = errors.New("you are not a member of this group")
	ErrParticipantNotMember = errors.New("every participant must be a member of the group")
	ErrNotAuthorized        = errors.New("only the payer or a group admin can delete this expense")
)

// Store is the persistence the expense service needs. *Repository implements it.
type Store interface {
	CreateWithShares(ctx context.Context, e *Expense, shares []split.Share) (*ExpenseWithShares, error)
	GetExpenseByID(ctx context.Context, id int64) (*Expense, error)
	GetSharesByExpenseIDs(ctx context.Context, expenseIDs []int64) (map[int64][]*Share, error)
	ListExpensesByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// Membership answers group membership questions. *group.Service implements it.
type Membership interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	AreMembers(ctx context.Context, groupID int64, userIDs []int64) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
}

// Notifier tells participants about new expenses. *notification.Service implements it.
type Notifier interface {
	NotifyExpenseAdded(ctx context.Context, recipientID int64, payerName, description string, share money.Money, expenseID int64) error
}

// Service handles expense business logic
type Service struct {
	repo         Store
	members      Membership
	notifier     Notifier
	splitFactory *split.Factory // Factory pattern for creating split strategies
	metrics      *metrics.Metrics
}

// NewService creates a new expense service with dependencies injected.
// notifier and m may be nil.
func NewService(repo Store, members Membership, notifier Notifier, splitFactory *split.Factory, m *metrics.Metrics) *Service {
	return &Service{
		repo:         repo,
		members:      members,
		notifier:     notifier,
		splitFactory: splitFactory,
		metrics:      m,
	}
}

// CreateExpense records an expense paid by payerID. The split policy named in
// the request turns the participants into shares, which are validated and
// stored together with the expense.
func (s *Service) CreateExpense(ctx context.Context, payerID int64, req *CreateExpenseRequest) (*ExpenseWithShares, error) {
	// FACTORY PATTERN picks the strategy for the requested policy
	strategy, err := s.splitFactory.CreateFromString(req.SplitPolicy)
	if err != nil {
		s.metrics.SplitRejected("invalid_input")
		return nil, err
	}

	if err := s.requireMember(ctx, req.GroupID, payerID); err != nil {
		return nil, err
	}
	ok, err := s.members.AreMembers(ctx, req.GroupID, req.ParticipantIDs())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrParticipantNotMember
	}

	// STRATEGY PATTERN computes and validates the shares
	shares, err := strategy.Calculate(req.Amount, req.Participants)
	if err != nil {
		s.metrics.SplitRejected(rejectionReason(err))
		return nil, err
	}

	created, err := s.repo.CreateWithShares(ctx, &Expense{
		GroupID:     req.GroupID,
		PayerID:     payerID,
		Description: req.Description,
		Amount:      req.Amount,
		ImageURL:    req.ImageURL,
		Policy:      strategy.Type(),
	}, shares)
	if err != nil {
		return nil, err
	}
	s.metrics.ExpenseCreated(string(strategy.Type()))

	s.notifyParticipants(ctx, created)
	return created, nil
}

func (s *Service) notifyParticipants(ctx context.Context, e *ExpenseWithShares) {
	if s.notifier == nil {
		return
	}
	for _, share := range e.Shares {
		if share.UserID == e.Expense.PayerID {
			continue
		}
		err := s.notifier.NotifyExpenseAdded(ctx, share.UserID, e.Expense.PayerUsername, e.Expense.Description, share.Amount, e.Expense.ID)
		if err != nil {
			slog.Warn("failed to notify expense participant", "expense_id", e.Expense.ID, "user_id", share.UserID, "error", err)
		}
	}
}

func rejectionReason(err error) string {
	if errors.Is(err, split.ErrValidationFailed) {
		return "validation_failed"
	}
	return "invalid_input"
}

// GetExpenseByID retrieves an expense with its shares. The caller must belong
// to the expense's group.
func (s *Service) GetExpenseByID(ctx context.Context, callerID, id int64) (*ExpenseWithShares, error) {
	e, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}
	if err := s.requireMember(ctx, e.GroupID, callerID); err != nil {
		return nil, err
	}

	shares, err := s.repo.GetSharesByExpenseIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}

	return &ExpenseWithShares{Expense: e, Shares: shares[id]}, nil
}

// ListExpensesByGroupID retrieves a page of a group's expenses with shares
// attached.
func (s *Service) ListExpensesByGroupID(ctx context.Context, callerID, groupID int64, page, perPage int) ([]*ExpenseWithShares, int, error) {
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
	expenses, total, err := s.repo.ListExpensesByGroupID(ctx, groupID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}
	shares, err := s.repo.GetSharesByExpenseIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*ExpenseWithShares, len(expenses))
	for i, e := range expenses {
		out[i] = &ExpenseWithShares{Expense: e, Shares: shares[e.ID]}
	}
	return out, total, nil
}

// DeleteExpense deletes an expense. Only the payer or a group admin may do so.
func (s *Service) DeleteExpense(ctx context.Context, id, userID int64) error {
	e, err := s.repo.GetExpenseByID(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrExpenseNotFound
	}

	if e.PayerID != userID {
		admin, err := s.members.IsAdmin(ctx, e.GroupID, userID)
		if err != nil {
			return err
		}
		if !admin {
			return ErrNotAuthorized
		}
	}

	return s.repo.DeleteExpense(ctx, id)
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
