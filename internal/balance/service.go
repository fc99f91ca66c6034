package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/fkhayef/splitledger/pkg/metrics"
	"github.com/fkhayef/splitledger/pkg/money"
)

var (
	ErrNotMember     = errors.New("you are not a member of this group")
	ErrUserNotMember = errors.New("user is not a member of this group")
)

// ExpenseSource loads a group's expenses oldest first. *expense.Repository implements it.
type ExpenseSource interface {
	ListForBalances(ctx context.Context, groupID int64) ([]Expense, error)
}

// SettlementSource loads a group's confirmed settlements oldest first.
// *settlement.Repository implements it.
type SettlementSource interface {
	ListConfirmedForBalances(ctx context.Context, groupID int64) ([]Expense, error)
}

type Membership interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// UserDirectory resolves display names. *user.Service implements it.
type UserDirectory interface {
	NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Service recomputes balances from stored history on every call.
type Service struct {
	expenses    ExpenseSource
	settlements SettlementSource
	members     Membership
	users       UserDirectory
	metrics     *metrics.Metrics
}

// NewService creates a balance service. users and m may be nil.
func NewService(expenses ExpenseSource, settlements SettlementSource, members Membership, users UserDirectory, m *metrics.Metrics) *Service {
	return &Service{
		expenses:    expenses,
		settlements: settlements,
		members:     members,
		users:       users,
		metrics:     m,
	}
}

// GroupReport builds the whole-group view for a member of the group.
func (s *Service) GroupReport(ctx context.Context, callerID, groupID int64) (*GroupReport, error) {
	if err := s.requireMember(ctx, groupID, callerID, ErrNotMember); err != nil {
		return nil, err
	}
	expenses, settlements, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}

	report := Report(expenses, settlements)
	s.metrics.BalanceComputed("group", len(report.SimplifiedDebts))

	names, err := s.names(ctx, idsOf(report.Balances))
	if err != nil {
		return nil, err
	}
	for i := range report.Balances {
		report.Balances[i].Name = names[report.Balances[i].ParticipantID]
	}
	nameTransfers(report.SimplifiedDebts, names)
	return &report, nil
}

// UserBalance builds one member's view. Both the caller and userID must
// belong to the group.
func (s *Service) UserBalance(ctx context.Context, callerID, groupID, userID int64) (*UserBalance, error) {
	if err := s.requireMember(ctx, groupID, callerID, ErrNotMember); err != nil {
		return nil, err
	}
	if userID != callerID {
		if err := s.requireMember(ctx, groupID, userID, ErrUserNotMember); err != nil {
			return nil, err
		}
	}
	history, err := s.history(ctx, groupID)
	if err != nil {
		return nil, err
	}

	ub := UserDetail(userID, history)
	s.metrics.BalanceComputed("user", len(ub.OwesTo)+len(ub.OwedBy))

	ids := []int64{userID}
	for _, c := range ub.OwesTo {
		ids = append(ids, c.ParticipantID)
	}
	for _, c := range ub.OwedBy {
		ids = append(ids, c.ParticipantID)
	}
	names, err := s.names(ctx, ids)
	if err != nil {
		return nil, err
	}
	ub.Name = names[userID]
	for i := range ub.OwesTo {
		ub.OwesTo[i].Name = names[ub.OwesTo[i].ParticipantID]
	}
	for i := range ub.OwedBy {
		ub.OwedBy[i].Name = names[ub.OwedBy[i].ParticipantID]
	}
	return &ub, nil
}

// SuggestedAmount is what from should pay to in the simplified debt list,
// or zero when no such transfer exists.
func (s *Service) SuggestedAmount(ctx context.Context, groupID, from, to int64) (money.Money, error) {
	history, err := s.history(ctx, groupID)
	if err != nil {
		return money.Zero, err
	}
	for _, t := range Simplify(Aggregate(history)) {
		if t.From == from && t.To == to {
			return t.Amount, nil
		}
	}
	return money.Zero, nil
}

func (s *Service) load(ctx context.Context, groupID int64) ([]Expense, []Expense, error) {
	expenses, err := s.expenses.ListForBalances(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	settlements, err := s.settlements.ListConfirmedForBalances(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settlements: %w", err)
	}
	return expenses, settlements, nil
}

func (s *Service) history(ctx context.Context, groupID int64) ([]Expense, error) {
	expenses, settlements, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return append(expenses, settlements...), nil
}

func (s *Service) names(ctx context.Context, ids []int64) (map[int64]string, error) {
	if s.users == nil || len(ids) == 0 {
		return map[int64]string{}, nil
	}
	return s.users.NamesByIDs(ctx, ids)
}

func (s *Service) requireMember(ctx context.Context, groupID, userID int64, notMember error) error {
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return notMember
	}
	return nil
}

// idsOf lists every participant in the report. Transfers only ever name
// participants that also have a balance.
func idsOf(balances []BalanceSummary) []int64 {
	ids := make([]int64, len(balances))
	for i, b := range balances {
		ids[i] = b.ParticipantID
	}
	return ids
}

func nameTransfers(transfers []Transfer, names map[int64]string) {
	for i := range transfers {
		transfers[i].FromName = names[transfers[i].From]
		transfers[i].ToName = names[transfers[i].To]
	}
}
