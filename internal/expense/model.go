package expense

import (
	"time"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Expense represents an expense in the system
type Expense struct {
	ID          int64        `json:"id"`
	GroupID     int64        `json:"group_id"`
	PayerID     int64        `json:"payer_id"`
	Description string       `json:"description"`
	Amount      money.Money  `json:"amount"`
	ImageURL    *string      `json:"image_url,omitempty"`
	Policy      split.Policy `json:"split_policy"`
	CreatedAt   time.Time    `json:"created_at"`

	// Populated via JOIN
	PayerUsername string `json:"payer_username,omitempty"`
}

// Share is one participant's stored portion of an expense
type Share struct {
	ExpenseID int64       `json:"expense_id"`
	UserID    int64       `json:"user_id"`
	Amount    money.Money `json:"amount"`

	// Populated via JOIN
	Username string `json:"username,omitempty"`
}

// ExpenseWithShares combines an expense with its shares in insertion order
type ExpenseWithShares struct {
	Expense *Expense
	Shares  []*Share
}

// ToBalance converts the record into the balance engine's input.
func (e *ExpenseWithShares) ToBalance() balance.Expense {
	shares := make([]split.Share, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = split.Share{ParticipantID: s.UserID, Amount: s.Amount}
	}
	return balance.Expense{
		ID:      e.Expense.ID,
		PayerID: e.Expense.PayerID,
		Total:   e.Expense.Amount,
		Policy:  e.Expense.Policy,
		Splits:  shares,
	}
}
