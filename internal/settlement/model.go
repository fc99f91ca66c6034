package settlement

import (
	"time"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/pkg/money"
)

// SettlementStatus represents the status of a settlement
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusConfirmed SettlementStatus = "CONFIRMED"
	SettlementStatusRejected  SettlementStatus = "REJECTED"
)

// Settlement is a payment from one group member to another. Only confirmed
// settlements move balances.
type Settlement struct {
	ID         int64            `json:"id"`
	GroupID    int64            `json:"group_id"`
	FromUserID int64            `json:"from_user_id"` // who sent the money
	ToUserID   int64            `json:"to_user_id"`   // who received it
	Amount     money.Money      `json:"amount"`
	Note       *string          `json:"note,omitempty"`
	Status     SettlementStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`

	// Populated via JOIN
	FromUsername string `json:"from_username,omitempty"`
	ToUsername   string `json:"to_username,omitempty"`
}

// ToBalance expresses the payment as an expense the balance engine can fold in.
func (s *Settlement) ToBalance() balance.Expense {
	return balance.SettlementExpense(s.ID, s.FromUserID, s.ToUserID, s.Amount)
}
