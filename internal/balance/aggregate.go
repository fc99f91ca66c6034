package balance

import (
	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Aggregate folds expenses into net balances. The payer is credited with
// the total and each participant is debited their share, with rounding
// applied after every update.
func Aggregate(expenses []Expense) *Ledger {
	l := NewLedger()
	for _, e := range expenses {
		l.Add(e.PayerID, e.Total)
		for _, s := range e.Splits {
			l.Add(s.ParticipantID, s.Amount.Neg())
		}
	}
	return l
}

// SettlementExpense expresses a confirmed payment from one member to
// another as an expense paid by from and owed entirely by to. Aggregated
// alongside real expenses, it moves from toward zero and to away from it.
func SettlementExpense(id, from, to int64, amount money.Money) Expense {
	return Expense{
		ID:      id,
		PayerID: from,
		Total:   amount,
		Policy:  split.PolicyExact,
		Splits:  []split.Share{{ParticipantID: to, Amount: amount}},
	}
}
