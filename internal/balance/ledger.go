// Package balance turns a group's expense history into net balances,
// a simplified list of transfers and per-user summaries.
//
// Everything in this file and in aggregate.go, simplify.go and report.go is
// pure: inputs are only read and every call returns fresh values.
package balance

import (
	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Expense is the slice of an expense record the engine needs.
type Expense struct {
	ID      int64         `json:"id"`
	PayerID int64         `json:"payer_id"`
	Total   money.Money   `json:"total_amount"`
	Policy  split.Policy  `json:"split_policy"`
	Splits  []split.Share `json:"splits"`
}

// NetBalance is positive when the participant is owed money and negative
// when they owe.
type NetBalance struct {
	ParticipantID int64       `json:"user_id"`
	Balance       money.Money `json:"balance"`
}

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	From     int64       `json:"from_user_id"`
	FromName string      `json:"from_name,omitempty"`
	To       int64       `json:"to_user_id"`
	ToName   string      `json:"to_name,omitempty"`
	Amount   money.Money `json:"amount"`
}

// Ledger maps participants to balances and remembers the order in which
// participants were first seen. That order is the tie-break everywhere
// balances are sorted.
type Ledger struct {
	order    []int64
	balances map[int64]money.Money
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[int64]money.Money)}
}

// Add moves id's balance by delta. Unseen ids start at zero.
func (l *Ledger) Add(id int64, delta money.Money) {
	cur, ok := l.balances[id]
	if !ok {
		l.order = append(l.order, id)
	}
	l.balances[id] = cur.Add(delta)
}

// Get returns id's balance, zero when id has never been seen.
func (l *Ledger) Get(id int64) money.Money {
	return l.balances[id]
}

// Len is the number of participants, including settled ones.
func (l *Ledger) Len() int {
	return len(l.order)
}

// IDs returns participants in first-seen order.
func (l *Ledger) IDs() []int64 {
	out := make([]int64, len(l.order))
	copy(out, l.order)
	return out
}

// Balances returns one entry per participant in first-seen order.
func (l *Ledger) Balances() []NetBalance {
	out := make([]NetBalance, len(l.order))
	for i, id := range l.order {
		out[i] = NetBalance{ParticipantID: id, Balance: l.balances[id]}
	}
	return out
}
