package balance

import (
	"sort"

	"github.com/fkhayef/splitledger/pkg/money"
)

type party struct {
	id        int64
	remaining money.Money
}

// Simplify matches the largest creditor with the largest debtor until one
// side runs out. Zero balances are skipped and ties keep ledger order.
//
// The result has at most creditors+debtors-1 transfers, and applying every
// transfer to l brings all balances to zero when l sums to zero.
func Simplify(l *Ledger) []Transfer {
	var creditors, debtors []party
	for _, nb := range l.Balances() {
		switch nb.Balance.Sign() {
		case 1:
			creditors = append(creditors, party{id: nb.ParticipantID, remaining: nb.Balance})
		case -1:
			debtors = append(debtors, party{id: nb.ParticipantID, remaining: nb.Balance.Abs()})
		}
	}

	byRemainingDesc := func(ps []party) func(i, j int) bool {
		return func(i, j int) bool { return ps[i].remaining.GreaterThan(ps[j].remaining) }
	}
	sort.SliceStable(creditors, byRemainingDesc(creditors))
	sort.SliceStable(debtors, byRemainingDesc(debtors))

	transfers := make([]Transfer, 0)
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		c, d := &creditors[ci], &debtors[di]

		settle := money.Min(c.remaining, d.remaining)
		if settle.IsPositive() {
			transfers = append(transfers, Transfer{From: d.id, To: c.id, Amount: settle})
		}

		c.remaining = c.remaining.Sub(settle)
		d.remaining = d.remaining.Sub(settle)

		if c.remaining.IsZero() {
			ci++
		}
		if d.remaining.IsZero() {
			di++
		}
	}
	return transfers
}
