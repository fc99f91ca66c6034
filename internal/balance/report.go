package balance

import "github.com/fkhayef/splitledger/pkg/money"

// Status classifies a net balance.
type Status string

const (
	StatusOwed    Status = "owed"
	StatusOwes    Status = "owes"
	StatusSettled Status = "settled"
)

// BalanceSummary is a net balance with its status and unsigned amount.
type BalanceSummary struct {
	ParticipantID int64       `json:"user_id"`
	Name          string      `json:"name,omitempty"`
	Balance       money.Money `json:"balance"`
	Status        Status      `json:"status"`
	Amount        money.Money `json:"amount"`
}

// Counterparty is one side of a simplified debt seen from a single user.
type Counterparty struct {
	ParticipantID int64       `json:"user_id"`
	Name          string      `json:"name,omitempty"`
	Amount        money.Money `json:"amount"`
}

// UserBalance is one member's position in a group.
type UserBalance struct {
	UserID     int64          `json:"user_id"`
	Name       string         `json:"name,omitempty"`
	TotalPaid  money.Money    `json:"total_paid"`
	TotalShare money.Money    `json:"total_share"`
	NetBalance money.Money    `json:"net_balance"`
	OwesTo     []Counterparty `json:"owes_to"`
	OwedBy     []Counterparty `json:"owed_by"`
}

// GroupReport is the whole-group balance view.
type GroupReport struct {
	Balances        []BalanceSummary `json:"balances"`
	SimplifiedDebts []Transfer       `json:"simplified_debts"`
	TotalExpenses   int              `json:"total_expenses"`
	TotalAmount     money.Money      `json:"total_amount"`
}

// Summarize classifies every ledger entry, settled ones included.
func Summarize(l *Ledger) []BalanceSummary {
	balances := l.Balances()
	out := make([]BalanceSummary, len(balances))
	for i, nb := range balances {
		s := BalanceSummary{ParticipantID: nb.ParticipantID, Balance: nb.Balance, Amount: nb.Balance.Abs()}
		switch nb.Balance.Sign() {
		case 1:
			s.Status = StatusOwed
		case -1:
			s.Status = StatusOwes
		default:
			s.Status = StatusSettled
		}
		out[i] = s
	}
	return out
}

// UserDetail reports what id paid, what their own shares add up to and
// which simplified transfers involve them. history should hold every
// expense of the group, settlements included.
func UserDetail(id int64, history []Expense) UserBalance {
	paid, share := money.Zero, money.Zero
	for _, e := range history {
		if e.PayerID == id {
			paid = paid.Add(e.Total)
		}
		for _, s := range e.Splits {
			if s.ParticipantID == id {
				share = share.Add(s.Amount)
			}
		}
	}

	ub := UserBalance{
		UserID:     id,
		TotalPaid:  paid,
		TotalShare: share,
		NetBalance: paid.Sub(share),
		OwesTo:     []Counterparty{},
		OwedBy:     []Counterparty{},
	}
	for _, t := range Simplify(Aggregate(history)) {
		switch id {
		case t.From:
			ub.OwesTo = append(ub.OwesTo, Counterparty{ParticipantID: t.To, Amount: t.Amount})
		case t.To:
			ub.OwedBy = append(ub.OwedBy, Counterparty{ParticipantID: t.From, Amount: t.Amount})
		}
	}
	return ub
}

// Report builds the group view. Settlements shift balances but are not
// counted in TotalExpenses or TotalAmount.
func Report(expenses, settlements []Expense) GroupReport {
	history := make([]Expense, 0, len(expenses)+len(settlements))
	history = append(history, expenses...)
	history = append(history, settlements...)

	l := Aggregate(history)

	total := money.Zero
	for _, e := range expenses {
		total = total.Add(e.Total)
	}

	return GroupReport{
		Balances:        Summarize(l),
		SimplifiedDebts: Simplify(l),
		TotalExpenses:   len(expenses),
		TotalAmount:     total,
	}
}
