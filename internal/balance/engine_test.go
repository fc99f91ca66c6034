package balance

import (
	"math/rand"
	"testing"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/pkg/money"
)

func m(s string) money.Money { return money.MustParse(s) }

func equalExpense(t *testing.T, id, payer int64, total string, participants ...int64) Expense {
	t.Helper()
	shares, err := split.ComputeEqualSplits(m(total), participants)
	if err != nil {
		t.Fatalf("ComputeEqualSplits failed: %v", err)
	}
	return Expense{ID: id, PayerID: payer, Total: m(total), Policy: split.PolicyEqual, Splits: shares}
}

func hasParticipant(l *Ledger, id int64) bool {
	_, ok := l.balances[id]
	return ok
}

func ledgerSum(l *Ledger) money.Money {
	total := money.Zero
	for _, id := range l.order {
		total = total.Add(l.balances[id])
	}
	return total
}

// applyTransfer records that t was paid.
func applyTransfer(l *Ledger, t Transfer) {
	l.Add(t.From, t.Amount)
	l.Add(t.To, t.Amount.Neg())
}

func cloneLedger(l *Ledger) *Ledger {
	c := NewLedger()
	for _, nb := range l.Balances() {
		c.Add(nb.ParticipantID, nb.Balance)
	}
	return c
}

func assertBalances(t *testing.T, l *Ledger, want map[int64]string) {
	t.Helper()
	if l.Len() != len(want) {
		t.Errorf("ledger has %d entries, want %d", l.Len(), len(want))
	}
	for id, w := range want {
		if got := l.Get(id); got.String() != w {
			t.Errorf("balance[%d] = %s, want %s", id, got, w)
		}
	}
}

func assertTransfers(t *testing.T, got []Transfer, want []Transfer) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d transfers %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i].From != want[i].From || got[i].To != want[i].To || !got[i].Amount.Equal(want[i].Amount) {
			t.Errorf("transfer %d = %d->%d %s, want %d->%d %s", i,
				got[i].From, got[i].To, got[i].Amount,
				want[i].From, want[i].To, want[i].Amount)
		}
	}
}

func TestScenarioSinglePayerThreeWays(t *testing.T) {
	expenses := []Expense{equalExpense(t, 1, 1, "30.00", 1, 2, 3)}

	l := Aggregate(expenses)
	assertBalances(t, l, map[int64]string{1: "20.00", 2: "-10.00", 3: "-10.00"})

	assertTransfers(t, Simplify(l), []Transfer{
		{From: 2, To: 1, Amount: m("10.00")},
		{From: 3, To: 1, Amount: m("10.00")},
	})
}

func TestScenarioExpensesCancel(t *testing.T) {
	expenses := []Expense{
		equalExpense(t, 1, 1, "20", 1, 2),
		equalExpense(t, 2, 2, "20", 1, 2),
	}

	l := Aggregate(expenses)
	assertBalances(t, l, map[int64]string{1: "0.00", 2: "0.00"})

	transfers := Simplify(l)
	if transfers == nil || len(transfers) != 0 {
		t.Errorf("expected empty non-nil transfer list, got %v", transfers)
	}
}

func TestAggregateKeepsFirstSeenOrder(t *testing.T) {
	expenses := []Expense{
		equalExpense(t, 1, 5, "20", 9, 7),
		equalExpense(t, 2, 7, "9", 5, 7, 9),
	}

	l := Aggregate(expenses)
	if !hasParticipant(l, 9) || hasParticipant(l, 4) {
		t.Errorf("hasParticipant(9) = %v, hasParticipant(4) = %v", hasParticipant(l, 9), hasParticipant(l, 4))
	}

	got := l.IDs()
	want := []int64{5, 9, 7}
	if len(got) != len(want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", got, want)
		}
	}
}

func TestSimplifyTiesKeepLedgerOrder(t *testing.T) {
	expenses := []Expense{
		equalExpense(t, 1, 1, "20", 3, 4),
		equalExpense(t, 2, 2, "20", 3, 4),
	}
	// 1:+20 3:-20 4:-20 2:+20
	assertTransfers(t, Simplify(Aggregate(expenses)), []Transfer{
		{From: 3, To: 1, Amount: m("20.00")},
		{From: 4, To: 2, Amount: m("20.00")},
	})
}

func TestSimplifyLargestFirst(t *testing.T) {
	l := NewLedger()
	l.Add(1, m("5"))
	l.Add(2, m("25"))
	l.Add(3, m("-12"))
	l.Add(4, m("-18"))

	assertTransfers(t, Simplify(l), []Transfer{
		{From: 4, To: 2, Amount: m("18.00")},
		{From: 3, To: 2, Amount: m("7.00")},
		{From: 3, To: 1, Amount: m("5.00")},
	})
}

func TestSimplifyDoesNotMutateLedger(t *testing.T) {
	l := Aggregate([]Expense{equalExpense(t, 1, 1, "30", 1, 2, 3)})
	before := cloneLedger(l)
	Simplify(l)
	for _, id := range l.IDs() {
		if !l.Get(id).Equal(before.Get(id)) {
			t.Errorf("balance[%d] changed from %s to %s", id, before.Get(id), l.Get(id))
		}
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	expenses := []Expense{
		equalExpense(t, 1, 1, "10.00", 1, 2, 3),
		equalExpense(t, 2, 3, "7.77", 2, 3),
	}
	a, b := Aggregate(expenses).Balances(), Aggregate(expenses).Balances()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ParticipantID != b[i].ParticipantID || !a[i].Balance.Equal(b[i].Balance) {
			t.Errorf("entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRandomHistoriesConserveAndSettle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	factory := split.NewSplitStrategyFactory()

	for round := 0; round < 200; round++ {
		members := 2 + rng.Intn(8)
		var expenses []Expense
		for e := 0; e < 1+rng.Intn(12); e++ {
			total := money.FromCents(int64(1 + rng.Intn(50000)))
			payer := int64(1 + rng.Intn(members))

			var inputs []split.Input
			for id := 1; id <= members; id++ {
				if rng.Intn(3) > 0 || int64(id) == payer {
					inputs = append(inputs, split.Input{UserID: int64(id)})
				}
			}

			strategy, _ := factory.Create(split.PolicyEqual)
			shares, err := strategy.Calculate(total, inputs)
			if err != nil {
				// small totals across many people can drift past a cent
				continue
			}
			expenses = append(expenses, Expense{ID: int64(e), PayerID: payer, Total: total, Policy: split.PolicyEqual, Splits: shares})
		}

		l := Aggregate(expenses)
		if !ledgerSum(l).IsZero() {
			t.Fatalf("round %d: balances sum to %s", round, ledgerSum(l))
		}

		var creditors, debtors int
		for _, nb := range l.Balances() {
			switch nb.Balance.Sign() {
			case 1:
				creditors++
			case -1:
				debtors++
			}
		}

		transfers := Simplify(l)
		if creditors+debtors > 0 && len(transfers) > creditors+debtors-1 {
			t.Fatalf("round %d: %d transfers for %d creditors and %d debtors", round, len(transfers), creditors, debtors)
		}

		replay := cloneLedger(l)
		for _, tr := range transfers {
			if !tr.Amount.IsPositive() || tr.From == tr.To {
				t.Fatalf("round %d: bad transfer %+v", round, tr)
			}
			applyTransfer(replay, tr)
		}
		for _, nb := range replay.Balances() {
			if !nb.Balance.IsZero() {
				t.Fatalf("round %d: participant %d left at %s after replay", round, nb.ParticipantID, nb.Balance)
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	l := NewLedger()
	l.Add(1, m("12.50"))
	l.Add(2, m("-12.50"))
	l.Add(3, money.Zero)

	got := Summarize(l)
	want := []struct {
		id     int64
		status Status
		amount string
	}{
		{1, StatusOwed, "12.50"},
		{2, StatusOwes, "12.50"},
		{3, StatusSettled, "0.00"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d summaries, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].ParticipantID != w.id || got[i].Status != w.status || got[i].Amount.String() != w.amount {
			t.Errorf("summary %d = %+v, want %+v", i, got[i], w)
		}
	}
	if got[1].Balance.String() != "-12.50" {
		t.Errorf("signed balance = %s, want -12.50", got[1].Balance)
	}
}

func TestUserDetail(t *testing.T) {
	history := []Expense{equalExpense(t, 1, 1, "30.00", 1, 2, 3)}

	payer := UserDetail(1, history)
	if payer.TotalPaid.String() != "30.00" || payer.TotalShare.String() != "10.00" || payer.NetBalance.String() != "20.00" {
		t.Errorf("payer detail = %+v", payer)
	}
	if len(payer.OwesTo) != 0 || len(payer.OwedBy) != 2 {
		t.Fatalf("payer owes_to=%v owed_by=%v", payer.OwesTo, payer.OwedBy)
	}
	if payer.OwedBy[0].ParticipantID != 2 || payer.OwedBy[1].ParticipantID != 3 {
		t.Errorf("owed_by order = %v", payer.OwedBy)
	}

	debtor := UserDetail(2, history)
	if debtor.TotalPaid.String() != "0.00" || debtor.NetBalance.String() != "-10.00" {
		t.Errorf("debtor detail = %+v", debtor)
	}
	if len(debtor.OwesTo) != 1 || debtor.OwesTo[0].ParticipantID != 1 || debtor.OwesTo[0].Amount.String() != "10.00" {
		t.Errorf("debtor owes_to = %v", debtor.OwesTo)
	}

	stranger := UserDetail(99, history)
	if !stranger.NetBalance.IsZero() || stranger.OwesTo == nil || stranger.OwedBy == nil {
		t.Errorf("stranger detail = %+v", stranger)
	}
}

func TestUserDetailAgreesWithAggregate(t *testing.T) {
	history := []Expense{
		equalExpense(t, 1, 1, "10.00", 1, 2, 3),
		equalExpense(t, 2, 2, "45.55", 1, 2, 3, 4),
		SettlementExpense(3, 3, 1, m("3.33")),
	}
	l := Aggregate(history)
	for _, id := range l.IDs() {
		if got := UserDetail(id, history).NetBalance; !got.Equal(l.Get(id)) {
			t.Errorf("user %d: detail net %s, aggregate %s", id, got, l.Get(id))
		}
	}
}

func TestReportFoldsSettlements(t *testing.T) {
	expenses := []Expense{equalExpense(t, 1, 1, "30.00", 1, 2, 3)}
	settlements := []Expense{SettlementExpense(1, 2, 1, m("10.00"))}

	r := Report(expenses, settlements)
	if r.TotalExpenses != 1 || r.TotalAmount.String() != "30.00" {
		t.Errorf("totals = %d %s", r.TotalExpenses, r.TotalAmount)
	}
	assertTransfers(t, r.SimplifiedDebts, []Transfer{{From: 3, To: 1, Amount: m("10.00")}})

	statuses := map[int64]Status{}
	for _, b := range r.Balances {
		statuses[b.ParticipantID] = b.Status
	}
	if statuses[1] != StatusOwed || statuses[2] != StatusSettled || statuses[3] != StatusOwes {
		t.Errorf("statuses = %v", statuses)
	}
}
