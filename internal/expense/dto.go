package expense

import (
	"strings"
	"time"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/pkg/money"
)

// CreateExpenseRequest represents the request to create an expense. The
// authenticated user is the payer.
type CreateExpenseRequest struct {
	GroupID      int64         `json:"group_id" validate:"required"`
	Description  string        `json:"description" validate:"required,min=1,max=255"`
	Amount       money.Money   `json:"amount" validate:"required,gt=0"`
	ImageURL     *string       `json:"image_url,omitempty"`
	SplitPolicy  string        `json:"split_policy" validate:"required,oneof=equal exact percentage"`
	Participants []split.Input `json:"participants" validate:"required,min=1"`
}

// Validate trims the description and checks the fields that do not depend on
// the split policy.
func (r *CreateExpenseRequest) Validate() string {
	r.Description = strings.TrimSpace(r.Description)
	switch {
	case r.GroupID <= 0:
		return "group_id is required"
	case r.Description == "":
		return "description is required"
	case len(r.Description) > 255:
		return "description must be at most 255 characters"
	case !r.Amount.IsPositive():
		return "amount must be greater than zero"
	case len(r.Participants) == 0:
		return "at least one participant is required"
	}
	return ""
}

// ParticipantIDs lists the user ids named in the request, in order.
func (r *CreateExpenseRequest) ParticipantIDs() []int64 {
	ids := make([]int64, len(r.Participants))
	for i, p := range r.Participants {
		ids[i] = p.UserID
	}
	return ids
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            int64            `json:"id"`
	GroupID       int64            `json:"group_id"`
	PayerID       int64            `json:"payer_id"`
	PayerUsername string           `json:"payer_username,omitempty"`
	Description   string           `json:"description"`
	Amount        money.Money      `json:"amount"`
	ImageURL      *string          `json:"image_url,omitempty"`
	SplitPolicy   split.Policy     `json:"split_policy"`
	CreatedAt     string           `json:"created_at"`
	Splits        []*ShareResponse `json:"splits,omitempty"`
}

// ShareResponse represents one participant's share
type ShareResponse struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username,omitempty"`
	Amount   money.Money `json:"amount"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		PayerID:       e.PayerID,
		PayerUsername: e.PayerUsername,
		Description:   e.Description,
		Amount:        e.Amount,
		ImageURL:      e.ImageURL,
		SplitPolicy:   e.Policy,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts a Share model to a ShareResponse DTO
func (s *Share) ToResponse() *ShareResponse {
	return &ShareResponse{
		UserID:   s.UserID,
		Username: s.Username,
		Amount:   s.Amount,
	}
}

// ToResponse renders the expense with its shares attached.
func (e *ExpenseWithShares) ToResponse() *ExpenseResponse {
	resp := e.Expense.ToResponse()
	resp.Splits = make([]*ShareResponse, len(e.Shares))
	for i, s := range e.Shares {
		resp.Splits[i] = s.ToResponse()
	}
	return resp
}
