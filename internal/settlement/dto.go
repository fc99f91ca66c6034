package settlement

import (
	"time"

	"github.com/fkhayef/splitledger/pkg/money"
)

// CreateSettlementRequest records a payment between two group members. When
// Amount is omitted the outstanding simplified debt from FromUserID to
// ToUserID is used.
type CreateSettlementRequest struct {
	GroupID    int64        `json:"group_id" validate:"required"`
	FromUserID int64        `json:"from_user_id" validate:"required"`
	ToUserID   int64        `json:"to_user_id" validate:"required,nefield=FromUserID"`
	Amount     *money.Money `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Note       *string      `json:"note,omitempty"`
}

// Validate returns a message for the first problem found.
func (r *CreateSettlementRequest) Validate() string {
	switch {
	case r.GroupID <= 0:
		return "group_id is required"
	case r.FromUserID <= 0:
		return "from_user_id is required"
	case r.ToUserID <= 0:
		return "to_user_id is required"
	case r.FromUserID == r.ToUserID:
		return "Cannot settle with yourself"
	case r.Amount != nil && !r.Amount.IsPositive():
		return "Invalid amount"
	case r.Note != nil && len(*r.Note) > 500:
		return "note must be at most 500 characters"
	}
	return ""
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID           int64            `json:"id"`
	GroupID      int64            `json:"group_id"`
	FromUserID   int64            `json:"from_user_id"`
	FromUsername string           `json:"from_username,omitempty"`
	ToUserID     int64            `json:"to_user_id"`
	ToUsername   string           `json:"to_username,omitempty"`
	Amount       money.Money      `json:"amount"`
	Note         *string          `json:"note,omitempty"`
	Status       SettlementStatus `json:"status"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	return &SettlementResponse{
		ID:           s.ID,
		GroupID:      s.GroupID,
		FromUserID:   s.FromUserID,
		FromUsername: s.FromUsername,
		ToUserID:     s.ToUserID,
		ToUsername:   s.ToUsername,
		Amount:       s.Amount,
		Note:         s.Note,
		Status:       s.Status,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
