package balance

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
)

// Handler serves balance views
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for balance endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	return r
}

func queryID(r *http.Request, key string) (int64, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, true, errors.New("invalid " + key)
	}
	return id, true, nil
}

// Get handles GET /balances
// @Summary      Get balances
// @Description  Group view with net balances and simplified debts. With user_id set, data is that member's UserBalance instead.
// @Tags         balances
// @Produce      json
// @Param        group_id query int true "Group ID"
// @Param        user_id query int false "Member to report on"
// @Success      200 {object} response.APIResponse{data=GroupReport}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /balances [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, ok, err := queryID(r, "group_id")
	if err != nil {
		response.BadRequest(w, "Invalid group_id")
		return
	}
	if !ok {
		response.BadRequest(w, "group_id is required")
		return
	}
	userID, hasUser, err := queryID(r, "user_id")
	if err != nil {
		response.BadRequest(w, "Invalid user_id")
		return
	}
	callerID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var data any
	if hasUser {
		data, err = h.service.UserBalance(r.Context(), callerID, groupID, userID)
	} else {
		data, err = h.service.GroupReport(r.Context(), callerID, groupID)
	}

	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, data)
	case errors.Is(err, ErrNotMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrUserNotMember):
		response.NotFound(w, err.Error())
	default:
		slog.Error("failed to compute balances", "group_id", groupID, "error", err)
		response.InternalError(w, "Failed to compute balances")
	}
}
