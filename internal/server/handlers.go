package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/avro07/spay/internal/domain"
	"github.com/avro07/spay/internal/flow"
	"github.com/avro07/spay/internal/service"
)

// LedgerReader reads history back from the ledger mirror.
type LedgerReader interface {
	ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
}

// APIHandlers exposes HTTP handlers for the wallet API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.WalletService
	ledger  LedgerReader
}

// NewAPIHandlers constructs an APIHandlers instance. ledger may be nil when
// no mirror is configured.
func NewAPIHandlers(logger *slog.Logger, svc *service.WalletService, ledger LedgerReader) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
		ledger:  ledger,
	}
}

type loginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

type commitRequest struct {
	UserID      string                    `json:"userId"`
	Transaction service.DirectCommitInput `json:"transaction"`
}

type commitResponse struct {
	Transaction domain.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance"`
}

type historyResponse struct {
	UserID       string               `json:"userId"`
	Transactions []domain.Transaction `json:"transactions"`
}

type startFlowRequest struct {
	UserID   string          `json:"userId"`
	Category domain.Category `json:"category"`
}

type draftRequest struct {
	Recipient *string `json:"recipient"`
	Amount    *string `json:"amount"`
	Preset    *int64  `json:"preset"`
	Reference *string `json:"reference"`
	PIN       *string `json:"pin"`
	Provider  *string `json:"provider"`
}

type flowResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	StartedAt time.Time `json:"startedAt"`
	Exited    bool      `json:"exited,omitempty"`
	flow.View
}

func (h *APIHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := h.service.Login(r.Context(), req.Phone, req.PIN)
	if err != nil {
		h.fail(w, err, "login failed")
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (h *APIHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.fail(w, err, "register failed")
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

func (h *APIHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"users": h.service.Users(r.Context()),
	})
}

func (h *APIHandlers) listContacts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"contacts": h.service.Directory().Contacts(),
	})
}

func (h *APIHandlers) commitTransaction(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	tx, err := h.service.CommitDirect(r.Context(), req.UserID, req.Transaction)
	if err != nil {
		h.fail(w, err, "commit failed", "userId", req.UserID, "category", req.Transaction.Category)
		return
	}
	account, err := h.service.Account(r.Context(), req.UserID)
	if err != nil {
		h.fail(w, err, "load account after commit", "userId", req.UserID)
		return
	}
	respondJSON(w, http.StatusCreated, commitResponse{Transaction: tx, Balance: account.Balance})
}

func (h *APIHandlers) history(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	txs, err := h.service.History(r.Context(), userID, parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		h.fail(w, err, "history failed", "userId", userID)
		return
	}
	respondJSON(w, http.StatusOK, historyResponse{UserID: userID, Transactions: nonNil(txs)})
}

func (h *APIHandlers) mirroredHistory(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusNotFound, "ledger mirror not configured")
		return
	}
	userID := mux.Vars(r)["userId"]
	txs, err := h.ledger.ListTransactions(r.Context(), userID, parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		h.logger.Error("mirror read failed", "error", err, "userId", userID)
		writeError(w, http.StatusBadGateway, "ledger mirror unavailable")
		return
	}
	respondJSON(w, http.StatusOK, historyResponse{UserID: userID, Transactions: nonNil(txs)})
}

func (h *APIHandlers) startFlow(w http.ResponseWriter, r *http.Request) {
	var req startFlowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	handle, err := h.service.StartFlow(r.Context(), req.UserID, req.Category)
	if err != nil {
		h.fail(w, err, "start flow failed", "userId", req.UserID, "category", req.Category)
		return
	}
	respondJSON(w, http.StatusCreated, newFlowResponse(handle))
}

func (h *APIHandlers) viewFlow(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.flow(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newFlowResponse(handle))
}

func (h *APIHandlers) endFlow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.EndFlow(id); err != nil {
		h.fail(w, err, "end flow failed", "flowId", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandlers) updateDraft(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctrl := handle.Controller
	var edits []func() error
	if req.Provider != nil {
		edits = append(edits, func() error { return ctrl.SetProvider(*req.Provider) })
	}
	if req.Recipient != nil {
		edits = append(edits, func() error { return ctrl.SetRecipient(*req.Recipient) })
	}
	if req.Amount != nil {
		edits = append(edits, func() error { return ctrl.SetAmount(*req.Amount) })
	}
	if req.Preset != nil {
		edits = append(edits, func() error { return ctrl.SelectPreset(*req.Preset) })
	}
	if req.Reference != nil {
		edits = append(edits, func() error { return ctrl.SetReference(*req.Reference) })
	}
	if req.PIN != nil {
		edits = append(edits, func() error { return ctrl.SetPIN(*req.PIN) })
	}
	for _, edit := range edits {
		if err := edit(); err != nil {
			h.fail(w, err, "draft rejected", "flowId", handle.ID)
			return
		}
	}
	respondJSON(w, http.StatusOK, newFlowResponse(handle))
}

func (h *APIHandlers) continueFlow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*flow.Controller).Continue)
}

func (h *APIHandlers) nextStep(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*flow.Controller).Next)
}

func (h *APIHandlers) backStep(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.flow(w, r)
	if !ok {
		return
	}
	active, err := handle.Controller.Back()
	if err != nil {
		h.fail(w, err, "back rejected", "flowId", handle.ID)
		return
	}
	resp := newFlowResponse(handle)
	if !active {
		resp.Exited = true
		_ = h.service.EndFlow(handle.ID)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) holdToConfirm(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.flow(w, r)
	if !ok {
		return
	}
	tx, err := handle.Controller.HoldToConfirm(r.Context())
	if err != nil {
		h.fail(w, err, "confirm failed", "flowId", handle.ID)
		return
	}
	h.logger.Info("flow committed", "flowId", handle.ID, "transactionId", tx.ID)
	respondJSON(w, http.StatusCreated, newFlowResponse(handle))
}

func (h *APIHandlers) releaseHold(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.flow(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{
		"released": handle.Controller.ReleaseHold(),
	})
}

func (h *APIHandlers) transition(w http.ResponseWriter, r *http.Request, step func(*flow.Controller) error) {
	handle, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := step(handle.Controller); err != nil {
		h.fail(w, err, "transition rejected", "flowId", handle.ID)
		return
	}
	respondJSON(w, http.StatusOK, newFlowResponse(handle))
}

func (h *APIHandlers) flow(w http.ResponseWriter, r *http.Request) (*service.FlowHandle, bool) {
	id := mux.Vars(r)["id"]
	handle, err := h.service.Flow(id)
	if err != nil {
		h.fail(w, err, "flow lookup failed", "flowId", id)
		return nil, false
	}
	return handle, true
}

// fail writes err and logs it at a level matching its status.
func (h *APIHandlers) fail(w http.ResponseWriter, err error, msg string, attrs ...any) {
	status := writeServiceError(w, err)
	attrs = append(attrs, "error", err, "status", status)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, attrs...)
		return
	}
	h.logger.Debug(msg, attrs...)
}

func newFlowResponse(handle *service.FlowHandle) flowResponse {
	return flowResponse{
		ID:        handle.ID,
		UserID:    handle.UserID,
		StartedAt: handle.StartedAt,
		View:      handle.Controller.View(),
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	v, err := strconv.Atoi(value)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func nonNil(txs []domain.Transaction) []domain.Transaction {
	if txs == nil {
		return []domain.Transaction{}
	}
	return txs
}
