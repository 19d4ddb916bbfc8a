package click

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/metrics"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/usecase"
)

const (
	actionPrepare  = 0
	actionComplete = 1
)

type Config struct {
	ServiceID      string `yaml:"service_id"`
	MerchantID     string `yaml:"merchant_id"`
	MerchantUserID string `yaml:"merchant_user_id"`
	SecretKey      string `yaml:"secret_key"`
}

// Handler serves the provider's prepare/complete form endpoint. The protocol
// is two-phase: action=0 reserves the order, action=1 finalizes it. Business
// errors ride in the body as negative codes with error_note; the HTTP status
// is always 200.
type Handler struct {
	engine usecase.ReconcileUseCase
	cfg    Config
	log    *zerolog.Logger
}

func NewHandler(engine usecase.ReconcileUseCase, cfg Config, logger *zerolog.Logger) *Handler {
	return &Handler{engine: engine, cfg: cfg, log: logger}
}

type response struct {
	ClickTransID      string `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID int64  `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID int64  `json:"merchant_confirm_id,omitempty"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}

func fail(resp response, code int) response {
	resp.Error = code
	resp.ErrorNote = errorNotes[code]
	return resp
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	intent, resp := h.handle(r)
	outcome := "ok"
	if resp.Error != codeSuccess {
		outcome = "error"
	}
	metrics.IncCallback("click", intent, outcome)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handle(r *http.Request) (string, response) {
	if err := r.ParseForm(); err != nil {
		return "unknown", fail(response{}, codeRequestError)
	}

	clickTransID := r.PostFormValue("click_trans_id")
	merchantTransID := r.PostFormValue("merchant_trans_id")
	amountStr := r.PostFormValue("amount")
	actionStr := r.PostFormValue("action")
	signTime := r.PostFormValue("sign_time")
	signString := r.PostFormValue("sign_string")
	prepareIDStr := r.PostFormValue("merchant_prepare_id")

	resp := response{ClickTransID: clickTransID, MerchantTransID: merchantTransID}

	action, err := strconv.Atoi(actionStr)
	if err != nil || (action != actionPrepare && action != actionComplete) {
		return "unknown", fail(resp, codeActionNotFound)
	}
	intent := "prepare"
	if action == actionComplete {
		intent = "complete"
	}

	prepareParam := ""
	if action == actionComplete {
		prepareParam = prepareIDStr
	}
	expected := Digest(clickTransID, h.cfg.ServiceID, h.cfg.SecretKey, merchantTransID, prepareParam, amountStr, actionStr, signTime)
	if !VerifySign(expected, signString) {
		h.log.Warn().Str("provider", "click").Str("remote", r.RemoteAddr).Str("order_id", merchantTransID).Msg("callback sign check failed")
		return intent, fail(resp, codeSignCheckFailed)
	}

	amount, ok := parseAmountTiyin(amountStr)
	if !ok {
		return intent, fail(resp, codeIncorrectAmount)
	}

	if action == actionPrepare {
		return intent, h.prepare(r, resp, clickTransID, merchantTransID, amount)
	}
	return intent, h.complete(r, resp, clickTransID, merchantTransID, prepareIDStr, amount)
}

func (h *Handler) prepare(r *http.Request, resp response, clickTransID, merchantTransID string, amount int64) response {
	// The provider reports its own upstream failures through the error field;
	// the order is aborted rather than reserved.
	if code := formError(r); code < 0 {
		return h.abort(r, resp, merchantTransID, code)
	}

	pay, err := h.engine.Reserve(r.Context(), model.Intent{
		Kind:         model.IntentReserve,
		Provider:     model.ProviderClick,
		OrderID:      merchantTransID,
		ExternalTxID: clickTransID,
		Amount:       amount,
	})
	if err != nil {
		return fail(resp, mapError(err))
	}
	if pay.CancelledState() {
		return fail(resp, codeTxCancelled)
	}

	resp.MerchantPrepareID = pay.PrepareID
	resp.ErrorNote = errorNotes[codeSuccess]
	return resp
}

func (h *Handler) complete(r *http.Request, resp response, clickTransID, merchantTransID, prepareIDStr string, amount int64) response {
	pay, err := h.engine.Check(r.Context(), model.ProviderClick, merchantTransID)
	if err != nil {
		return fail(resp, mapError(err))
	}
	prepareID, err := strconv.ParseInt(prepareIDStr, 10, 64)
	if err != nil || pay.PrepareID == 0 || prepareID != pay.PrepareID {
		return fail(resp, codeTxDoesNotExist)
	}
	if pay.Amount != amount {
		return fail(resp, codeIncorrectAmount)
	}

	// An upstream failure on the complete step aborts the prepared
	// transaction.
	if code := formError(r); code < 0 {
		return h.abort(r, resp, merchantTransID, code)
	}

	confirmed, err := h.engine.Confirm(r.Context(), model.Intent{
		Kind:         model.IntentConfirm,
		Provider:     model.ProviderClick,
		OrderID:      merchantTransID,
		ExternalTxID: clickTransID,
	})
	if err != nil {
		return fail(resp, mapError(err))
	}

	// Idempotent repeat returns the original confirmation id derived from the
	// stored perform time.
	resp.MerchantConfirmID = model.Millis(confirmed.PerformTime)
	resp.ErrorNote = errorNotes[codeSuccess]
	return resp
}

func (h *Handler) abort(r *http.Request, resp response, merchantTransID string, reason int) response {
	_, err := h.engine.Fail(r.Context(), model.Intent{
		Kind:     model.IntentFail,
		Provider: model.ProviderClick,
		OrderID:  merchantTransID,
		Reason:   &reason,
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidState) {
		h.log.Error().Err(err).Str("order_id", merchantTransID).Msg("click abort on provider error failed")
	}
	return fail(resp, codeTxCancelled)
}

func mapError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownPlan):
		return codeOrderNotFound
	case errors.Is(err, domain.ErrAmountMismatch):
		return codeIncorrectAmount
	case errors.Is(err, domain.ErrTransactionExists):
		return codeAlreadyPaid
	case errors.Is(err, domain.ErrInvalidState):
		return codeTxCancelled
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, domain.ErrOperationFailed):
		// Retryable in the provider's vocabulary: its retry loop re-delivers.
		return codeFailedToUpdate
	default:
		return codeRequestError
	}
}

func formError(r *http.Request) int {
	v := r.PostFormValue("error")
	if v == "" {
		return 0
	}
	code, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return code
}

// parseAmountTiyin converts the provider's decimal sum amount ("50000.00")
// to minor units.
func parseAmountTiyin(s string) (int64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}
