package uzum

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/metrics"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/usecase"
)

// Status codes in the provider's callback vocabulary. 0 is success.
const (
	statusOK               = 0
	statusMalformedRequest = 10001
	statusInvalidSignature = 10002
	statusOrderNotFound    = 10005
	statusInvalidState     = 10006
	statusAmountMismatch   = 10011
	statusTxNotFound       = 10014
	statusInternal         = 99999
)

const maxBodySize = 1 << 20

type Config struct {
	ServiceID string `yaml:"service_id"`
	SecretKey string `yaml:"secret_key"`
	PayURL    string `yaml:"pay_url"`
}

// Handler serves the provider's single JSON callback endpoint. The method
// field in the body selects check/create/confirm/reverse; the signature is an
// HMAC over the raw body, so the body is read and verified before any JSON
// parsing.
type Handler struct {
	engine usecase.ReconcileUseCase
	cfg    Config
	log    *zerolog.Logger
}

func NewHandler(engine usecase.ReconcileUseCase, cfg Config, logger *zerolog.Logger) *Handler {
	return &Handler{engine: engine, cfg: cfg, log: logger}
}

type request struct {
	ServiceID       string            `json:"serviceId"`
	TransactionID   string            `json:"transactionId"`
	MerchantTransID string            `json:"merchantTransId"`
	Amount          int64             `json:"amount"`
	Method          string            `json:"method"`
	Timestamp       int64             `json:"timestamp"`
	Params          map[string]string `json:"params,omitempty"`
}

type response struct {
	Status        int    `json:"status"`
	TransactionID string `json:"transactionId,omitempty"`
	ConfirmTime   int64  `json:"confirmTime,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	intent, resp := h.handle(r)
	outcome := "ok"
	if resp.Status != statusOK {
		outcome = "error"
	}
	metrics.IncCallback("uzum", intent, outcome)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handle(r *http.Request) (string, response) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return "unknown", response{Status: statusMalformedRequest, ErrorMessage: "could not read body"}
	}

	if !VerifySignature([]byte(h.cfg.SecretKey), body, r.Header.Get(SignatureHeader)) {
		h.log.Warn().Str("provider", "uzum").Str("remote", r.RemoteAddr).Msg("callback signature verification failed")
		return "unknown", response{Status: statusInvalidSignature, ErrorMessage: "invalid signature"}
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return "unknown", response{Status: statusMalformedRequest, ErrorMessage: "malformed request body"}
	}
	if req.ServiceID != h.cfg.ServiceID {
		return req.Method, response{Status: statusMalformedRequest, ErrorMessage: "unknown service id"}
	}

	switch req.Method {
	case "check":
		return req.Method, h.check(r, req)
	case "create":
		return req.Method, h.create(r, req)
	case "confirm":
		return req.Method, h.confirm(r, req)
	case "reverse":
		return req.Method, h.reverse(r, req)
	default:
		return "unknown", response{Status: statusMalformedRequest, ErrorMessage: "unknown method"}
	}
}

func (h *Handler) check(r *http.Request, req request) response {
	pay, err := h.engine.Check(r.Context(), model.ProviderUzum, req.MerchantTransID)
	if err != nil {
		return h.errResponse(req, err)
	}
	if !pay.Payable() {
		return response{Status: statusInvalidState, TransactionID: req.TransactionID, ErrorMessage: "order is not payable"}
	}
	if req.Amount != 0 && req.Amount != pay.Amount {
		return response{Status: statusAmountMismatch, TransactionID: req.TransactionID, ErrorMessage: "amount mismatch"}
	}
	return response{Status: statusOK, TransactionID: req.TransactionID}
}

func (h *Handler) create(r *http.Request, req request) response {
	pay, err := h.engine.Reserve(r.Context(), model.Intent{
		Kind:         model.IntentReserve,
		Provider:     model.ProviderUzum,
		OrderID:      req.MerchantTransID,
		ExternalTxID: req.TransactionID,
		Amount:       req.Amount,
		PlanID:       req.Params["plan_id"],
		At:           msTime(req.Timestamp),
	})
	if err != nil {
		return h.errResponse(req, err)
	}
	if pay.CancelledState() {
		return response{Status: statusInvalidState, TransactionID: req.TransactionID, ErrorMessage: "transaction cancelled"}
	}
	return response{Status: statusOK, TransactionID: req.TransactionID}
}

func (h *Handler) confirm(r *http.Request, req request) response {
	pay, err := h.engine.Confirm(r.Context(), model.Intent{
		Kind:         model.IntentConfirm,
		Provider:     model.ProviderUzum,
		OrderID:      req.MerchantTransID,
		ExternalTxID: req.TransactionID,
		At:           msTime(req.Timestamp),
	})
	if err != nil {
		return h.errResponse(req, err)
	}
	return response{
		Status:        statusOK,
		TransactionID: req.TransactionID,
		ConfirmTime:   model.Millis(pay.PerformTime),
	}
}

func (h *Handler) reverse(r *http.Request, req request) response {
	pay, err := h.engine.Cancel(r.Context(), model.Intent{
		Kind:         model.IntentCancel,
		Provider:     model.ProviderUzum,
		OrderID:      req.MerchantTransID,
		ExternalTxID: req.TransactionID,
		At:           msTime(req.Timestamp),
	})
	if err != nil {
		return h.errResponse(req, err)
	}
	return response{
		Status:        statusOK,
		TransactionID: req.TransactionID,
		ConfirmTime:   model.Millis(pay.CancelTime),
	}
}

func (h *Handler) errResponse(req request, err error) response {
	var status int
	var msg string
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownPlan):
		status, msg = statusOrderNotFound, "order not found"
	case errors.Is(err, domain.ErrAmountMismatch):
		status, msg = statusAmountMismatch, "amount mismatch"
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrTransactionExists):
		status, msg = statusInvalidState, "operation not allowed in current state"
	default:
		status, msg = statusInternal, "temporary failure, retry later"
	}
	return response{Status: status, TransactionID: req.TransactionID, ErrorMessage: msg}
}

func msTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}
