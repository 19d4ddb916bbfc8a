package payme

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/metrics"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/usecase"
)

type Config struct {
	MerchantKey string `yaml:"merchant_key"`
	TestKey     string `yaml:"test_key"`
	CheckoutURL string `yaml:"checkout_url"`
	MerchantID  string `yaml:"merchant_id"`
}

// Handler serves the provider's single JSON-RPC endpoint. All five merchant
// API methods multiplex over one POST route; responses are always HTTP 200
// with either a result or a structured error envelope.
type Handler struct {
	engine usecase.ReconcileUseCase
	cfg    Config
	log    *zerolog.Logger
}

func NewHandler(engine usecase.ReconcileUseCase, cfg Config, logger *zerolog.Logger) *Handler {
	return &Handler{engine: engine, cfg: cfg, log: logger}
}

type rpcRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     interface{}     `json:"id"`
}

type rpcResponse struct {
	ID     interface{} `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  *rpcError   `json:"error,omitempty"`
}

type accountParams struct {
	OrderID string `json:"order_id"`
	PlanID  string `json:"plan_id,omitempty"`
}

type txParams struct {
	ID      string        `json:"id"`
	Time    int64         `json:"time"`
	Amount  int64         `json:"amount"`
	Account accountParams `json:"account"`
	Reason  *int          `json:"reason"`
	From    int64         `json:"from"`
	To      int64         `json:"to"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !Authorized(r, h.cfg.MerchantKey, h.cfg.TestKey) {
		h.log.Warn().Str("provider", "payme").Str("remote", r.RemoteAddr).Msg("callback auth failed")
		writeRPC(w, rpcResponse{Error: &errInsufficientPriv})
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPC(w, rpcResponse{Error: &errParse})
		return
	}

	var p txParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			writeRPC(w, rpcResponse{ID: req.ID, Error: &errParse})
			return
		}
	}

	var result interface{}
	var rpcErr *rpcError
	switch req.Method {
	case "CheckPerformTransaction":
		result, rpcErr = h.checkPerform(r, p)
	case "CreateTransaction":
		result, rpcErr = h.create(r, p)
	case "PerformTransaction":
		result, rpcErr = h.perform(r, p)
	case "CancelTransaction":
		result, rpcErr = h.cancel(r, p)
	case "CheckTransaction":
		result, rpcErr = h.checkTransaction(r, p)
	case "GetStatement":
		result, rpcErr = h.statement(r, p)
	default:
		rpcErr = &errMethodNotFound
	}

	outcome := "ok"
	if rpcErr != nil {
		outcome = "error"
	}
	metrics.IncCallback("payme", req.Method, outcome)

	writeRPC(w, rpcResponse{ID: req.ID, Result: result, Error: rpcErr})
}

func (h *Handler) checkPerform(r *http.Request, p txParams) (interface{}, *rpcError) {
	pay, err := h.engine.Check(r.Context(), model.ProviderPayme, p.Account.OrderID)
	if err != nil {
		return nil, mapOrderError(err)
	}
	if pay.Amount != p.Amount {
		return nil, &errInvalidAmount
	}
	if !pay.Payable() {
		return nil, &errCannotPerform
	}
	return map[string]interface{}{"allow": true}, nil
}

func (h *Handler) create(r *http.Request, p txParams) (interface{}, *rpcError) {
	at := msTime(p.Time)
	pay, err := h.engine.Reserve(r.Context(), model.Intent{
		Kind:         model.IntentReserve,
		Provider:     model.ProviderPayme,
		OrderID:      p.Account.OrderID,
		ExternalTxID: p.ID,
		Amount:       p.Amount,
		PlanID:       p.Account.PlanID,
		At:           at,
	})
	if err != nil {
		return nil, mapOrderError(err)
	}
	if pay.CancelledState() {
		return nil, &errCannotPerform
	}
	return map[string]interface{}{
		"create_time": model.Millis(pay.CreateTime),
		"transaction": pay.ID,
		"state":       int(pay.TxnState),
	}, nil
}

func (h *Handler) perform(r *http.Request, p txParams) (interface{}, *rpcError) {
	pay, err := h.engine.Confirm(r.Context(), model.Intent{
		Kind:         model.IntentConfirm,
		Provider:     model.ProviderPayme,
		ExternalTxID: p.ID,
	})
	if err != nil {
		return nil, mapTxError(err)
	}
	return map[string]interface{}{
		"transaction":  pay.ID,
		"perform_time": model.Millis(pay.PerformTime),
		"state":        int(pay.TxnState),
	}, nil
}

func (h *Handler) cancel(r *http.Request, p txParams) (interface{}, *rpcError) {
	pay, err := h.engine.Cancel(r.Context(), model.Intent{
		Kind:         model.IntentCancel,
		Provider:     model.ProviderPayme,
		ExternalTxID: p.ID,
		Reason:       p.Reason,
	})
	if err != nil {
		return nil, mapTxError(err)
	}
	return map[string]interface{}{
		"transaction": pay.ID,
		"cancel_time": model.Millis(pay.CancelTime),
		"state":       int(pay.TxnState),
	}, nil
}

func (h *Handler) checkTransaction(r *http.Request, p txParams) (interface{}, *rpcError) {
	pay, err := h.engine.FindTransaction(r.Context(), model.ProviderPayme, p.ID)
	if err != nil {
		return nil, mapTxError(err)
	}
	return transactionView(pay), nil
}

func (h *Handler) statement(r *http.Request, p txParams) (interface{}, *rpcError) {
	from := time.UnixMilli(p.From)
	to := time.UnixMilli(p.To)
	pays, err := h.engine.Statement(r.Context(), model.ProviderPayme, from, to)
	if err != nil {
		return nil, &errCannotPerform
	}
	txs := make([]map[string]interface{}, 0, len(pays))
	for _, pay := range pays {
		if pay.ExternalTxID == "" {
			continue
		}
		v := transactionView(pay)
		v["id"] = pay.ExternalTxID
		v["time"] = model.Millis(pay.CreateTime)
		v["amount"] = pay.Amount
		v["account"] = accountParams{OrderID: pay.OrderID}
		txs = append(txs, v)
	}
	return map[string]interface{}{"transactions": txs}, nil
}

// transactionView replays a transaction exactly as recorded: the provider
// queries historical state days later and expects the original timestamps,
// state code and cancel reason.
func transactionView(pay *model.Payment) map[string]interface{} {
	return map[string]interface{}{
		"create_time":  model.Millis(pay.CreateTime),
		"perform_time": model.Millis(pay.PerformTime),
		"cancel_time":  model.Millis(pay.CancelTime),
		"transaction":  pay.ID,
		"state":        int(pay.TxnState),
		"reason":       pay.CancelReason,
	}
}

func mapOrderError(err error) *rpcError {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownPlan):
		return &errOrderNotFound
	case errors.Is(err, domain.ErrAmountMismatch):
		return &errInvalidAmount
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrTransactionExists):
		return &errCannotPerform
	default:
		// Transient store failures answer with the retryable system code so
		// the provider re-delivers instead of giving up on the transaction.
		return &errSystem
	}
}

func mapTxError(err error) *rpcError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &errTxNotFound
	case errors.Is(err, domain.ErrAmountMismatch):
		return &errInvalidAmount
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrTransactionExists):
		return &errCannotPerform
	default:
		return &errSystem
	}
}

func msTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
