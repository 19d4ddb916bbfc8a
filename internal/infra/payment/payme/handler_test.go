//go:build !integration

package payme

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
)

type mockEngine struct {
	CheckFunc           func(ctx context.Context, provider model.PaymentProvider, orderID string) (*model.Payment, error)
	ReserveFunc         func(ctx context.Context, in model.Intent) (*model.Payment, error)
	ConfirmFunc         func(ctx context.Context, in model.Intent) (*model.Payment, error)
	CancelFunc          func(ctx context.Context, in model.Intent) (*model.Payment, error)
	FindTransactionFunc func(ctx context.Context, provider model.PaymentProvider, externalTxID string) (*model.Payment, error)
	StatementFunc       func(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error)
}

func (m *mockEngine) Check(ctx context.Context, provider model.PaymentProvider, orderID string) (*model.Payment, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, provider, orderID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEngine) Reserve(ctx context.Context, in model.Intent) (*model.Payment, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, in)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEngine) Confirm(ctx context.Context, in model.Intent) (*model.Payment, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, in)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEngine) Cancel(ctx context.Context, in model.Intent) (*model.Payment, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, in)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEngine) Fail(ctx context.Context, in model.Intent) (*model.Payment, error) {
	return nil, domain.ErrNotFound
}

func (m *mockEngine) FindTransaction(ctx context.Context, provider model.PaymentProvider, externalTxID string) (*model.Payment, error) {
	if m.FindTransactionFunc != nil {
		return m.FindTransactionFunc(ctx, provider, externalTxID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEngine) Statement(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error) {
	if m.StatementFunc != nil {
		return m.StatementFunc(ctx, provider, from, to)
	}
	return nil, nil
}

func (m *mockEngine) ReplayActivation(ctx context.Context, paymentID string) error {
	return nil
}

var testCfg = Config{MerchantKey: "merchant-key", TestKey: "test-key", MerchantID: "m1"}

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type rpcResult struct {
	ID     interface{}            `json:"id"`
	Result map[string]interface{} `json:"result"`
	Error  *rpcError              `json:"error"`
}

// call posts an authenticated JSON-RPC request and decodes the envelope.
func call(t *testing.T, h *Handler, password, method string, params interface{}) rpcResult {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"id": 7, "method": method, "params": params})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/v1/callback/payme", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if password != "" {
		req.SetBasicAuth("Paycom", password)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected HTTP 200, got %d", rec.Code)
	}
	var out rpcResult
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestPaymeHandler_Auth(t *testing.T) {
	h := NewHandler(&mockEngine{}, testCfg, testLogger())

	t.Run("rejects a missing credential", func(t *testing.T) {
		out := call(t, h, "", "CheckPerformTransaction", nil)
		if out.Error == nil || out.Error.Code != codeInsufficientPriv {
			t.Errorf("expected %d, got %+v", codeInsufficientPriv, out.Error)
		}
	})

	t.Run("rejects a wrong key", func(t *testing.T) {
		out := call(t, h, "wrong-key!!", "CheckPerformTransaction", nil)
		if out.Error == nil || out.Error.Code != codeInsufficientPriv {
			t.Errorf("expected %d, got %+v", codeInsufficientPriv, out.Error)
		}
	})

	t.Run("accepts the sandbox key", func(t *testing.T) {
		out := call(t, h, "test-key", "UnknownMethod", nil)
		if out.Error == nil || out.Error.Code != codeMethodNotFound {
			t.Errorf("expected %d past auth, got %+v", codeMethodNotFound, out.Error)
		}
	})
}

func TestPaymeHandler_CheckPerform(t *testing.T) {
	pending := &model.Payment{ID: "pay-1", OrderID: "order-1", Amount: 5000000, Status: model.PaymentStatusPending}

	t.Run("allows a payable order with the right amount", func(t *testing.T) {
		engine := &mockEngine{
			CheckFunc: func(ctx context.Context, provider model.PaymentProvider, orderID string) (*model.Payment, error) {
				cp := *pending
				return &cp, nil
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "CheckPerformTransaction",
			map[string]interface{}{"amount": 5000000, "account": map[string]string{"order_id": "order-1"}})
		if out.Error != nil {
			t.Fatalf("expected no error, got %+v", out.Error)
		}
		if allow, _ := out.Result["allow"].(bool); !allow {
			t.Error("expected allow=true")
		}
	})

	t.Run("rejects a wrong amount", func(t *testing.T) {
		engine := &mockEngine{
			CheckFunc: func(ctx context.Context, provider model.PaymentProvider, orderID string) (*model.Payment, error) {
				cp := *pending
				return &cp, nil
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "CheckPerformTransaction",
			map[string]interface{}{"amount": 1, "account": map[string]string{"order_id": "order-1"}})
		if out.Error == nil || out.Error.Code != codeInvalidAmount {
			t.Errorf("expected %d, got %+v", codeInvalidAmount, out.Error)
		}
	})

	t.Run("reports an unknown order with the account data hint", func(t *testing.T) {
		h := NewHandler(&mockEngine{}, testCfg, testLogger())

		out := call(t, h, "merchant-key", "CheckPerformTransaction",
			map[string]interface{}{"amount": 5000000, "account": map[string]string{"order_id": "nope"}})
		if out.Error == nil || out.Error.Code != codeOrderNotFound {
			t.Fatalf("expected %d, got %+v", codeOrderNotFound, out.Error)
		}
		if out.Error.Data != "order_id" {
			t.Errorf("expected data hint order_id, got %q", out.Error.Data)
		}
	})
}

func TestPaymeHandler_Lifecycle(t *testing.T) {
	createTime := time.UnixMilli(1735800000000)
	performTime := time.UnixMilli(1735800111000)

	t.Run("create returns the ledger transaction and sub-state", func(t *testing.T) {
		engine := &mockEngine{
			ReserveFunc: func(ctx context.Context, in model.Intent) (*model.Payment, error) {
				return &model.Payment{ID: "pay-1", ExternalTxID: in.ExternalTxID, TxnState: model.TxnStateCreated, CreateTime: &createTime}, nil
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "CreateTransaction",
			map[string]interface{}{"id": "tx-1", "time": 1735800000000, "amount": 5000000, "account": map[string]string{"order_id": "order-1"}})
		if out.Error != nil {
			t.Fatalf("expected no error, got %+v", out.Error)
		}
		if out.Result["transaction"] != "pay-1" {
			t.Errorf("expected ledger id, got %v", out.Result["transaction"])
		}
		if int(out.Result["state"].(float64)) != int(model.TxnStateCreated) {
			t.Errorf("expected state 1, got %v", out.Result["state"])
		}
		if int64(out.Result["create_time"].(float64)) != createTime.UnixMilli() {
			t.Errorf("expected create time %d, got %v", createTime.UnixMilli(), out.Result["create_time"])
		}
	})

	t.Run("perform returns the stored perform time", func(t *testing.T) {
		engine := &mockEngine{
			ConfirmFunc: func(ctx context.Context, in model.Intent) (*model.Payment, error) {
				return &model.Payment{ID: "pay-1", TxnState: model.TxnStatePerformed, PerformTime: &performTime}, nil
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "PerformTransaction", map[string]interface{}{"id": "tx-1"})
		if out.Error != nil {
			t.Fatalf("expected no error, got %+v", out.Error)
		}
		if int64(out.Result["perform_time"].(float64)) != performTime.UnixMilli() {
			t.Errorf("expected perform time %d, got %v", performTime.UnixMilli(), out.Result["perform_time"])
		}
	})

	t.Run("perform on an unknown transaction maps to the tx code", func(t *testing.T) {
		h := NewHandler(&mockEngine{}, testCfg, testLogger())

		out := call(t, h, "merchant-key", "PerformTransaction", map[string]interface{}{"id": "nope"})
		if out.Error == nil || out.Error.Code != codeTxNotFound {
			t.Errorf("expected %d, got %+v", codeTxNotFound, out.Error)
		}
	})

	t.Run("cancel passes the reason through", func(t *testing.T) {
		cancelTime := time.UnixMilli(1735800222000)
		engine := &mockEngine{
			CancelFunc: func(ctx context.Context, in model.Intent) (*model.Payment, error) {
				if in.Reason == nil || *in.Reason != 5 {
					t.Errorf("expected reason 5, got %v", in.Reason)
				}
				return &model.Payment{ID: "pay-1", TxnState: model.TxnStateCancelledAfterPerform, CancelTime: &cancelTime}, nil
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "CancelTransaction", map[string]interface{}{"id": "tx-1", "reason": 5})
		if out.Error != nil {
			t.Fatalf("expected no error, got %+v", out.Error)
		}
		if int(out.Result["state"].(float64)) != int(model.TxnStateCancelledAfterPerform) {
			t.Errorf("expected state -2, got %v", out.Result["state"])
		}
	})

	t.Run("store failure answers with the retryable system code", func(t *testing.T) {
		engine := &mockEngine{
			ConfirmFunc: func(ctx context.Context, in model.Intent) (*model.Payment, error) {
				return nil, domain.ErrOperationFailed
			},
			CancelFunc: func(ctx context.Context, in model.Intent) (*model.Payment, error) {
				return nil, domain.ErrVersionConflict
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "PerformTransaction", map[string]interface{}{"id": "tx-1"})
		if out.Error == nil || out.Error.Code != codeSystemError {
			t.Errorf("expected %d for a store failure, got %+v", codeSystemError, out.Error)
		}
		out = call(t, h, "merchant-key", "CancelTransaction", map[string]interface{}{"id": "tx-1", "reason": 5})
		if out.Error == nil || out.Error.Code != codeSystemError {
			t.Errorf("expected %d for an exhausted version conflict, got %+v", codeSystemError, out.Error)
		}
	})

	t.Run("invalid state keeps the terminal business code", func(t *testing.T) {
		engine := &mockEngine{
			ConfirmFunc: func(ctx context.Context, in model.Intent) (*model.Payment, error) {
				return nil, domain.ErrInvalidState
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "PerformTransaction", map[string]interface{}{"id": "tx-1"})
		if out.Error == nil || out.Error.Code != codeCannotPerform {
			t.Errorf("expected %d, got %+v", codeCannotPerform, out.Error)
		}
	})

	t.Run("check transaction replays recorded timestamps", func(t *testing.T) {
		reason := 5
		engine := &mockEngine{
			FindTransactionFunc: func(ctx context.Context, provider model.PaymentProvider, externalTxID string) (*model.Payment, error) {
				return &model.Payment{
					ID:           "pay-1",
					TxnState:     model.TxnStatePerformed,
					CreateTime:   &createTime,
					PerformTime:  &performTime,
					CancelReason: &reason,
				}, nil
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "CheckTransaction", map[string]interface{}{"id": "tx-1"})
		if out.Error != nil {
			t.Fatalf("expected no error, got %+v", out.Error)
		}
		if int64(out.Result["create_time"].(float64)) != createTime.UnixMilli() {
			t.Errorf("unexpected create_time %v", out.Result["create_time"])
		}
		if int64(out.Result["cancel_time"].(float64)) != 0 {
			t.Errorf("expected zero cancel_time, got %v", out.Result["cancel_time"])
		}
	})

	t.Run("statement skips rows without an attached transaction", func(t *testing.T) {
		engine := &mockEngine{
			StatementFunc: func(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error) {
				return []*model.Payment{
					{ID: "pay-1", ExternalTxID: "tx-1", OrderID: "order-1", Amount: 5000000, TxnState: model.TxnStatePerformed, CreateTime: &createTime, PerformTime: &performTime},
					{ID: "pay-2", OrderID: "order-2", Amount: 5000000},
				}, nil
			},
		}
		h := NewHandler(engine, testCfg, testLogger())

		out := call(t, h, "merchant-key", "GetStatement", map[string]interface{}{"from": 0, "to": 1735810000000})
		if out.Error != nil {
			t.Fatalf("expected no error, got %+v", out.Error)
		}
		txs, ok := out.Result["transactions"].([]interface{})
		if !ok || len(txs) != 1 {
			t.Fatalf("expected 1 statement row, got %v", out.Result["transactions"])
		}
		row := txs[0].(map[string]interface{})
		if row["id"] != "tx-1" {
			t.Errorf("expected provider tx id, got %v", row["id"])
		}
	})
}
