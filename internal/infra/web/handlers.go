package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !s.auth.CheckPassword(req.Password) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		token, err := s.auth.Mint()
		if err != nil {
			http.Error(w, "Failed to mint token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

type checkoutRequest struct {
	UserID   string `json:"user_id"`
	PlanID   string `json:"plan_id"`
	Provider string `json:"provider"`
}

func (s *Server) checkoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || req.PlanID == "" {
			http.Error(w, "user_id and plan_id are required", http.StatusBadRequest)
			return
		}

		p, url, err := s.paymentUC.Initiate(r.Context(), req.UserID, req.PlanID, model.PaymentProvider(req.Provider))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, "unknown provider", http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "unknown plan", http.StatusNotFound)
			default:
				s.log.Error().Err(err).Msg("checkout initiation failed")
				http.Error(w, "Failed to initiate payment", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"payment_id":   p.ID,
			"order_id":     p.OrderID,
			"amount":       p.Amount,
			"checkout_url": url,
		})
	}
}

type paymentView struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id,omitempty"`
	PlanID         string `json:"plan_id,omitempty"`
	Provider       string `json:"provider"`
	OrderID        string `json:"order_id"`
	ExternalTxID   string `json:"external_tx_id,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	TxnState       int    `json:"txn_state"`
	CreateTime     int64  `json:"create_time,omitempty"`
	PerformTime    int64  `json:"perform_time,omitempty"`
	CancelTime     int64  `json:"cancel_time,omitempty"`
	Activated      bool   `json:"subscription_activated"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Version        int64  `json:"version"`
}

func (s *Server) paymentsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		payments, err := s.paymentUC.List(r.Context(), offset, limit)
		if err != nil {
			http.Error(w, "Failed to list payments", http.StatusInternalServerError)
			return
		}

		views := make([]paymentView, 0, len(payments))
		for _, p := range payments {
			v := paymentView{
				ID:           p.ID,
				UserID:       p.UserID,
				PlanID:       p.PlanID,
				Provider:     string(p.Provider),
				OrderID:      p.OrderID,
				ExternalTxID: p.ExternalTxID,
				Amount:       p.Amount,
				Currency:     p.Currency,
				Status:       string(p.Status),
				TxnState:     int(p.TxnState),
				CreateTime:   model.Millis(p.CreateTime),
				PerformTime:  model.Millis(p.PerformTime),
				CancelTime:   model.Millis(p.CancelTime),
				Activated:    p.SubActivated,
				Version:      p.Version,
			}
			if p.SubscriptionID != nil {
				v.SubscriptionID = *p.SubscriptionID
			}
			views = append(views, v)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"payments": views})
	}
}

type planView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DurationMonths int    `json:"duration_months"`
	PriceTiyin     int64  `json:"price_tiyin"`
	Active         bool   `json:"active"`
}

func (s *Server) plansListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := s.planUC.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list plans", http.StatusInternalServerError)
			return
		}
		views := make([]planView, 0, len(plans))
		for _, p := range plans {
			views = append(views, planView{
				ID:             p.ID,
				Name:           p.Name,
				DurationMonths: p.DurationMonths,
				PriceTiyin:     p.PriceTiyin,
				Active:         p.Active,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"plans": views})
	}
}

type planCreateRequest struct {
	Name           string `json:"name"`
	DurationMonths int    `json:"duration_months"`
	PriceTiyin     int64  `json:"price_tiyin"`
}

func (s *Server) planCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p, err := s.planUC.Create(r.Context(), req.Name, req.DurationMonths, req.PriceTiyin)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, "name, duration_months and price_tiyin are required", http.StatusBadRequest)
				return
			}
			s.log.Error().Err(err).Msg("plan create failed")
			http.Error(w, "Failed to create plan", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, planView{
			ID:             p.ID,
			Name:           p.Name,
			DurationMonths: p.DurationMonths,
			PriceTiyin:     p.PriceTiyin,
			Active:         p.Active,
		})
	}
}

func (s *Server) replayActivationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.engine.ReplayActivation(r.Context(), id); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "payment not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrInvalidState):
				http.Error(w, "payment is not activation-flagged", http.StatusConflict)
			default:
				s.log.Error().Err(err).Str("payment_id", id).Msg("replay activation failed")
				http.Error(w, "Failed to replay activation", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
