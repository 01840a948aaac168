package api

import (
	"fmt"
	"net/http"
	"time"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/infra/logging"
	"wifi-voucher/internal/infra/metrics"
	"wifi-voucher/internal/infra/redis"

	"github.com/go-chi/chi/v5"
)

// locationView hides the site's router login from public callers.
type locationView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	WifiName string `json:"wifi_name"`
	IsActive bool   `json:"is_active"`
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.d.Plans.List(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) listLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.d.Locations.ListActive(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]locationView, 0, len(locs))
	for _, l := range locs {
		out = append(out, locationView{ID: l.ID, Name: l.Name, WifiName: l.WifiName, IsActive: l.IsActive})
	}
	writeJSON(w, http.StatusOK, out)
}

type purchaseRequest struct {
	PlanID     string `json:"plan_id"`
	LocationID string `json:"location_id"`
	UserID     string `json:"user_id"`
}

func (s *Server) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if req.PlanID == "" || req.LocationID == "" || req.UserID == "" {
		writeError(w, r, s.log, domain.ErrInvalidArgument)
		return
	}

	ctx := logging.WithUserID(r.Context(), req.UserID)
	r = r.WithContext(ctx)

	if s.d.Limiter != nil && s.d.PurchasesPerMinute > 0 {
		ok, err := s.d.Limiter.Allow(ctx, redis.PurchaseKey(req.UserID), s.d.PurchasesPerMinute, time.Minute)
		if err != nil {
			// a broken limiter must not block sales
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			metrics.IncPurchase("rate_limited")
			writeError(w, r, s.log, errRateLimited)
			return
		}
	}

	p, err := s.d.Purchases.Purchase(ctx, req.PlanID, req.LocationID, req.UserID, s.now())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listUserPurchases(w http.ResponseWriter, r *http.Request) {
	list, err := s.d.Purchases.ListByUser(r.Context(), chi.URLParam(r, "userID"), s.now())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ---- admin ----

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.d.Auth.Enabled() {
		writeJSON(w, http.StatusForbidden, errorBody{Code: "forbidden", Message: "admin API disabled"})
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.d.Auth.CheckPassword(req.Password); err != nil {
		logging.With(r.Context(), s.log).Warn().Msg("admin login rejected")
		writeError(w, r, s.log, errUnauthorized)
		return
	}
	tok, exp, err := s.d.Auth.Mint(w)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: tok, ExpiresAt: exp})
}

func (s *Server) adminLogout(w http.ResponseWriter, r *http.Request) {
	s.d.Auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	LocationID string `json:"location_id"`
	PlanType   string `json:"plan_type"`
	Text       string `json:"text"`
}

func (s *Server) importCredentials(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	pt, err := model.ParsePlanType(req.PlanType)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	n, err := s.d.Credentials.Import(r.Context(), req.LocationID, pt, req.Text)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"inserted": n})
}

func (s *Server) listCredentials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// an empty plan_type lists every tier at the location
	pt := model.PlanType(q.Get("plan_type"))
	list, err := s.d.Credentials.List(r.Context(), q.Get("location_id"), pt)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) releaseCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.d.Credentials.Release(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.d.Credentials.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listAllPurchases accepts ?location_id= and ?date=YYYY-MM-DD (UTC day).
func (s *Server) listAllPurchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.PurchaseFilter{LocationID: q.Get("location_id")}
	if d := q.Get("date"); d != "" {
		day, err := time.Parse(time.DateOnly, d)
		if err != nil {
			writeError(w, r, s.log, fmt.Errorf("date %q: %w", d, domain.ErrInvalidArgument))
			return
		}
		filter.Day = day
	}
	report, err := s.d.Purchases.ListAll(r.Context(), filter, s.now())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) getPurchase(w http.ResponseWriter, r *http.Request) {
	p, err := s.d.Purchases.Get(r.Context(), chi.URLParam(r, "id"), s.now())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) poolStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.d.Credentials.Stats(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var p model.Plan
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.d.Plans.Create(r.Context(), &p); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listAllLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.d.Locations.ListAll(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, locs)
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

func (s *Server) setLocationActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if req.IsActive == nil {
		writeError(w, r, s.log, domain.ErrInvalidArgument)
		return
	}
	loc, err := s.d.Locations.SetActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}
