package web

import "net/http"

// dashboard handles GET /api/reports/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetDashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

// salesSeries handles GET /api/reports/sales-series?days=.
func (h *Handler) salesSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.svc.GetSalesSeries(r.Context(), queryInt(r, "days", 7))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, series)
}

// salesSummary handles GET /api/reports/summary?from=&to=.
func (h *Handler) salesSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.svc.GetSalesSummary(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// topProducts handles GET /api/reports/top-products?from=&to=&limit=.
func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ranks, err := h.svc.GetTopProducts(r.Context(), q.Get("from"), q.Get("to"), queryInt(r, "limit", 10))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, ranks)
}

// topCustomers handles GET /api/reports/top-customers?from=&to=&limit=.
func (h *Handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ranks, err := h.svc.GetTopCustomers(r.Context(), q.Get("from"), q.Get("to"), queryInt(r, "limit", 10))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, ranks)
}

// debtors handles GET /api/reports/debtors.
func (h *Handler) debtors(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListDebtors(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Customers)
}

// verifyDebts handles GET /api/reports/verify-debts: cross-checks every
// customer's current_debt against their sales.
func (h *Handler) verifyDebts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.VerifyDebts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
