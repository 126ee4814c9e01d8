package web

import (
	"net/http"

	"pos-ledger/internal/app"
)

// restock handles POST /api/inventory/restock.
func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID int64  `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Reason    string `json:"reason"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.RestockRequest{
		ProductID: body.ProductID,
		Quantity:  body.Quantity,
		Reason:    body.Reason,
	}
	if claims := authFromContext(r.Context()); claims != nil {
		req.CreatedBy = &claims.UserID
	}

	movement, err := h.svc.RestockProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, movement)
}

// adjustStock handles POST /api/inventory/adjust.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID   int64  `json:"product_id"`
		NewQuantity int    `json:"new_quantity"`
		Reason      string `json:"reason"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.AdjustStockRequest{
		ProductID:   body.ProductID,
		NewQuantity: body.NewQuantity,
		Reason:      body.Reason,
	}
	if claims := authFromContext(r.Context()); claims != nil {
		req.CreatedBy = &claims.UserID
	}

	movement, err := h.svc.AdjustStock(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, movement)
}

// listMovements handles GET /api/inventory/movements?product_id=&limit=.
func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	productID := int64(queryInt(r, "product_id", 0))
	limit := queryInt(r, "limit", 50)

	movements, err := h.svc.ListMovements(r.Context(), productID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, movements)
}
