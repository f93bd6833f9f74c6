package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/tiendita-pos/internal/domain/product"
)

type productResponse struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		Category:  string(p.Category),
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
	}
}

type createProductRequest struct {
	Code     string          `json:"code" validate:"required,max=64"`
	Name     string          `json:"name" validate:"required,max=200"`
	Category string          `json:"category" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock" validate:"gte=0"`
}

type quickProductRequest struct {
	Name  string          `json:"name" validate:"required,max=200"`
	Price decimal.Decimal `json:"price"`
}

type updateProductRequest struct {
	Code     *string          `json:"code,omitempty" validate:"omitnil,min=1,max=64"`
	Name     *string          `json:"name,omitempty" validate:"omitnil,min=1,max=200"`
	Category *string          `json:"category,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty" validate:"omitnil,gte=0"`
}

func (req updateProductRequest) patch() product.Patch {
	pt := product.Patch{
		Code:  req.Code,
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	}
	if req.Category != nil {
		c := product.Category(*req.Category)
		pt.Category = &c
	}
	return pt
}

// listProducts serves the register grid from the cached catalog, filtered by
// the category and q query parameters.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	products := reg.Products(product.Filter{
		Category: product.Category(q.Get("category")),
		Term:     q.Get("q"),
	})
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := reg.Catalog().Create(r.Context(), product.Product{
		Code:     req.Code,
		Name:     req.Name,
		Category: product.Category(req.Category),
		Price:    req.Price,
		Stock:    req.Stock,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toProductResponse(*p))
}

func (h *Handler) quickAddProduct(w http.ResponseWriter, r *http.Request) {
	var req quickProductRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := reg.Catalog().QuickAdd(r.Context(), req.Name, req.Price)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toProductResponse(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateProductRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := reg.Catalog().Update(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := reg.Catalog().Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &requestError{err: errors.Errorf("invalid id %q", raw)}
	}
	return id, nil
}
