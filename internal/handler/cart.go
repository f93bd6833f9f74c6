package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/tiendita-pos/internal/domain/checkout"
	"github.com/xenking/tiendita-pos/internal/domain/register"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

type cartLineResponse struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Lines           []cartLineResponse `json:"lines"`
	DiscountPercent decimal.Decimal    `json:"discountPercent"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountAmount  decimal.Decimal    `json:"discountAmount"`
	Total           decimal.Decimal    `json:"total"`
	CheckoutStatus  string             `json:"checkoutStatus"`
}

func toCartResponse(v register.CartView, status checkout.Status) cartResponse {
	lines := make([]cartLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = cartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		}
	}
	return cartResponse{
		Lines:           lines,
		DiscountPercent: v.DiscountPercent,
		Subtotal:        v.Summary.Subtotal,
		DiscountAmount:  v.Summary.DiscountAmount,
		Total:           v.Summary.Total,
		CheckoutStatus:  status.String(),
	}
}

type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

type changeItemRequest struct {
	Delta int `json:"delta" validate:"required,ne=0"`
}

type discountRequest struct {
	Percent decimal.Decimal `json:"percent"`
}

type checkoutRequest struct {
	Method       string          `json:"method" validate:"required"`
	CashReceived decimal.Decimal `json:"cashReceived"`
}

func (req checkoutRequest) domain() checkout.Request {
	return checkout.Request{
		Method:       sale.PaymentMethod(req.Method),
		CashReceived: req.CashReceived,
	}
}

type quoteResponse struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	Change         decimal.Decimal `json:"change"`
	Sufficient     bool            `json:"sufficient"`
}

type checkoutResponse struct {
	Sale        saleResponse    `json:"sale"`
	Change      decimal.Decimal `json:"change"`
	PaymentLink string          `json:"paymentLink,omitempty"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(reg.Cart(), reg.CheckoutStatus()))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(reg.Clear(r.Context()), reg.CheckoutStatus()))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := reg.Add(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(v, reg.CheckoutStatus()))
}

func (h *Handler) changeCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req changeItemRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := reg.ChangeQuantity(r.Context(), id, req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(v, reg.CheckoutStatus()))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, r, http.StatusOK, toCartResponse(reg.Remove(r.Context(), id), reg.CheckoutStatus()))
}

func (h *Handler) setDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := reg.SetDiscount(r.Context(), req.Percent)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(v, reg.CheckoutStatus()))
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := reg.Quote(req.domain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, quoteResponse{
		Subtotal:       q.Summary.Subtotal,
		DiscountAmount: q.Summary.DiscountAmount,
		Total:          q.Total,
		Change:         q.Change,
		Sufficient:     q.Sufficient,
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := reg.Checkout(r.Context(), req.domain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, checkoutResponse{
		Sale:        toSaleResponse(*res.Sale),
		Change:      res.Change,
		PaymentLink: res.PaymentLink,
	})
}

func (h *Handler) cancelCheckout(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registers.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := reg.CancelCheckout(); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
