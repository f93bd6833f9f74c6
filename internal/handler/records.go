package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/tiendita-pos/internal/domain/expense"
	"github.com/xenking/tiendita-pos/internal/domain/payment"
	"github.com/xenking/tiendita-pos/internal/domain/report"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

const dateLayout = "2006-01-02"

type saleItemResponse struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type saleResponse struct {
	ID              string             `json:"id"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountPercent decimal.Decimal    `json:"discountPercent"`
	Total           decimal.Decimal    `json:"total"`
	PaymentMethod   string             `json:"paymentMethod"`
	Items           []saleItemResponse `json:"items"`
	CreatedAt       time.Time          `json:"createdAt"`
}

func toSaleResponse(s sale.Sale) saleResponse {
	items := make([]saleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = saleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
		}
	}
	return saleResponse{
		ID:              s.ID,
		Subtotal:        s.Subtotal,
		DiscountPercent: s.DiscountPercent,
		Total:           s.Total,
		PaymentMethod:   string(s.PaymentMethod),
		Items:           items,
		CreatedAt:       s.CreatedAt,
	}
}

type expenseResponse struct {
	ID        int64           `json:"id"`
	Concept   string          `json:"concept"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toExpenseResponse(e expense.Expense) expenseResponse {
	return expenseResponse{
		ID:        e.ID,
		Concept:   e.Concept,
		Category:  e.Category,
		Amount:    e.Amount,
		Date:      e.Date.Format(dateLayout),
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
	}
}

type createExpenseRequest struct {
	Concept  string          `json:"concept" validate:"required,max=200"`
	Category string          `json:"category" validate:"required,max=64"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date" validate:"required,datetime=2006-01-02"`
	Notes    string          `json:"notes" validate:"max=1000"`
}

type expenseSummaryResponse struct {
	Today decimal.Decimal `json:"today"`
	Week  decimal.Decimal `json:"week"`
	Month decimal.Decimal `json:"month"`
}

type productSalesResponse struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type reportResponse struct {
	TotalSales    decimal.Decimal        `json:"totalSales"`
	TotalExpenses decimal.Decimal        `json:"totalExpenses"`
	NetProfit     decimal.Decimal        `json:"netProfit"`
	ProfitMargin  decimal.Decimal        `json:"profitMargin"`
	SalesCount    int                    `json:"salesCount"`
	ExpensesCount int                    `json:"expensesCount"`
	TopProducts   []productSalesResponse `json:"topProducts"`
}

func toReportResponse(rep *report.Report) reportResponse {
	top := make([]productSalesResponse, len(rep.TopProducts))
	for i, p := range rep.TopProducts {
		top[i] = productSalesResponse{
			ProductID: p.ProductID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Total:     p.Total,
		}
	}
	return reportResponse{
		TotalSales:    rep.TotalSales,
		TotalExpenses: rep.TotalExpenses,
		NetProfit:     rep.NetProfit,
		ProfitMargin:  rep.ProfitMargin,
		SalesCount:    rep.SalesCount,
		ExpensesCount: rep.ExpensesCount,
		TopProducts:   top,
	}
}

type paymentLinkRequest struct {
	Provider string `json:"provider" validate:"required"`
	URL      string `json:"link" validate:"omitempty,url"`
	Active   bool   `json:"active"`
}

// dateRange parses the optional from and to query parameters as whole days.
func (h *Handler) dateRange(r *http.Request) (sale.DateRange, error) {
	q := r.URL.Query()
	var from, to time.Time
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &from}, {"to", &to}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			return sale.DateRange{}, &requestError{err: errors.Wrapf(err, "parse %s", p.name)}
		}
		*p.dst = t
	}
	return sale.DayRange(from, to)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	dr, err := h.dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sales, err := h.sales.List(r.Context(), dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]saleResponse, len(sales))
	for i, s := range sales {
		out[i] = toSaleResponse(s)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	dr, err := h.dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := h.expenses.List(r.Context(), dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, h.loc)
	if err != nil {
		writeError(w, r, &requestError{err: err})
		return
	}
	e := expense.Expense{
		Concept:  req.Concept,
		Category: req.Category,
		Amount:   req.Amount,
		Date:     date,
		Notes:    req.Notes,
	}
	if err := e.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.expenses.Create(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toExpenseResponse(*created))
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// expenseSummary totals the last 30 days, which also covers the today and
// week windows.
func (h *Handler) expenseSummary(w http.ResponseWriter, r *http.Request) {
	now := h.now().In(h.loc)
	dr, err := sale.DayRange(now.AddDate(0, 0, -30), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := h.expenses.List(r.Context(), dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s := expense.Summarize(expenses, now)
	writeJSON(w, r, http.StatusOK, expenseSummaryResponse{Today: s.Today, Week: s.Week, Month: s.Month})
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	dr, err := h.dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.reports.Report(r.Context(), dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReportResponse(rep))
}

func (h *Handler) listPaymentLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.links.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if links == nil {
		links = []payment.Link{}
	}
	writeJSON(w, r, http.StatusOK, links)
}

func (h *Handler) upsertPaymentLink(w http.ResponseWriter, r *http.Request) {
	var req paymentLinkRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	l := payment.Link{
		Provider: sale.PaymentMethod(req.Provider),
		URL:      req.URL,
		Active:   req.Active,
	}
	if err := l.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.links.Upsert(r.Context(), l); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, l)
}
