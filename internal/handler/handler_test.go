package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/checkout"
	"github.com/xenking/tiendita-pos/internal/domain/expense"
	"github.com/xenking/tiendita-pos/internal/domain/payment"
	"github.com/xenking/tiendita-pos/internal/domain/product"
	"github.com/xenking/tiendita-pos/internal/domain/register"
	"github.com/xenking/tiendita-pos/internal/domain/report"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
	"github.com/xenking/tiendita-pos/internal/storage/memory"
)

const (
	testToken  = "good-token"
	testUserID = "user-1"
)

// --- Mock implementations ---

type mockAccounts struct {
	signedOut []string
}

func (m *mockAccounts) SignUp(_ context.Context, req auth.SignUpRequest) (*auth.Profile, error) {
	if req.Email == "taken@example.com" {
		return nil, auth.ErrEmailTaken
	}
	return &auth.Profile{UserID: testUserID, Email: req.Email, BusinessName: req.BusinessName}, nil
}

func (m *mockAccounts) SignIn(_ context.Context, _, password string) (string, error) {
	if password != "secret" {
		return "", auth.ErrInvalidCredentials
	}
	return testToken, nil
}

func (m *mockAccounts) SignOut(_ context.Context, token string) error {
	m.signedOut = append(m.signedOut, token)
	return nil
}

func (m *mockAccounts) Authenticate(_ context.Context, token string) (string, error) {
	if token != testToken {
		return "", auth.ErrNotAuthenticated
	}
	return testUserID, nil
}

func (m *mockAccounts) Profile(ctx context.Context) (*auth.Profile, error) {
	return &auth.Profile{UserID: auth.UserID(ctx), Email: "owner@example.com", BusinessName: "Tiendita"}, nil
}

func (m *mockAccounts) UpdateBusinessName(ctx context.Context, name string) (*auth.Profile, error) {
	return &auth.Profile{UserID: auth.UserID(ctx), Email: "owner@example.com", BusinessName: name}, nil
}

type mockProducts struct {
	products []product.Product
}

func (m *mockProducts) List(context.Context) ([]product.Product, error) {
	return append([]product.Product(nil), m.products...), nil
}

func (m *mockProducts) GetByID(context.Context, int64) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProducts) Create(_ context.Context, p product.Product) (*product.Product, error) {
	p.ID = int64(len(m.products) + 1)
	m.products = append(m.products, p)
	return &p, nil
}

func (m *mockProducts) Update(_ context.Context, id int64, patch product.Patch) (*product.Product, error) {
	for i, p := range m.products {
		if p.ID == id {
			m.products[i] = patch.Apply(p)
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProducts) Delete(_ context.Context, id int64) error {
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return product.ErrNotFound
}

func (m *mockProducts) DecrementStock(context.Context, int64, int) (*product.Product, error) {
	return nil, product.ErrNotFound
}

type mockSales struct {
	mu      sync.Mutex
	created []sale.Sale
	err     error
}

func (m *mockSales) Create(_ context.Context, s *sale.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *s)
	return nil
}

func (m *mockSales) List(_ context.Context, r sale.DateRange) ([]sale.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sale.Sale
	for _, s := range m.created {
		if r.Contains(s.CreatedAt) {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockExpenses struct {
	items []expense.Expense
}

func (m *mockExpenses) Create(ctx context.Context, e expense.Expense) (*expense.Expense, error) {
	e.ID = int64(len(m.items) + 1)
	e.UserID = auth.UserID(ctx)
	m.items = append(m.items, e)
	return &e, nil
}

func (m *mockExpenses) List(_ context.Context, r sale.DateRange) ([]expense.Expense, error) {
	var out []expense.Expense
	for _, e := range m.items {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockExpenses) Delete(_ context.Context, id int64) error {
	for i, e := range m.items {
		if e.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return expense.ErrNotFound
}

type mockLinks struct {
	links []payment.Link
}

func (m *mockLinks) List(context.Context) ([]payment.Link, error) {
	return m.links, nil
}

func (m *mockLinks) Upsert(_ context.Context, l payment.Link) error {
	for i, cur := range m.links {
		if cur.Provider == l.Provider {
			m.links[i] = l
			return nil
		}
	}
	m.links = append(m.links, l)
	return nil
}

// --- Helpers ---

type testEnv struct {
	router   http.Handler
	accounts *mockAccounts
	sales    *mockSales
	expenses *mockExpenses
	links    *mockLinks
	manager  *register.Manager
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	products := &mockProducts{products: []product.Product{
		{ID: 1, Code: "HAM", Name: "Hamburguesa", Category: product.CategoryFood, Price: dec("10"), Stock: 5},
		{ID: 2, Code: "REF", Name: "Refresco", Category: product.CategoryDrinks, Price: dec("5"), Stock: 1},
		{ID: 3, Code: "PAY", Name: "Pay de queso", Category: product.CategoryDesserts, Price: dec("4"), Stock: 0},
	}}
	env := &testEnv{
		accounts: &mockAccounts{},
		sales:    &mockSales{},
		expenses: &mockExpenses{},
		links:    &mockLinks{},
	}
	env.manager = register.NewManager(products, env.sales, memory.NewCartStore(), checkout.Options{Links: env.links})

	reports := report.NewService(env.sales, env.expenses)
	h := New(Config{Location: time.UTC}, Deps{
		Accounts:  env.accounts,
		Registers: env.manager,
		Reports:   reports,
		Sales:     env.sales,
		Expenses:  env.expenses,
		Links:     env.links,
	})
	h.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	env.router = h.Routes()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, w)["code"]
}

// --- Tests ---

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"Missing", "", http.StatusUnauthorized},
		{"WrongScheme", "Basic " + testToken, http.StatusUnauthorized},
		{"WrongToken", "Bearer nope", http.StatusUnauthorized},
		{"Valid", "Bearer " + testToken, http.StatusOK},
		{"CaseInsensitiveScheme", "bearer " + testToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/signup", signUpRequest{
		Email: "owner@example.com", Password: "secret", BusinessName: "Tiendita",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Tiendita", decodeBody[profileResponse](t, w).BusinessName)

	w = env.do(t, http.MethodPost, "/auth/signup", signUpRequest{
		Email: "taken@example.com", Password: "secret", BusinessName: "Otra",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email_taken", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/auth/signup", signUpRequest{
		Email: "not-an-email", Password: "123", BusinessName: "",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/auth/signin", signInRequest{Email: "owner@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testToken, decodeBody[map[string]string](t, w)["token"])

	w = env.do(t, http.MethodPost, "/auth/signin", signInRequest{Email: "owner@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, w))
}

func TestSignOutClosesRegister(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/cart", nil).Code)
	require.Equal(t, 1, env.manager.Len())

	w := env.do(t, http.MethodPost, "/auth/signout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{testToken}, env.accounts.signedOut)
	assert.Equal(t, 0, env.manager.Len())
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/profile", profileRequest{BusinessName: "La Esquina"})
	require.Equal(t, http.StatusOK, w.Code)
	p := decodeBody[profileResponse](t, w)
	assert.Equal(t, testUserID, p.UserID)
	assert.Equal(t, "La Esquina", p.BusinessName)
}

func TestProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/products?category=bebidas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[[]productResponse](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, "REF", got[0].Code)

	w = env.do(t, http.MethodGet, "/products?q=hamb", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]productResponse](t, w), 1)

	w = env.do(t, http.MethodPost, "/products/quick", quickProductRequest{Name: "Chicle", Price: dec("1.50")})
	require.Equal(t, http.StatusCreated, w.Code)
	quick := decodeBody[productResponse](t, w)
	assert.Equal(t, "otros", quick.Category)
	assert.Equal(t, 0, quick.Stock)
	assert.Regexp(t, `^PROD\d+$`, quick.Code)

	w = env.do(t, http.MethodPost, "/products/quick", quickProductRequest{Name: "Gratis", Price: decimal.Zero})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_product", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/products", nil)
	assert.Len(t, decodeBody[[]productResponse](t, w), 4)

	w = env.do(t, http.MethodPut, "/products/1", map[string]any{"price": "12.50"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, dec("12.5").Equal(decodeBody[productResponse](t, w).Price))

	w = env.do(t, http.MethodPut, "/products/1", map[string]any{"category": "juguetes"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodDelete, "/products/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartCommands(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPatch, "/cart/items/1", changeItemRequest{Delta: 1})
	require.Equal(t, http.StatusOK, w.Code)
	c := decodeBody[cartResponse](t, w)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.True(t, dec("20").Equal(c.Total))

	w = env.do(t, http.MethodPut, "/cart/discount", discountRequest{Percent: dec("10")})
	require.Equal(t, http.StatusOK, w.Code)
	c = decodeBody[cartResponse](t, w)
	assert.True(t, dec("2").Equal(c.DiscountAmount))
	assert.True(t, dec("18").Equal(c.Total))

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"OutOfStock", http.MethodPost, "/cart/items", addItemRequest{ProductID: 3}, http.StatusConflict, "out_of_stock"},
		{"UnknownProduct", http.MethodPost, "/cart/items", addItemRequest{ProductID: 42}, http.StatusNotFound, "product_not_found"},
		{"ExceedsStock", http.MethodPatch, "/cart/items/1", changeItemRequest{Delta: 10}, http.StatusConflict, "insufficient_stock"},
		{"LineMissing", http.MethodPatch, "/cart/items/2", changeItemRequest{Delta: 1}, http.StatusNotFound, "line_not_found"},
		{"DiscountTooHigh", http.MethodPut, "/cart/discount", discountRequest{Percent: dec("101")}, http.StatusUnprocessableEntity, "invalid_discount"},
		{"DiscountTooPrecise", http.MethodPut, "/cart/discount", discountRequest{Percent: dec("12.345")}, http.StatusUnprocessableEntity, "invalid_discount"},
		{"MalformedBody", http.MethodPost, "/cart/items", `{"productId":`, http.StatusBadRequest, "bad_request"},
		{"UnknownField", http.MethodPost, "/cart/items", `{"productId":1,"qty":2}`, http.StatusBadRequest, "bad_request"},
		{"ZeroDelta", http.MethodPatch, "/cart/items/1", changeItemRequest{}, http.StatusUnprocessableEntity, "validation_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, errorCode(t, w))

			// Rejected commands leave the cart untouched.
			c := decodeBody[cartResponse](t, env.do(t, http.MethodGet, "/cart", nil))
			require.Len(t, c.Lines, 1)
			assert.Equal(t, 2, c.Lines[0].Quantity)
			assert.True(t, dec("18").Equal(c.Total))
		})
	}

	w = env.do(t, http.MethodDelete, "/cart/items/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[cartResponse](t, w).Lines)

	w = env.do(t, http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[cartResponse](t, w).DiscountPercent.IsZero())
}

func TestCheckout_Cash(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/checkout", checkoutRequest{Method: "efectivo", CashReceived: dec("10")})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "empty_cart", errorCode(t, w))

	env.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: 1})
	env.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: 2})

	w = env.do(t, http.MethodPost, "/checkout/quote", checkoutRequest{Method: "efectivo", CashReceived: dec("20")})
	require.Equal(t, http.StatusOK, w.Code)
	q := decodeBody[quoteResponse](t, w)
	assert.True(t, dec("15").Equal(q.Total))
	assert.True(t, dec("5").Equal(q.Change))
	assert.True(t, q.Sufficient)

	w = env.do(t, http.MethodPost, "/checkout", checkoutRequest{Method: "efectivo", CashReceived: dec("14.99")})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "insufficient_payment", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/checkout", checkoutRequest{Method: "bitcoin"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_payment_method", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/checkout", checkoutRequest{Method: "efectivo", CashReceived: dec("20")})
	require.Equal(t, http.StatusCreated, w.Code)
	res := decodeBody[checkoutResponse](t, w)
	assert.True(t, dec("5").Equal(res.Change))
	assert.True(t, dec("15").Equal(res.Sale.Total))
	assert.Len(t, res.Sale.Items, 2)
	assert.Empty(t, res.PaymentLink)

	c := decodeBody[cartResponse](t, env.do(t, http.MethodGet, "/cart", nil))
	assert.Empty(t, c.Lines)
	assert.Equal(t, checkout.StatusCompleted.String(), c.CheckoutStatus)

	// Snapshot stock followed the sale: the only Refresco is gone.
	w = env.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: 2})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckout_ExternalMethodReturnsLink(t *testing.T) {
	env := newTestEnv(t)
	env.links.links = []payment.Link{{Provider: sale.MethodStripe, URL: "https://pay.example.com/tiendita", Active: true}}

	env.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: 1})
	w := env.do(t, http.MethodPost, "/checkout", checkoutRequest{Method: "stripe"})
	require.Equal(t, http.StatusCreated, w.Code)
	res := decodeBody[checkoutResponse](t, w)
	assert.Equal(t, "https://pay.example.com/tiendita", res.PaymentLink)
	assert.Equal(t, "stripe", res.Sale.PaymentMethod)
}

func TestCheckout_PersistenceFailureKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	env.sales.err = errors.New("connection refused")

	env.do(t, http.MethodPost, "/cart/items", addItemRequest{ProductID: 1})
	w := env.do(t, http.MethodPost, "/checkout", checkoutRequest{Method: "efectivo", CashReceived: dec("10")})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "persistence_failed", body["code"])
	assert.Equal(t, "the sale could not be saved, try again", body["message"])
	assert.NotContains(t, body["message"], "connection refused", "storage detail stays in the logs")

	c := decodeBody[cartResponse](t, env.do(t, http.MethodGet, "/cart", nil))
	assert.Len(t, c.Lines, 1)
	assert.Equal(t, checkout.StatusFailed.String(), c.CheckoutStatus)

	env.sales.err = nil
	w = env.do(t, http.MethodPost, "/checkout", checkoutRequest{Method: "efectivo", CashReceived: dec("10")})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCancelCheckout(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodDelete, "/checkout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSalesAndReports(t *testing.T) {
	env := newTestEnv(t)
	day := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	env.sales.created = []sale.Sale{
		{ID: "s1", Total: dec("30"), PaymentMethod: sale.MethodCash, CreatedAt: day, Items: []sale.Item{
			{ProductID: 1, ProductName: "Hamburguesa", UnitPrice: dec("10"), Quantity: 3, Subtotal: dec("30")},
		}},
		{ID: "s2", Total: dec("10"), PaymentMethod: sale.MethodCash, CreatedAt: day.AddDate(0, 0, 5)},
	}
	env.expenses.items = []expense.Expense{
		{ID: 1, Concept: "Gas", Category: "servicios", Amount: dec("10"), Date: day},
	}

	w := env.do(t, http.MethodGet, "/sales?from=2026-03-10&to=2026-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sales := decodeBody[[]saleResponse](t, w)
	require.Len(t, sales, 1)
	assert.Equal(t, "s1", sales[0].ID)

	w = env.do(t, http.MethodGet, "/reports?from=2026-03-10&to=2026-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rep := decodeBody[reportResponse](t, w)
	assert.True(t, dec("30").Equal(rep.TotalSales))
	assert.True(t, dec("20").Equal(rep.NetProfit))
	assert.Equal(t, 1, rep.SalesCount)
	assert.Equal(t, 1, rep.ExpensesCount)
	require.Len(t, rep.TopProducts, 1)
	assert.Equal(t, 3, rep.TopProducts[0].Quantity)

	w = env.do(t, http.MethodGet, "/reports?from=2026-03-10&to=2026-03-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_range", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/sales?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpenses(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/expenses", createExpenseRequest{
		Concept: "Renta", Category: "local", Amount: dec("100"), Date: "2026-03-15",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[expenseResponse](t, w)
	assert.Equal(t, "2026-03-15", created.Date)

	env.do(t, http.MethodPost, "/expenses", createExpenseRequest{
		Concept: "Harina", Category: "insumos", Amount: dec("40"), Date: "2026-03-10",
	})
	env.do(t, http.MethodPost, "/expenses", createExpenseRequest{
		Concept: "Luz", Category: "servicios", Amount: dec("25"), Date: "2026-02-20",
	})

	w = env.do(t, http.MethodPost, "/expenses", createExpenseRequest{
		Concept: "Renta", Category: "local", Amount: dec("-1"), Date: "2026-03-15",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_expense", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/expenses", createExpenseRequest{
		Concept: "Renta", Category: "local", Amount: dec("1"), Date: "15/03/2026",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodGet, "/expenses/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	s := decodeBody[expenseSummaryResponse](t, w)
	assert.True(t, dec("100").Equal(s.Today))
	assert.True(t, dec("140").Equal(s.Week))
	assert.True(t, dec("165").Equal(s.Month))

	w = env.do(t, http.MethodGet, "/expenses?from=2026-03-01", nil)
	assert.Len(t, decodeBody[[]expenseResponse](t, w), 2)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/expenses/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/expenses/1", nil).Code)
}

func TestPaymentLinks(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/payment-links", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodPut, "/payment-links", paymentLinkRequest{
		Provider: "paypal", URL: "https://paypal.me/tiendita", Active: true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/payment-links", paymentLinkRequest{Provider: "efectivo", URL: "https://x.example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_payment_link", errorCode(t, w))

	w = env.do(t, http.MethodGet, "/payment-links", nil)
	links := decodeBody[[]payment.Link](t, w)
	require.Len(t, links, 1)
	assert.Equal(t, sale.MethodPayPal, links[0].Provider)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))
}
