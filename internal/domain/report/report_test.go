package report

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/tiendita-pos/internal/domain/expense"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

// --- Mock implementations ---

type mockSales struct {
	sales []sale.Sale
	err   error
	got   sale.DateRange
}

func (m *mockSales) Create(context.Context, *sale.Sale) error { return nil }

func (m *mockSales) List(_ context.Context, r sale.DateRange) ([]sale.Sale, error) {
	m.got = r
	return m.sales, m.err
}

type mockExpenses struct {
	expenses []expense.Expense
	err      error
}

func (m *mockExpenses) Create(context.Context, expense.Expense) (*expense.Expense, error) {
	return nil, nil
}

func (m *mockExpenses) List(context.Context, sale.DateRange) ([]expense.Expense, error) {
	return m.expenses, m.err
}

func (m *mockExpenses) Delete(context.Context, int64) error { return nil }

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(id int64, name string, qty int, subtotal string) sale.Item {
	return sale.Item{ProductID: id, ProductName: name, Quantity: qty, Subtotal: dec(subtotal)}
}

// --- Tests ---

func TestTopProducts_TieKeepsFirstAppearance(t *testing.T) {
	sales := []sale.Sale{
		{Items: []sale.Item{item(1, "A", 3, "30"), item(2, "B", 5, "25")}},
		{Items: []sale.Item{item(1, "A", 2, "20")}},
	}

	top := TopProducts(sales, TopProductsLimit)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].Name)
	assert.Equal(t, 5, top[0].Quantity)
	assert.True(t, dec("50").Equal(top[0].Total))
	assert.Equal(t, "B", top[1].Name)
	assert.Equal(t, 5, top[1].Quantity)
}

func TestTopProducts_SortAndLimit(t *testing.T) {
	sales := []sale.Sale{{Items: []sale.Item{
		item(1, "p1", 1, "1"),
		item(2, "p2", 7, "7"),
		item(3, "p3", 3, "3"),
		item(4, "p4", 9, "9"),
		item(5, "p5", 3, "3"),
		item(6, "p6", 4, "4"),
		item(7, "p7", 2, "2"),
	}}}

	top := TopProducts(sales, TopProductsLimit)
	require.Len(t, top, 5)

	names := make([]string, len(top))
	for i, p := range top {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"p4", "p2", "p6", "p3", "p5"}, names)
}

func TestTopProducts_Empty(t *testing.T) {
	assert.Empty(t, TopProducts(nil, TopProductsLimit))
}

func TestBuild(t *testing.T) {
	sales := []sale.Sale{
		{Total: dec("100.00"), Items: []sale.Item{item(1, "A", 1, "100")}},
		{Total: dec("50.00")},
	}
	expenses := []expense.Expense{
		{Amount: dec("30.00")},
		{Amount: dec("15.00")},
	}

	r := Build(sales, expenses)
	assert.True(t, dec("150").Equal(r.TotalSales))
	assert.True(t, dec("45").Equal(r.TotalExpenses))
	assert.True(t, dec("105").Equal(r.NetProfit))
	assert.True(t, dec("70").Equal(r.ProfitMargin), "margin %s", r.ProfitMargin)
	assert.Equal(t, 2, r.SalesCount)
	assert.Equal(t, 2, r.ExpensesCount)
	assert.Len(t, r.TopProducts, 1)
}

func TestBuild_NoSales(t *testing.T) {
	r := Build(nil, []expense.Expense{{Amount: dec("20")}})
	assert.True(t, r.TotalSales.IsZero())
	assert.True(t, dec("-20").Equal(r.NetProfit))
	assert.True(t, r.ProfitMargin.IsZero())
}

func TestService_Report(t *testing.T) {
	salesRepo := &mockSales{sales: []sale.Sale{{Total: dec("10")}}}
	expRepo := &mockExpenses{expenses: []expense.Expense{{Amount: dec("4")}}}
	svc := NewService(salesRepo, expRepo)

	rng := sale.DateRange{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r, err := svc.Report(context.Background(), rng)
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(r.NetProfit))
	assert.Equal(t, rng, salesRepo.got)
}

func TestService_Report_Error(t *testing.T) {
	svc := NewService(&mockSales{}, &mockExpenses{err: errors.New("timeout")})

	_, err := svc.Report(context.Background(), sale.DateRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list expenses")
}
