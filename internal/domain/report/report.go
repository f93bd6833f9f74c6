// Package report folds sales and expenses into dashboard figures.
package report

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/tiendita-pos/internal/domain/expense"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

// TopProductsLimit is how many products TopProducts returns at most.
const TopProductsLimit = 5

var hundred = decimal.NewFromInt(100)

// ProductSales is the sold volume of one product.
type ProductSales struct {
	ProductID int64
	Name      string
	Quantity  int
	Total     decimal.Decimal
}

// Report is the summary shown on the reports tab.
type Report struct {
	TotalSales    decimal.Decimal
	TotalExpenses decimal.Decimal
	NetProfit     decimal.Decimal
	// ProfitMargin is NetProfit as a percentage of TotalSales; zero without
	// sales.
	ProfitMargin  decimal.Decimal
	SalesCount    int
	ExpensesCount int
	TopProducts   []ProductSales
}

// Build computes a report from already filtered sales and expenses.
func Build(sales []sale.Sale, expenses []expense.Expense) Report {
	r := Report{
		TotalSales:    decimal.Zero,
		TotalExpenses: decimal.Zero,
		ProfitMargin:  decimal.Zero,
		SalesCount:    len(sales),
		ExpensesCount: len(expenses),
		TopProducts:   TopProducts(sales, TopProductsLimit),
	}
	for _, s := range sales {
		r.TotalSales = r.TotalSales.Add(s.Total)
	}
	for _, e := range expenses {
		r.TotalExpenses = r.TotalExpenses.Add(e.Amount)
	}
	r.NetProfit = r.TotalSales.Sub(r.TotalExpenses)
	if r.TotalSales.IsPositive() {
		r.ProfitMargin = r.NetProfit.Div(r.TotalSales).Mul(hundred)
	}
	return r
}

// TopProducts groups sale items by product, sums quantities and subtotals,
// and returns the limit best sellers by quantity. Equal quantities keep the
// order in which the products first appear in sales.
func TopProducts(sales []sale.Sale, limit int) []ProductSales {
	var groups []ProductSales
	index := map[int64]int{}
	for _, s := range sales {
		for _, it := range s.Items {
			i, ok := index[it.ProductID]
			if !ok {
				i = len(groups)
				index[it.ProductID] = i
				groups = append(groups, ProductSales{
					ProductID: it.ProductID,
					Name:      it.ProductName,
					Total:     decimal.Zero,
				})
			}
			groups[i].Quantity += it.Quantity
			groups[i].Total = groups[i].Total.Add(it.Subtotal)
		}
	}

	slices.SortStableFunc(groups, func(a, b ProductSales) int {
		return b.Quantity - a.Quantity
	})
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// Service loads sales and expenses for a range and builds the report.
type Service struct {
	sales    sale.Repository
	expenses expense.Repository
}

// NewService creates a report Service.
func NewService(sales sale.Repository, expenses expense.Repository) *Service {
	return &Service{sales: sales, expenses: expenses}
}

// Report builds the report for r. Sales and expenses are fetched
// concurrently.
func (s *Service) Report(ctx context.Context, r sale.DateRange) (*Report, error) {
	var (
		sales    []sale.Sale
		expenses []expense.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if sales, err = s.sales.List(gctx, r); err != nil {
			return errors.Wrap(err, "list sales")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if expenses, err = s.expenses.List(gctx, r); err != nil {
			return errors.Wrap(err, "list expenses")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := Build(sales, expenses)
	return &rep, nil
}
