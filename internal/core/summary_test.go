package core

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func sampleExpenses() []Expense {
	return []Expense{
		{ID: "1", Description: "Hotel", Amount: "100", Category: Lodging},
		{ID: "2", Description: "Jantar", Amount: "50.5", Category: Food},
		{ID: "3", Description: "Pousada", Amount: "45", Category: Lodging},
	}
}

func TestTotalExpenses(t *testing.T) {
	cases := []struct {
		name     string
		expenses []Expense
		want     int64
	}{
		{"empty", nil, 0},
		{"single", []Expense{{Amount: "10"}}, 1000},
		{"mixed", sampleExpenses(), 19550},
		{"invalid counts as zero", []Expense{{Amount: "10"}, {Amount: "abc"}}, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TotalExpenses(tc.expenses); got.Cents != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got.Cents)
			}
		})
	}
}

func TestExpensesByCategoryFirstSeenOrder(t *testing.T) {
	rows := ExpensesByCategory(sampleExpenses())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Category != Lodging || rows[0].Amount.Cents != 14500 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Category != Food || rows[1].Amount.Cents != 5050 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}

	var sum int64
	for _, r := range rows {
		sum += r.Amount.Cents
	}
	if sum != TotalExpenses(sampleExpenses()).Cents {
		t.Fatalf("rows do not sum to the total")
	}

	if got := ExpensesByCategory(nil); len(got) != 0 {
		t.Fatalf("expected no rows for no expenses, got %d", len(got))
	}
}

func TestHotelAndTaxiScenario(t *testing.T) {
	expenses := []Expense{
		{Description: "Hotel", Amount: "150.00", Category: Lodging},
		{Description: "Taxi", Amount: "45.50", Category: Transport},
	}
	if got := TotalExpenses(expenses); got.String() != "195.50" {
		t.Fatalf("expected total 195.50, got %s", got)
	}
	rows := ExpensesByCategory(expenses)
	want := []CategoryAmount{
		{Category: Lodging, Amount: Money{Cents: 15000}},
		{Category: Transport, Amount: Money{Cents: 4550}},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d: expected %+v, got %+v", i, want[i], rows[i])
		}
	}
}

func TestCategoryTotalsSumToTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		expenses := make([]Expense, n)
		var want int64
		for i := range expenses {
			cents := rng.Int63n(MaxAmountCents + 1)
			amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
			if rng.Intn(10) == 0 {
				amount = "n/a"
			} else {
				want += cents
			}
			expenses[i] = Expense{
				Amount:   amount,
				Category: Categories[rng.Intn(len(Categories))],
			}
		}

		total := TotalExpenses(expenses)
		if total.Cents != want {
			t.Fatalf("round %d: expected total %d, got %d", round, want, total.Cents)
		}
		var sum int64
		for _, r := range ExpensesByCategory(expenses) {
			sum += r.Amount.Cents
		}
		if sum != total.Cents {
			t.Fatalf("round %d: category rows sum to %d, total is %d", round, sum, total.Cents)
		}
	}
}

func TestTotalExpensesAtAmountLimit(t *testing.T) {
	expenses := []Expense{{Amount: "10000000000"}, {Amount: "10000000000"}, {Amount: "90000000000000000"}}
	if got := TotalExpenses(expenses); got.Cents != 2*MaxAmountCents {
		t.Fatalf("expected %d, got %d", 2*MaxAmountCents, got.Cents)
	}
}

func TestExpensesByFixedCategory(t *testing.T) {
	expenses := append(sampleExpenses(), Expense{Amount: "5", Category: "Lazer"})
	rows := ExpensesByFixedCategory(expenses)
	if len(rows) != len(Categories) {
		t.Fatalf("expected %d rows, got %d", len(Categories), len(rows))
	}
	var sum int64
	for i, r := range rows {
		if r.Category != Categories[i] {
			t.Fatalf("row %d: expected %q, got %q", i, Categories[i], r.Category)
		}
		sum += r.Amount.Cents
	}
	if sum != TotalExpenses(expenses).Cents {
		t.Fatalf("rows sum %d, total %d", sum, TotalExpenses(expenses).Cents)
	}
	if rows[5].Amount.Cents != 500 {
		t.Fatalf("unknown category should fold into Outro, got %d", rows[5].Amount.Cents)
	}
	if rows[2].Amount.Cents != 0 {
		t.Fatalf("Transporte should be zero, got %d", rows[2].Amount.Cents)
	}
}

func TestChartSeries(t *testing.T) {
	data := ChartSeries(ExpensesByCategory(sampleExpenses()))
	if len(data.Labels) != 2 || len(data.Values) != 2 {
		t.Fatalf("unexpected lengths %d/%d", len(data.Labels), len(data.Values))
	}
	if data.Labels[0] != "Hospedagem" || math.Abs(data.Values[0]-145) > 1e-9 {
		t.Fatalf("unexpected first point %s=%f", data.Labels[0], data.Values[0])
	}
	if data.Labels[1] != "Alimentação" || math.Abs(data.Values[1]-50.5) > 1e-9 {
		t.Fatalf("unexpected second point %s=%f", data.Labels[1], data.Values[1])
	}
}

func TestSummarize(t *testing.T) {
	expenses := append(sampleExpenses(), Expense{Amount: "n/a", Category: Other})
	trips := []Trip{{ID: "t1"}, {ID: "t2"}}
	s := Summarize(expenses, trips)
	if s.Total.Cents != 19550 {
		t.Fatalf("expected total 19550, got %d", s.Total.Cents)
	}
	if s.Trips != 2 || s.Expenses != 4 || s.Invalid != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if len(s.ByCategory) != len(Categories) {
		t.Fatalf("expected fixed breakdown, got %d rows", len(s.ByCategory))
	}
}
