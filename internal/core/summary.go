package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// ChartData is the label/value projection fed to the dashboard chart.
type ChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Summary is what the dashboard and reports display.
type Summary struct {
	Total      Money            `json:"total"`
	Trips      int              `json:"trips"`
	Expenses   int              `json:"expenses"`
	Invalid    int              `json:"invalid"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// amountOf returns the parsed amount, or zero when the text does not parse.
func amountOf(e Expense) (Money, bool) {
	m, err := e.Cents()
	if err != nil {
		return Money{}, false
	}
	return m, true
}

// TotalExpenses sums every amount that parses; others count as zero.
func TotalExpenses(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		m, _ := amountOf(e)
		total = total.Add(m)
	}
	return total
}

// ExpensesByCategory returns running totals per category in the order each
// category first appears. Categories outside the enumeration are kept as-is.
func ExpensesByCategory(expenses []Expense) []CategoryAmount {
	rows := make([]CategoryAmount, 0)
	index := make(map[Category]int)
	for _, e := range expenses {
		m, _ := amountOf(e)
		i, ok := index[e.Category]
		if !ok {
			index[e.Category] = len(rows)
			rows = append(rows, CategoryAmount{Category: e.Category, Amount: m})
			continue
		}
		rows[i].Amount = rows[i].Amount.Add(m)
	}
	return rows
}

// ExpensesByFixedCategory returns one row per enumerated category in
// enumeration order, zeros included. Expenses whose category is not in the
// enumeration are added to Other so the rows still sum to the total.
func ExpensesByFixedCategory(expenses []Expense) []CategoryAmount {
	rows := make([]CategoryAmount, len(Categories))
	index := make(map[Category]int, len(Categories))
	for i, c := range Categories {
		rows[i].Category = c
		index[c] = i
	}
	for _, e := range expenses {
		m, _ := amountOf(e)
		i, ok := index[e.Category]
		if !ok {
			i = index[Other]
		}
		rows[i].Amount = rows[i].Amount.Add(m)
	}
	return rows
}

// ChartSeries projects category rows into parallel label/value slices.
func ChartSeries(rows []CategoryAmount) ChartData {
	data := ChartData{
		Labels: make([]string, 0, len(rows)),
		Values: make([]float64, 0, len(rows)),
	}
	for _, r := range rows {
		data.Labels = append(data.Labels, string(r.Category))
		data.Values = append(data.Values, r.Amount.Reais())
	}
	return data
}

// Summarize computes the dashboard figures for one user.
func Summarize(expenses []Expense, trips []Trip) Summary {
	s := Summary{
		Trips:      len(trips),
		Expenses:   len(expenses),
		ByCategory: ExpensesByFixedCategory(expenses),
	}
	for _, e := range expenses {
		m, ok := amountOf(e)
		if !ok {
			s.Invalid++
			continue
		}
		s.Total = s.Total.Add(m)
	}
	return s
}
