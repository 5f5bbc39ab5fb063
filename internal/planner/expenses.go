package planner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Expenses field keys.
const (
	FieldItems = "items"
	FieldTotal = "total"
)

// ExpenseItem is a single labeled expense amount.
type ExpenseItem struct {
	Label    string
	Amount   decimal.Decimal
	Category ExpenseCategory
}

// Expenses is an ordered list of labeled amounts with a cached total.
// Labels are unique ignoring case and are stored title-cased.
type Expenses struct {
	Record

	items []ExpenseItem
	total decimal.Decimal
}

// NewExpenses creates an empty expense list.
func NewExpenses(name, description string, opts ...Option) *Expenses {
	o := buildOptions(opts)
	return &Expenses{Record: newRecord(name, description, o)}
}

// Kind implements Entity.
func (e *Expenses) Kind() Kind {
	return KindExpenses
}

// NormalizeLabel returns the stored form of an expense label.
func NormalizeLabel(label string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(label), " "))
}

func labelKey(label string) string {
	return cases.Fold().String(NormalizeLabel(label))
}

// Add inserts or overwrites the item with the given label. Overwriting keeps
// the original position and category.
func (e *Expenses) Add(label string, amount any) bool {
	category := Other
	if i := e.index(label); i >= 0 {
		category = e.items[i].Category
	}
	return e.AddWithCategory(label, amount, category)
}

// AddWithCategory inserts or overwrites the item with the given label and category.
func (e *Expenses) AddWithCategory(label string, amount any, category ExpenseCategory) bool {
	normalized := NormalizeLabel(label)
	value, ok := mathutil.FromAny(amount)
	if normalized == "" || !ok {
		e.reject("Expenses.Add", label, amount)
		return false
	}
	if _, valid := ParseExpenseCategory(string(category)); !valid {
		e.reject("Expenses.Add", label, category)
		return false
	}

	item := ExpenseItem{Label: normalized, Amount: mathutil.Round(value), Category: category}
	if i := e.index(label); i >= 0 {
		e.items[i] = item
	} else {
		e.items = append(e.items, item)
	}
	e.recalculate()
	return true
}

// Remove deletes the item with the given label.
func (e *Expenses) Remove(label string) bool {
	i := e.index(label)
	if i < 0 {
		return false
	}
	e.items = slices.Delete(e.items, i, i+1)
	e.recalculate()
	return true
}

// Get returns the item with the given label.
func (e *Expenses) Get(label string) (ExpenseItem, bool) {
	i := e.index(label)
	if i < 0 {
		return ExpenseItem{}, false
	}
	return e.items[i], true
}

// Items returns a copy of the items in insertion order.
func (e *Expenses) Items() []ExpenseItem {
	return slices.Clone(e.items)
}

// Len returns the number of items.
func (e *Expenses) Len() int {
	return len(e.items)
}

// Total returns the sum of all item amounts.
func (e *Expenses) Total() decimal.Decimal {
	return e.total
}

// MonthlyExpense is the monthly outflow of the list.
func (e *Expenses) MonthlyExpense() decimal.Decimal {
	return e.total
}

// TotalsByCategory sums the items per category.
func (e *Expenses) TotalsByCategory() map[ExpenseCategory]decimal.Decimal {
	totals := make(map[ExpenseCategory]decimal.Decimal)
	for _, item := range e.items {
		totals[item.Category] = totals[item.Category].Add(item.Amount)
	}
	return totals
}

// Data implements Entity.
func (e *Expenses) Data() map[string]any {
	data := e.data()
	items := make(map[string]any, len(e.items))
	for _, item := range e.items {
		items[item.Label] = item.Amount
	}
	data[FieldItems] = items
	data[FieldTotal] = e.total
	return data
}

// Update implements Entity. Any key other than the common ones is treated as
// an item label.
func (e *Expenses) Update(key string, value any) bool {
	if handled, ok := e.update(key, value); handled {
		return ok
	}
	if key == FieldItems || key == FieldTotal {
		e.reject("Expenses.Update", key, value)
		return false
	}
	return e.Add(key, value)
}

func (e *Expenses) index(label string) int {
	key := labelKey(label)
	if key == "" {
		return -1
	}
	return slices.IndexFunc(e.items, func(item ExpenseItem) bool {
		return labelKey(item.Label) == key
	})
}

func (e *Expenses) recalculate() {
	total := decimal.Zero
	for _, item := range e.items {
		total = total.Add(item.Amount)
	}
	e.total = mathutil.Round(total)
	e.log().Debug(fmt.Sprintf("%s: %d items totaling %s", e.Name, len(e.items), e.total.StringFixed(2)),
		zap.String("op", "planner.Expenses.recalculate"),
	)
}
