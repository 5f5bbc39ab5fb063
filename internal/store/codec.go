package store

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reference and ownership keys.
const (
	ownedPreTax    = planner.FieldPreTaxDeductions
	ownedPostTax   = planner.FieldPostTaxDeductions
	refTaxBrackets = planner.FieldTaxBrackets
	refJobs        = planner.FieldJobs
	refIncomes     = planner.FieldIncomes
	refExpenses    = planner.FieldExpenses
	refLoans       = planner.FieldLoans
)

// Collections holds every loaded entity, grouped by collection.
type Collections struct {
	TaxBrackets []*planner.TaxBracket
	Expenses    []*planner.Expenses
	Incomes     []*planner.Income
	Jobs        []*planner.Job
	Loans       []planner.Borrowing
	Scenarios   []*planner.Scenario
}

// All returns every entity in load order.
func (c *Collections) All() []planner.Entity {
	var all []planner.Entity
	for _, b := range c.TaxBrackets {
		all = append(all, b)
	}
	for _, e := range c.Expenses {
		all = append(all, e)
	}
	for _, i := range c.Incomes {
		all = append(all, i)
	}
	for _, j := range c.Jobs {
		all = append(all, j)
	}
	for _, l := range c.Loans {
		all = append(all, l)
	}
	for _, s := range c.Scenarios {
		all = append(all, s)
	}
	return all
}

// Encode converts the collections into a document.
func Encode(c *Collections) Document {
	doc := Document{}
	for _, b := range c.TaxBrackets {
		doc[CollectionTaxBrackets] = append(doc[CollectionTaxBrackets], encodeTaxBracket(b))
	}
	for _, e := range c.Expenses {
		doc[CollectionExpenses] = append(doc[CollectionExpenses], encodeExpenses(e))
	}
	for _, i := range c.Incomes {
		doc[CollectionIncomes] = append(doc[CollectionIncomes], encodeBase(i))
	}
	for _, j := range c.Jobs {
		doc[CollectionJobs] = append(doc[CollectionJobs], encodeJob(j))
	}
	for _, l := range c.Loans {
		doc[CollectionLoans] = append(doc[CollectionLoans], encodeLoan(l))
	}
	for _, s := range c.Scenarios {
		doc[CollectionScenarios] = append(doc[CollectionScenarios], encodeScenario(s))
	}
	return doc
}

func encodeBase(e planner.Entity) Record {
	base := e.Base()
	r := Record{
		Kind:        string(e.Kind()),
		ID:          base.ID.String(),
		Name:        base.Name,
		Description: base.Description,
		Data:        map[string]any{},
	}
	for key, value := range e.Data() {
		if key == planner.FieldName || key == planner.FieldDescription {
			continue
		}
		if scalar, ok := encodeScalar(value); ok {
			r.Data[key] = scalar
		}
	}
	if len(r.Data) == 0 {
		r.Data = nil
	}
	assumptions := base.Assumptions()
	if len(assumptions) > 0 {
		r.Assumptions = make(map[string]string, len(assumptions))
		for key, value := range assumptions {
			r.Assumptions[key] = value.String()
		}
	}
	return r
}

// encodeScalar keeps the values Update can take back. Lists and maps are
// either derived or carried in dedicated record fields.
func encodeScalar(value any) (any, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.String(), true
	case time.Time:
		return datetime.Format(v), true
	case string, bool, int:
		return v, true
	}
	return nil, false
}

func encodeExpenses(e *planner.Expenses) Record {
	r := encodeBase(e)
	r.Data = nil
	for _, item := range e.Items() {
		r.Items = append(r.Items, Item{
			Label:    item.Label,
			Amount:   item.Amount.String(),
			Category: string(item.Category),
		})
	}
	return r
}

func encodeTaxBracket(b *planner.TaxBracket) Record {
	r := encodeBase(b)
	hundred := decimal.NewFromInt(100)
	for _, rng := range b.Ranges() {
		out := Range{Rate: rng.Rate.Mul(hundred).String()}
		if !rng.Unbounded {
			out.UpperBound = rng.UpperBound.String()
		}
		r.Ranges = append(r.Ranges, out)
	}
	return r
}

func encodeJob(j *planner.Job) Record {
	r := encodeBase(j)
	r.Owned = map[string]Record{
		ownedPreTax:  encodeExpenses(j.PreTaxDeductions()),
		ownedPostTax: encodeExpenses(j.PostTaxDeductions()),
	}
	if brackets := j.TaxBrackets(); len(brackets) > 0 {
		r.Refs = map[string][]string{refTaxBrackets: ids(brackets)}
	}
	return r
}

func encodeLoan(l planner.Borrowing) Record {
	r := encodeBase(l)
	for _, extra := range l.Terms().ExtraPayments {
		r.ExtraPayments = append(r.ExtraPayments, ExtraPayment{
			StartMonth: extra.StartMonth,
			EndMonth:   extra.EndMonth,
			Amount:     extra.Amount.String(),
		})
	}
	return r
}

func encodeScenario(s *planner.Scenario) Record {
	r := encodeBase(s)
	r.Data = nil
	r.Refs = map[string][]string{}
	if jobs := s.Jobs(); len(jobs) > 0 {
		r.Refs[refJobs] = ids(jobs)
	}
	if incomes := s.Incomes(); len(incomes) > 0 {
		r.Refs[refIncomes] = ids(incomes)
	}
	if expenses := s.Expenses(); len(expenses) > 0 {
		r.Refs[refExpenses] = ids(expenses)
	}
	if loans := s.Loans(); len(loans) > 0 {
		r.Refs[refLoans] = ids(loans)
	}
	if len(r.Refs) == 0 {
		r.Refs = nil
	}
	return r
}

func ids[T planner.Entity](entities []T) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Base().ID.String())
	}
	return out
}

// decoder rebuilds entities and resolves references by ID.
type decoder struct {
	logger  *zap.Logger
	options []planner.Option
	byID    map[string]planner.Entity
}

// Decode rebuilds the collections from a document. Unknown kinds fail the
// decode; dangling references are logged and skipped.
func Decode(doc Document, logger *zap.Logger, opts ...planner.Option) (*Collections, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &decoder{
		logger:  logger,
		options: append([]planner.Option{planner.WithLogger(logger)}, opts...),
		byID:    map[string]planner.Entity{},
	}

	known := CollectionNames()
	for name := range doc {
		if !slices.Contains(known, name) {
			logger.Warn(fmt.Sprintf("ignoring unknown collection %q", name),
				zap.String("op", "store.Decode"),
			)
		}
	}

	c := &Collections{}
	for _, name := range known {
		for i, r := range doc[name] {
			entity, err := d.decode(name, r)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
			}
			switch e := entity.(type) {
			case *planner.TaxBracket:
				c.TaxBrackets = append(c.TaxBrackets, e)
			case *planner.Expenses:
				c.Expenses = append(c.Expenses, e)
			case *planner.Income:
				c.Incomes = append(c.Incomes, e)
			case *planner.Job:
				c.Jobs = append(c.Jobs, e)
			case planner.Borrowing:
				c.Loans = append(c.Loans, e)
			case *planner.Scenario:
				c.Scenarios = append(c.Scenarios, e)
			}
			d.byID[entity.Base().ID.String()] = entity
		}
	}
	return c, nil
}

func (d *decoder) decode(collection string, r Record) (planner.Entity, error) {
	kind, ok := planner.ParseKind(r.Kind)
	if !ok {
		return nil, fmt.Errorf("kind %q: %w", r.Kind, planner.ErrUnknownKind)
	}
	if expected := CollectionFor(kind); expected != collection {
		return nil, fmt.Errorf("kind %q does not belong in %s: %w", r.Kind, collection, planner.ErrUnknownKind)
	}

	var entity planner.Entity
	switch kind {
	case planner.KindTaxBracket:
		entity = d.decodeTaxBracket(r)
	case planner.KindExpenses:
		entity = d.decodeExpenses(r)
	case planner.KindIncome:
		entity = planner.NewIncome(r.Name, r.Description, d.options...)
		d.applyData(entity, r)
	case planner.KindJob:
		entity = d.decodeJob(r)
	case planner.KindMortgage:
		entity = d.decodeLoan(planner.NewMortgage(r.Name, r.Description, d.options...), r)
	case planner.KindLoan, planner.KindAuto, planner.KindStudent, planner.KindPersonal:
		entity = d.decodeLoan(planner.NewLoan(r.Name, r.Description, loanKindOf(kind), d.options...), r)
	case planner.KindScenario:
		entity = d.decodeScenario(r)
	}

	d.applyIdentity(entity, r)
	return entity, nil
}

func (d *decoder) applyIdentity(entity planner.Entity, r Record) {
	base := entity.Base()
	if id, err := uuid.Parse(r.ID); err == nil {
		base.SetID(id)
	} else if r.ID != "" {
		d.logger.Warn(fmt.Sprintf("%s %q has malformed id %q, assigned %s", r.Kind, r.Name, r.ID, base.ID),
			zap.String("op", "store.Decode"),
		)
	}
	for _, key := range slices.Sorted(maps.Keys(r.Assumptions)) {
		if !base.SetAssumption(key, r.Assumptions[key]) {
			d.logger.Warn(fmt.Sprintf("%s %q: dropped assumption %s=%q", r.Kind, r.Name, key, r.Assumptions[key]),
				zap.String("op", "store.Decode"),
			)
		}
	}
}

// applyData replays the scalar fields through Update in key order. Derived
// fields are rejected by the entity and skipped.
func (d *decoder) applyData(entity planner.Entity, r Record) {
	for _, key := range slices.Sorted(maps.Keys(r.Data)) {
		if !entity.Update(key, r.Data[key]) {
			d.logger.Debug(fmt.Sprintf("%s %q: skipped field %s", r.Kind, r.Name, key),
				zap.String("op", "store.Decode"),
			)
		}
	}
}

func (d *decoder) decodeTaxBracket(r Record) *planner.TaxBracket {
	taxType, _ := r.Data[planner.FieldTaxType].(string)
	status, _ := r.Data[planner.FieldFilingStatus].(string)
	b := planner.NewTaxBracket(r.Name, r.Description, planner.TaxType(taxType), planner.FilingStatus(status), d.options...)
	for _, rng := range r.Ranges {
		var bound any
		if rng.UpperBound != "" {
			bound = rng.UpperBound
		}
		if !b.AddRange(bound, rng.Rate) {
			d.logger.Warn(fmt.Sprintf("tax bracket %q: dropped range %s@%s", r.Name, rng.UpperBound, rng.Rate),
				zap.String("op", "store.Decode"),
			)
		}
	}
	return b
}

func (d *decoder) decodeExpenses(r Record) *planner.Expenses {
	e := planner.NewExpenses(r.Name, r.Description, d.options...)
	d.fillExpenses(e, r)
	return e
}

func (d *decoder) fillExpenses(e *planner.Expenses, r Record) {
	for _, item := range r.Items {
		category, ok := planner.ParseExpenseCategory(item.Category)
		if !ok {
			category = planner.Other
		}
		if !e.AddWithCategory(item.Label, item.Amount, category) {
			d.logger.Warn(fmt.Sprintf("expenses %q: dropped item %q", r.Name, item.Label),
				zap.String("op", "store.Decode"),
			)
		}
	}
}

func (d *decoder) decodeJob(r Record) *planner.Job {
	j := planner.NewJob(r.Name, r.Description, d.options...)
	d.applyData(j, r)
	if owned, ok := r.Owned[ownedPreTax]; ok {
		d.fillExpenses(j.PreTaxDeductions(), owned)
		d.applyIdentity(j.PreTaxDeductions(), owned)
	}
	if owned, ok := r.Owned[ownedPostTax]; ok {
		d.fillExpenses(j.PostTaxDeductions(), owned)
		d.applyIdentity(j.PostTaxDeductions(), owned)
	}
	for _, id := range r.Refs[refTaxBrackets] {
		if b, ok := resolve[*planner.TaxBracket](d, r, id); ok {
			j.AttachBracket(b)
		}
	}
	return j
}

func (d *decoder) decodeLoan(l planner.Borrowing, r Record) planner.Borrowing {
	d.applyData(l, r)
	adder, ok := l.(interface {
		AddExtraPayment(start, end int, amount any) bool
	})
	if !ok {
		return l
	}
	for _, extra := range r.ExtraPayments {
		if !adder.AddExtraPayment(extra.StartMonth, extra.EndMonth, extra.Amount) {
			d.logger.Warn(fmt.Sprintf("loan %q: dropped extra payment [%d,%d)", r.Name, extra.StartMonth, extra.EndMonth),
				zap.String("op", "store.Decode"),
			)
		}
	}
	return l
}

func (d *decoder) decodeScenario(r Record) *planner.Scenario {
	s := planner.NewScenario(r.Name, r.Description, d.options...)
	for _, id := range r.Refs[refJobs] {
		if j, ok := resolve[*planner.Job](d, r, id); ok {
			d.addMember(r, s.AddJob(j))
		}
	}
	for _, id := range r.Refs[refIncomes] {
		if i, ok := resolve[*planner.Income](d, r, id); ok {
			d.addMember(r, s.AddIncome(i))
		}
	}
	for _, id := range r.Refs[refExpenses] {
		if e, ok := resolve[*planner.Expenses](d, r, id); ok {
			d.addMember(r, s.AddExpenses(e))
		}
	}
	for _, id := range r.Refs[refLoans] {
		if l, ok := resolve[planner.Borrowing](d, r, id); ok {
			d.addMember(r, s.AddLoan(l))
		}
	}
	return s
}

func (d *decoder) addMember(r Record, err error) {
	if err != nil {
		d.logger.Warn(fmt.Sprintf("scenario %q: %v", r.Name, err),
			zap.String("op", "store.Decode"),
		)
	}
}

func resolve[T planner.Entity](d *decoder, r Record, id string) (T, bool) {
	var zero T
	entity, ok := d.byID[id]
	if !ok {
		d.logger.Warn(fmt.Sprintf("%s %q: reference %s: %v", r.Kind, r.Name, id, planner.ErrNotFound),
			zap.String("op", "store.Decode"),
		)
		return zero, false
	}
	typed, ok := entity.(T)
	if !ok {
		d.logger.Warn(fmt.Sprintf("%s %q: reference %s is a %s", r.Kind, r.Name, id, entity.Kind()),
			zap.String("op", "store.Decode"),
		)
		return zero, false
	}
	return typed, true
}

// CollectionFor returns the collection that holds entities of the given kind.
func CollectionFor(kind planner.Kind) string {
	switch kind {
	case planner.KindTaxBracket:
		return CollectionTaxBrackets
	case planner.KindExpenses:
		return CollectionExpenses
	case planner.KindIncome:
		return CollectionIncomes
	case planner.KindJob:
		return CollectionJobs
	case planner.KindScenario:
		return CollectionScenarios
	}
	return CollectionLoans
}

func loanKindOf(kind planner.Kind) planner.LoanKind {
	for _, lk := range planner.LoanKinds() {
		if lk.Kind() == kind {
			return lk
		}
	}
	return planner.GeneralLoan
}
