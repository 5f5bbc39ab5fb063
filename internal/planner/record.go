// Package planner holds the financial entities of a plan: expense lists, tax
// brackets, jobs, incomes, loans and scenarios. Entities keep their derived
// values consistent after every successful mutation, and mutations with bad
// input are rejected without changing state.
package planner

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Field keys shared by every entity.
const (
	FieldName        = "name"
	FieldDescription = "description"
)

// Assumption keys.
const (
	AssumptionSocialSecurityRate = "ss_rate"
	AssumptionSocialSecurityCap  = "ss_cap"
	AssumptionMedicareRate       = "medicare_rate"
	AssumptionMedicareSurtaxRate = "medicare_surtax_rate"
	AssumptionMedicareThreshold  = "medicare_threshold"
	AssumptionStandardDeduction  = "standard_deduction"
	AssumptionPMIEquityThreshold = "pmi_equity_threshold"
	AssumptionAssessedValueRatio = "assessed_value_ratio"
)

// Entity is the capability every planner entity exposes to the registry, the
// store and the presentation layers.
type Entity interface {
	Kind() Kind
	Base() *Record
	Data() map[string]any
	Update(key string, value any) bool
}

// Record is the identity and metadata shared by all entities.
type Record struct {
	ID          uuid.UUID
	Name        string
	Description string

	assumptions map[string]decimal.Decimal
	logger      *zap.Logger
}

func newRecord(name, description string, o options) Record {
	return Record{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		assumptions: map[string]decimal.Decimal{},
		logger:      o.logger,
	}
}

// Base returns the record itself.
func (r *Record) Base() *Record {
	return r
}

// SetID replaces the entity ID. Used when loading saved entities.
func (r *Record) SetID(id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	r.ID = id
	return true
}

// SetName renames the entity. Blank names are rejected.
func (r *Record) SetName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		r.reject("Record.SetName", FieldName, name)
		return false
	}
	r.Name = name
	return true
}

// Assumption returns the named assumption and whether it is set.
func (r *Record) Assumption(key string) (decimal.Decimal, bool) {
	v, ok := r.assumptions[key]
	return v, ok
}

// SetAssumption sets a numeric assumption. Non-numeric values are rejected.
func (r *Record) SetAssumption(key string, value any) bool {
	key = strings.TrimSpace(key)
	v, ok := mathutil.FromAny(value)
	if key == "" || !ok {
		r.reject("Record.SetAssumption", key, value)
		return false
	}
	r.assumptions[key] = v
	return true
}

// RemoveAssumption removes the named assumption.
func (r *Record) RemoveAssumption(key string) bool {
	if _, ok := r.assumptions[key]; !ok {
		return false
	}
	delete(r.assumptions, key)
	return true
}

// Assumptions returns a copy of the assumptions.
func (r *Record) Assumptions() map[string]decimal.Decimal {
	return maps.Clone(r.assumptions)
}

// AssumptionKeys returns the assumption keys in sorted order.
func (r *Record) AssumptionKeys() []string {
	return slices.Sorted(maps.Keys(r.assumptions))
}

func (r *Record) assumption(key string, fallback decimal.Decimal) decimal.Decimal {
	if v, ok := r.assumptions[key]; ok {
		return v
	}
	return fallback
}

func (r *Record) data() map[string]any {
	return map[string]any{
		FieldName:        r.Name,
		FieldDescription: r.Description,
	}
}

// update handles the keys common to every entity. The first return reports
// whether the key was one of them.
func (r *Record) update(key string, value any) (handled, ok bool) {
	switch key {
	case FieldName:
		s, isString := value.(string)
		return true, isString && r.SetName(s)
	case FieldDescription:
		s, isString := value.(string)
		if !isString {
			r.reject("Record.Update", key, value)
			return true, false
		}
		r.Description = s
		return true, true
	}
	return false, false
}

func (r *Record) log() *zap.Logger {
	if r.logger == nil {
		return zap.NewNop()
	}
	return r.logger
}

func (r *Record) reject(op, key string, value any) {
	r.log().Debug(fmt.Sprintf("%s: rejected %s=%v", r.Name, key, value),
		zap.String("op", "planner."+op),
	)
}

// Assumptions are the configurable defaults copied into new entities.
// Rates are percentages.
type Assumptions struct {
	SocialSecurityRate decimal.Decimal
	SocialSecurityCap  decimal.Decimal
	MedicareRate       decimal.Decimal
	MedicareSurtaxRate decimal.Decimal
	MedicareThreshold  decimal.Decimal
	PMIRate            decimal.Decimal
	PMIEquityThreshold decimal.Decimal
	AssessedValueRatio decimal.Decimal
}

// DefaultAssumptions returns the built-in assumption values.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		SocialSecurityRate: decimal.NewFromFloat(constants.DefaultSocialSecurityRate),
		SocialSecurityCap:  decimal.NewFromFloat(constants.DefaultSocialSecurityCap),
		MedicareRate:       decimal.NewFromFloat(constants.DefaultMedicareRate),
		MedicareSurtaxRate: decimal.NewFromFloat(constants.DefaultMedicareSurtax),
		MedicareThreshold:  decimal.NewFromFloat(constants.DefaultMedicareThreshold),
		PMIRate:            decimal.NewFromFloat(constants.DefaultPMIRate),
		PMIEquityThreshold: decimal.NewFromFloat(constants.PMIEquityThreshold),
		AssessedValueRatio: decimal.NewFromFloat(constants.AssessedValueRatio),
	}
}

func (a Assumptions) fica() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		AssumptionSocialSecurityRate: a.SocialSecurityRate,
		AssumptionSocialSecurityCap:  a.SocialSecurityCap,
		AssumptionMedicareRate:       a.MedicareRate,
		AssumptionMedicareSurtaxRate: a.MedicareSurtaxRate,
		AssumptionMedicareThreshold:  a.MedicareThreshold,
	}
}

// Option configures a new entity.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	assumptions Assumptions
}

// WithLogger sets the logger an entity reports rejected mutations to.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAssumptions overrides the default assumptions of a new entity.
func WithAssumptions(a Assumptions) Option {
	return func(o *options) {
		o.assumptions = a
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), assumptions: DefaultAssumptions()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// nonNegative converts a boundary value into a decimal, rejecting negatives.
func nonNegative(value any) (decimal.Decimal, bool) {
	v, ok := mathutil.FromAny(value)
	if !ok || v.IsNegative() {
		return decimal.Zero, false
	}
	return v, true
}

// termMonths converts a boundary value into a whole number of months.
func termMonths(value any) (int, bool) {
	v, ok := nonNegative(value)
	if !ok || !v.Equal(v.Truncate(0)) || v.GreaterThan(decimal.NewFromInt(constants.MaxTermMonths)) {
		return 0, false
	}
	return int(v.IntPart()), true
}
