// Package app holds the explicitly constructed application state: the
// registry of loaded entities, its load/save lifecycle, and scenario
// projection.
package app

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/internal/forecast"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProjectionPoint is one month of a scenario projection.
type ProjectionPoint = forecast.Point

// Summary identifies an entity for listings.
type Summary struct {
	ID          uuid.UUID    `json:"id"`
	Kind        planner.Kind `json:"kind"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
}

// State is the registry of every entity the application knows about.
// It is safe for concurrent use; entities must only be mutated through it.
type State struct {
	mu          sync.RWMutex
	logger      *zap.Logger
	store       *store.Store
	options     []planner.Option
	collections *store.Collections
}

// New creates an empty state backed by st. The options are applied to
// entities the state constructs.
func New(st *store.Store, logger *zap.Logger, opts ...planner.Option) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		logger:      logger,
		store:       st,
		options:     append([]planner.Option{planner.WithLogger(logger)}, opts...),
		collections: &store.Collections{},
	}
}

// Options returns the entity options for constructing new entities.
func (s *State) Options() []planner.Option {
	return slices.Clone(s.options)
}

// Load replaces the registry with the store's contents.
func (s *State) Load() error {
	if s.store == nil {
		return fmt.Errorf("no store configured: %w", planner.ErrInvalidInput)
	}
	collections, err := s.store.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.collections = collections
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("loaded %d entities from %s", len(collections.All()), s.store.Path()),
		zap.String("op", "app.Load"),
	)
	return nil
}

// Save writes the registry to the store.
func (s *State) Save() error {
	if s.store == nil {
		return fmt.Errorf("no store configured: %w", planner.ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Save(s.collections)
}

// Add registers an entity. Adding an ID that is already registered fails
// with planner.ErrAlreadyExists.
func (s *State) Add(entity planner.Entity) error {
	if entity == nil {
		return fmt.Errorf("no entity to add: %w", planner.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.find(entity.Base().ID); ok {
		return fmt.Errorf("%s %q has the same ID as %s %q: %w",
			entity.Kind(), entity.Base().Name, existing.Kind(), existing.Base().Name, planner.ErrAlreadyExists)
	}

	c := s.collections
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
	default:
		return fmt.Errorf("cannot register %s: %w", entity.Kind(), planner.ErrUnknownKind)
	}

	s.logger.Debug(fmt.Sprintf("registered %s %s", entity.Kind(), entity.Base().Name),
		zap.String("op", "app.Add"),
	)
	return nil
}

// Remove unregisters an entity and detaches it from every job and scenario
// that refers to it.
func (s *State) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.find(id)
	if !ok {
		return fmt.Errorf("entity %s: %w", id, planner.ErrNotFound)
	}

	c := s.collections
	switch e := entity.(type) {
	case *planner.TaxBracket:
		c.TaxBrackets = without(c.TaxBrackets, e)
		for _, j := range c.Jobs {
			j.DetachBracket(e)
		}
	case *planner.Expenses:
		c.Expenses = without(c.Expenses, e)
		for _, sc := range c.Scenarios {
			sc.RemoveExpenses(e)
		}
	case *planner.Income:
		c.Incomes = without(c.Incomes, e)
		for _, sc := range c.Scenarios {
			sc.RemoveIncome(e)
		}
	case *planner.Job:
		c.Jobs = without(c.Jobs, e)
		for _, sc := range c.Scenarios {
			sc.RemoveJob(e)
		}
	case planner.Borrowing:
		c.Loans = without(c.Loans, e)
		for _, sc := range c.Scenarios {
			sc.RemoveLoan(e)
		}
	case *planner.Scenario:
		c.Scenarios = without(c.Scenarios, e)
	}

	s.logger.Debug(fmt.Sprintf("removed %s %s", entity.Kind(), entity.Base().Name),
		zap.String("op", "app.Remove"),
	)
	return nil
}

// FindByID returns the registered entity with the given ID.
func (s *State) FindByID(id uuid.UUID) (planner.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entity, ok := s.find(id); ok {
		return entity, nil
	}
	return nil, fmt.Errorf("entity %s: %w", id, planner.ErrNotFound)
}

// Find resolves a reference that is either an ID or a case-insensitive
// name. When kinds are given only entities of those kinds match.
func (s *State) Find(ref string, kinds ...planner.Kind) (planner.Entity, error) {
	ref = strings.TrimSpace(ref)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, err := uuid.Parse(ref); err == nil {
		if entity, ok := s.find(id); ok && matchesKind(entity, kinds) {
			return entity, nil
		}
	}
	for _, entity := range s.collections.All() {
		if strings.EqualFold(entity.Base().Name, ref) && matchesKind(entity, kinds) {
			return entity, nil
		}
	}
	return nil, fmt.Errorf("entity %q: %w", ref, planner.ErrNotFound)
}

// List summarizes the entities in one collection, or every entity when
// collection is empty.
func (s *State) List(collection string) []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summaries []Summary
	for _, entity := range s.collections.All() {
		if collection != "" && store.CollectionFor(entity.Kind()) != collection {
			continue
		}
		base := entity.Base()
		summaries = append(summaries, Summary{ID: base.ID, Kind: entity.Kind(), Name: base.Name, Description: base.Description})
	}
	return summaries
}

// Collections summarizes every collection, keyed by collection name.
func (s *State) Collections() map[string][]Summary {
	out := make(map[string][]Summary, len(store.CollectionNames()))
	for _, name := range store.CollectionNames() {
		out[name] = s.List(name)
	}
	return out
}

// Update applies a single field update to the entity and refreshes every
// scenario, since a bracket or job change reaches scenarios indirectly.
// It reports whether the entity accepted the value.
func (s *State) Update(id uuid.UUID, key string, value any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.find(id)
	if !ok {
		return false, fmt.Errorf("entity %s: %w", id, planner.ErrNotFound)
	}
	if !entity.Update(key, value) {
		return false, nil
	}
	s.recalculate()
	return true, nil
}

// Mutate runs fn with write access to the entity and refreshes every
// scenario afterwards, whether or not fn succeeded.
func (s *State) Mutate(id uuid.UUID, fn func(planner.Entity) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.find(id)
	if !ok {
		return fmt.Errorf("entity %s: %w", id, planner.ErrNotFound)
	}
	defer s.recalculate()
	return fn(entity)
}

// View runs fn with read access to the entity. Calculations that only read
// an entity go through View so they never race an Update.
func (s *State) View(id uuid.UUID, fn func(planner.Entity) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, ok := s.find(id)
	if !ok {
		return fmt.Errorf("entity %s: %w", id, planner.ErrNotFound)
	}
	return fn(entity)
}

// Project walks the scenario forward month by month from start.
func (s *State) Project(scenario *planner.Scenario, start time.Time, months int, startingBalance decimal.Decimal) ([]ProjectionPoint, error) {
	result, err := s.Forecast(scenario, start, months, startingBalance)
	return result.Points, err
}

// Forecast is Project with the projection's name and warnings. It holds the
// write lock because the scenario totals are refreshed first.
func (s *State) Forecast(scenario *planner.Scenario, start time.Time, months int, startingBalance decimal.Decimal) (forecast.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return forecast.GetForecast(s.logger, scenario, start, months, startingBalance)
}

func (s *State) recalculate() {
	for _, sc := range s.collections.Scenarios {
		sc.Recalculate()
	}
}

func (s *State) find(id uuid.UUID) (planner.Entity, bool) {
	for _, entity := range s.collections.All() {
		if entity.Base().ID == id {
			return entity, true
		}
	}
	return nil, false
}

func matchesKind(entity planner.Entity, kinds []planner.Kind) bool {
	return len(kinds) == 0 || slices.Contains(kinds, entity.Kind())
}

func without[T comparable](items []T, item T) []T {
	return slices.DeleteFunc(items, func(other T) bool { return other == item })
}
