package store

import (
	"fmt"

	"github.com/iwvelando/finance-planner/internal/planner"
	"go.uber.org/zap"
)

// Store loads and saves the planner collections at a single path.
type Store struct {
	path    string
	logger  *zap.Logger
	options []planner.Option
}

// New creates a store for the document at path. The options are applied to
// every entity rebuilt on load.
func New(path string, logger *zap.Logger, opts ...planner.Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger, options: opts}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document and rebuilds its entities. A missing document
// yields empty collections.
func (s *Store) Load() (*Collections, error) {
	doc, err := ReadDocument(s.path)
	if err != nil {
		return nil, err
	}
	collections, err := Decode(doc, s.logger, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	s.logger.Debug(fmt.Sprintf("loaded %d entities from %s", len(collections.All()), s.path),
		zap.String("op", "store.Load"),
	)
	return collections, nil
}

// Save writes the collections to the document.
func (s *Store) Save(collections *Collections) error {
	if err := WriteDocument(s.path, Encode(collections)); err != nil {
		return err
	}
	s.logger.Debug(fmt.Sprintf("saved %d entities to %s", len(collections.All()), s.path),
		zap.String("op", "store.Save"),
	)
	return nil
}
