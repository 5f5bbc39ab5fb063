// Package store persists planner entities as a YAML document keyed by
// collection name.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Collection names.
const (
	CollectionLoans       = "loans"
	CollectionJobs        = "jobs"
	CollectionExpenses    = "expenses"
	CollectionIncomes     = "incomes"
	CollectionScenarios   = "scenarios"
	CollectionTaxBrackets = "tax_brackets"
)

// CollectionNames lists the collections in load order.
func CollectionNames() []string {
	return []string{CollectionTaxBrackets, CollectionExpenses, CollectionIncomes,
		CollectionJobs, CollectionLoans, CollectionScenarios}
}

// Document maps a collection name to its ordered entity records.
type Document map[string][]Record

// Record is the serialized form of one entity. Scalar fields travel in Data;
// structured parts have their own fields.
type Record struct {
	Kind          string              `yaml:"kind"`
	ID            string              `yaml:"id"`
	Name          string              `yaml:"name"`
	Description   string              `yaml:"description,omitempty"`
	Data          map[string]any      `yaml:"data,omitempty"`
	Assumptions   map[string]string   `yaml:"assumptions,omitempty"`
	Items         []Item              `yaml:"items,omitempty"`
	Ranges        []Range             `yaml:"ranges,omitempty"`
	ExtraPayments []ExtraPayment      `yaml:"extra_payments,omitempty"`
	Owned         map[string]Record   `yaml:"owned,omitempty"`
	Refs          map[string][]string `yaml:"refs,omitempty"`
}

// Item is an expense line item.
type Item struct {
	Label    string `yaml:"label"`
	Amount   string `yaml:"amount"`
	Category string `yaml:"category,omitempty"`
}

// Range is a tax bracket range. An empty upper bound is the unbounded top
// range. Rates are percentages.
type Range struct {
	UpperBound string `yaml:"upper_bound,omitempty"`
	Rate       string `yaml:"rate"`
}

// ExtraPayment is a loan extra principal payment over [start, end).
type ExtraPayment struct {
	StartMonth int    `yaml:"start_month"`
	EndMonth   int    `yaml:"end_month"`
	Amount     string `yaml:"amount"`
}

// ReadDocument reads the document at path. A missing file is an empty document.
func ReadDocument(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc := Document{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// WriteDocument writes the document to path through a temporary file in the
// same directory, so a failed write leaves the previous file intact.
func WriteDocument(path string, doc Document) error {
	content, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
