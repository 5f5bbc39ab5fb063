package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		config   config.LoggingConfig
		override string
		level    zapcore.Level
		wantErr  bool
	}{
		{name: "defaults", level: zapcore.InfoLevel},
		{name: "config level", config: config.LoggingConfig{Level: "debug", Format: "console"}, level: zapcore.DebugLevel},
		{name: "override wins", config: config.LoggingConfig{Level: "debug"}, override: "warning", level: zapcore.WarnLevel},
		{name: "bad level", config: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", config: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.level-1))
			}
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "planner.log")
	logger, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

type harness struct {
	dir  string
	data string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()
	return harness{dir: dir, data: filepath.Join(dir, "plan.yaml")}
}

func (h harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{
		"--config", filepath.Join(h.dir, "missing.yaml"),
		"--data", h.data,
		"--log-level", "error",
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, "finance-planner %v", args)
	return out
}

func (h harness) runJSON(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out := h.mustRun(t, append([]string{"--output-format", "json"}, args...)...)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	return body
}

func (h harness) seed(t *testing.T) {
	t.Helper()
	for _, args := range [][]string{
		{"new", "tax_bracket", "State", "--tax-type", "State"},
		{"range", "State", "10000", "4"},
		{"range", "State", "top", "6"},
		{"new", "auto", "Car"},
		{"set", "Car", "total", "10000"},
		{"set", "Car", "rate", "6"},
		{"set", "Car", "term", "12"},
		{"extra", "Car", "1", "13", "1000"},
		{"new", "income", "Salary"},
		{"set", "Salary", "amount", "4000"},
		{"new", "expenses", "Bills"},
		{"set", "Bills", "Rent", "1000"},
		{"new", "scenario", "Baseline", "--description", "current plan"},
		{"link", "Baseline", "Salary"},
		{"link", "Baseline", "Bills"},
		{"link", "Baseline", "Car"},
	} {
		h.mustRun(t, args...)
	}
}

func TestCommandsRoundTripThroughDataFile(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	tax := h.runJSON(t, "tax", "State", "15000")
	assert.Equal(t, "700", tax["income_tax"])

	schedule := h.runJSON(t, "schedule", "Car", "--extra")
	assert.Equal(t, "860.66", schedule["monthly_payment"])
	assert.Equal(t, float64(6), schedule["payoff_month"])

	compare := h.runJSON(t, "compare", "car")
	assert.Equal(t, "164.67", compare["interest_saved"])
	assert.Equal(t, float64(6), compare["months_saved"])

	scenario := h.runJSON(t, "scenario", "Baseline")
	assert.Equal(t, "2139.34", scenario["monthly_cash_flow"])
	assert.Equal(t, "current plan", scenario["description"])

	out := h.mustRun(t, "scenario", "Baseline", "--months", "7", "--start", "2025-01-01", "--balance", "100")
	assert.Contains(t, out, "--- Scenario Baseline ---")
	assert.Contains(t, out, "--- Results for scenario Baseline ---")
	assert.Contains(t, out, "Loan 'Car' paid off")
}

func TestListAndRemove(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	out := h.mustRun(t, "list", "loans")
	assert.Contains(t, out, "Car")
	assert.NotContains(t, out, "Salary")

	_, err := h.run(t, "list", "widgets")
	assert.ErrorIs(t, err, planner.ErrNotFound)

	h.mustRun(t, "remove", "Car")
	assert.NotContains(t, h.mustRun(t, "list", "loans"), "Car")

	scenario := h.runJSON(t, "scenario", "Baseline")
	assert.Equal(t, "3000", scenario["monthly_cash_flow"])
}

func TestLinkRemovesMembers(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	h.mustRun(t, "link", "Baseline", "Bills", "--remove")
	scenario := h.runJSON(t, "scenario", "Baseline")
	assert.Equal(t, "3139.34", scenario["monthly_cash_flow"])

	_, err := h.run(t, "link", "Baseline", "Bills", "--remove")
	assert.ErrorIs(t, err, planner.ErrNotFound)

	_, err = h.run(t, "link", "Baseline", "State")
	assert.ErrorIs(t, err, planner.ErrInvalidInput)
}

func TestExtraAndRangeRemoval(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	h.mustRun(t, "extra", "Car", "--remove", "0")
	compare := h.runJSON(t, "compare", "Car")
	assert.Equal(t, float64(0), compare["months_saved"])

	_, err := h.run(t, "extra", "Car", "--remove", "0")
	assert.ErrorIs(t, err, planner.ErrNotFound)

	h.mustRun(t, "range", "State", "top", "--remove")
	h.mustRun(t, "range", "State", "10000", "--remove")
	_, err = h.run(t, "tax", "State", "15000")
	assert.ErrorIs(t, err, planner.ErrNoRanges)
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	tests := []struct {
		name string
		args []string
		err  error
	}{
		{name: "unknown kind", args: []string{"new", "widget", "Thing"}, err: planner.ErrUnknownKind},
		{name: "unknown loan", args: []string{"schedule", "Nothing"}, err: planner.ErrNotFound},
		{name: "not a loan", args: []string{"compare", "Baseline"}, err: planner.ErrNotFound},
		{name: "derived field", args: []string{"set", "Bills", "total", "5"}, err: planner.ErrInvalidInput},
		{name: "bad income", args: []string{"tax", "State", "plenty"}, err: planner.ErrInvalidInput},
		{name: "bad start", args: []string{"scenario", "Baseline", "--months", "3", "--start", "soon"}, err: planner.ErrInvalidInput},
		{name: "bad tax type", args: []string{"new", "tax_bracket", "City", "--tax-type", "County"}, err: planner.ErrInvalidInput},
		{name: "missing rate", args: []string{"range", "State", "20000"}, err: planner.ErrInvalidInput},
		{name: "bad extra window", args: []string{"extra", "Car", "5", "2", "100"}, err: planner.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, tt.args...)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "--output-format", "xml", "list")
	assert.Error(t, err)
}
