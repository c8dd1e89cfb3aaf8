//go:build !integration

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SoleneDerville/occurrence-atlas/internal/summary"
)

func TestPrintSummary(t *testing.T) {
	groups := []summary.GroupStat{
		{Key: "Tursiops truncatus", N: 12, Mean: 35.5, StdDev: 4.2, Median: 34.0, Min: 28.0, Max: 44.0},
		{Key: "Stenella longirostris", N: 3, Mean: 12.0, StdDev: 1.0, Median: 12.0, Min: 11.0, Max: 13.0},
	}

	var buf bytes.Buffer
	printSummary(&buf, "species", groups)

	output := buf.String()
	assert.Contains(t, output, "species")
	assert.Contains(t, output, "mean")
	assert.Contains(t, output, "Tursiops truncatus")
	assert.Contains(t, output, "35.5")
	assert.Contains(t, output, "Stenella longirostris")
	assert.Contains(t, output, "12.0")
}

func TestPrintSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, "genus", nil)

	assert.Contains(t, buf.String(), "genus")
	assert.NotContains(t, buf.String(), "Tursiops")
}
