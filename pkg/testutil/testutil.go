// Package testutil provides testing utilities for framekit
package testutil

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// WriteFile writes content to name inside dir and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// PriceCSV renders a DATE-indexed CSV with the given columns and rows of prices.
// Row r, column c starts at 100+c and grows by 1% per row with a small
// column-dependent wobble, so log returns differ per cell.
func PriceCSV(columns, rows int) string {
	var b strings.Builder
	b.WriteString("DATE")
	for c := 0; c < columns; c++ {
		fmt.Fprintf(&b, ",S%d", c)
	}
	b.WriteByte('\n')

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for r := 0; r < rows; r++ {
		b.WriteString(start.AddDate(0, 0, r).Format("2006-01-02"))
		for c := 0; c < columns; c++ {
			price := float64(100+c) * math.Pow(1.01, float64(r)) * (1 + 0.001*float64((r*(c+3))%7))
			fmt.Fprintf(&b, ",%s", formatFloat(price))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

// SameFloat reports whether a and b are equal, treating any two NaNs as equal
func SameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

// RequireFloats fails the test unless want and got match element by element with
// NaN == NaN and a tolerance of delta for finite values.
func RequireFloats(t *testing.T, want, got []float64, delta float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			require.Truef(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		require.InDeltaf(t, want[i], got[i], delta, "index %d", i)
	}
}
