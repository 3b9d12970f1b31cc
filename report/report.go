// Package report formats benchmark results into per-group tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/weiihann/qbench/harness"
)

// Generate writes one markdown table per benchmark group, in the order
// groups first appear in results.
func Generate(w io.Writer, results []harness.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	groups, byGroup := groupResults(results)

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Backend: %s\n", results[0].Backend)

	for _, group := range groups {
		rows := byGroup[group]
		baseline := smallest(rows).MinNs

		fmt.Fprintln(w)
		fmt.Fprintf(w, "### %s\n", group)
		fmt.Fprintln(w)

		// Table header.
		fmt.Fprintln(w, "| Qubits | Gates | Depth | Min | Mean | Median "+
			"| Max | StdDev | OPS | Rounds | Memory | Slowdown |")
		fmt.Fprintln(w, "|--------|-------|-------|-----|------|--------"+
			"|-----|--------|-----|--------|--------|----------|")

		for _, r := range rows {
			slowdown := 1.0
			if baseline > 0 && r.MinNs > 0 {
				slowdown = float64(r.MinNs) / float64(baseline)
			}

			fmt.Fprintf(w, "| %d | %d | %d | %s | %s | %s | %s | %s | %s | %d | %s | %.2fx |\n",
				r.NQubits,
				r.Gates,
				r.Depth,
				formatNs(r.MinNs),
				formatNs(r.MeanNs),
				formatNs(r.MedianNs),
				formatNs(r.MaxNs),
				formatNs(r.StdDevNs),
				formatOPS(r.OPS),
				r.Rounds,
				formatBytes(r.StatevectorBytes),
				slowdown,
			)
		}
	}

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []harness.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func groupResults(results []harness.Result) ([]string, map[string][]harness.Result) {
	var order []string

	byGroup := make(map[string][]harness.Result)
	for _, r := range results {
		if _, ok := byGroup[r.Group]; !ok {
			order = append(order, r.Group)
		}

		byGroup[r.Group] = append(byGroup[r.Group], r)
	}

	return order, byGroup
}

// smallest returns the row with the fewest qubits, the first on ties.
func smallest(rows []harness.Result) harness.Result {
	best := rows[0]
	for _, r := range rows[1:] {
		if r.NQubits < best.NQubits {
			best = r
		}
	}

	return best
}

func formatNs(ns int64) string {
	switch {
	case ns < 1_000:
		return fmt.Sprintf("%dns", ns)
	case ns < 1_000_000:
		return fmt.Sprintf("%.2fµs", float64(ns)/1e3)
	case ns < 1_000_000_000:
		return fmt.Sprintf("%.2fms", float64(ns)/1e6)
	default:
		return fmt.Sprintf("%.2fs", float64(ns)/1e9)
	}
}

func formatOPS(ops float64) string {
	switch {
	case ops == 0:
		return "-"
	case ops >= 1e6:
		return fmt.Sprintf("%.2fM", ops/1e6)
	case ops >= 1e3:
		return fmt.Sprintf("%.2fK", ops/1e3)
	default:
		return fmt.Sprintf("%.2f", ops)
	}
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
