package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/runningwild/kfinder/pkg/analyze"
	"github.com/runningwild/kfinder/pkg/engine"
	"github.com/runningwild/kfinder/pkg/finder"
	"github.com/runningwild/kfinder/pkg/stats"
)

type report struct {
	Result finder.Result `json:"result"`
	Timing stats.Summary `json:"timing"`
	Model  *engine.Model `json:"model,omitempty"`
}

func printReport(w io.Writer, rep report) {
	res := rep.Result

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "k\tdistortion\tdelta%\tdiff delta%\tdelta of delta%\tadjusted\t")
	for _, s := range res.Curve {
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			s.K, s.Distortion, s.DeltaPct, s.DiffDeltaPct, s.DeltaOfDeltaPct, s.ComplexityAdjustedDiff)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n>>> Search Complete <<<\n")
	for _, m := range analyze.Methods {
		if k, ok := res.Candidates[m]; ok {
			fmt.Fprintf(w, "  %s: %d\n", m, k)
		} else {
			fmt.Fprintf(w, "  %s: -\n", m)
		}
	}
	fmt.Fprintf(w, "Best K: %d\n", res.BestK)
	fmt.Fprintf(w, "Kneedle: %d, curve confidence: %.2f\n", res.Diagnostics.KneedleK, res.Diagnostics.Confidence)
	fmt.Fprintf(w, "Fits: %d (mean %v, p99 %v)\n", rep.Timing.Count, rep.Timing.Mean, rep.Timing.P99)

	if rep.Model != nil {
		fmt.Fprintf(w, "\nModel at k=%d (inertia %.4f, %d iterations)\n", rep.Model.K, rep.Model.Inertia, rep.Model.Iterations)
		for i, c := range rep.Model.Centroids {
			fmt.Fprintf(w, "  centroid %d: %v\n", i, c)
		}
	}
}

func writeReport(path string, rep report) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		slog.Error("failed to marshal report", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Error("failed to write report", "error", err)
		return
	}
	slog.Info("report written", "path", path)
}
