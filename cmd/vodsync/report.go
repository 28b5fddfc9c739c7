package main

import (
	"fmt"
	"io"
	"time"

	"github.com/xaionaro-go/vodsync/pkg/reconcile"
	"github.com/xaionaro-go/vodsync/pkg/tracker"
)

func printReport(
	w io.Writer,
	flags Flags,
	result tracker.MatchResult,
	record reconcile.OffsetRecord,
) {
	fmt.Fprintf(w, "template position:   %s (%.6fs)\n", reconcile.FormatTimestamp(record.TemplateExtractionTime), record.TemplateExtractionTime)
	fmt.Fprintf(w, "detected at:         %s (%.6fs)\n", reconcile.FormatTimestamp(record.DetectedTime), record.DetectedTime)
	fmt.Fprintf(w, "score:               %g (peak ratio %.3f)\n", result.BestScore, result.PeakRatio())
	if result.Refined {
		fmt.Fprintf(w, "refinement:          %+.6fs (confidence %.3f)\n", result.RefinedTime-result.BestTime, result.RefinedConfidence)
	}
	fmt.Fprintf(w, "frames scanned:      %d\n", result.FramesScanned)
	fmt.Fprintf(w, "offset:              %+.3fs\n", record.RawOffset)
	fmt.Fprintf(w, "created delay:       %d ms\n", record.CreatedDelay())
	fmt.Fprintf(w, "secondary duration:  %d ms\n", record.SecondaryDurationMillis())

	if t, ok := parseTimestamp(w, "secondary-start", flags.SecondaryStart); ok {
		fmt.Fprintf(w, "corrected start:     %s\n", record.CorrectedStart(t).Format(time.RFC3339Nano))
	}
	if t, ok := parseTimestamp(w, "reference-start", flags.ReferenceStart); ok {
		fmt.Fprintf(w, "aligned start:       %s\n", record.AlignedStart(t).Format(time.RFC3339Nano))
	}
}

func parseTimestamp(w io.Writer, name, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		fmt.Fprintf(w, "invalid --%s: %v\n", name, err)
		return time.Time{}, false
	}
	return t, true
}
