package feed

import (
	"fmt"
	"strings"
)

// Validator defaults, overridable via ingest configuration.
const (
	DefaultSampleSize          = 100
	DefaultConformityThreshold = 0.90
)

// ValidationError reports a structural validation failure with enough
// detail for operator logging. Schema drift upstream fails the whole
// batch before any store mutation.
type ValidationError struct {
	SampledLines int
	RecordLines  int     // sampled lines containing ';'
	ValidLines   int     // record lines with the expected field count
	Conformity   float64 // ValidLines / RecordLines
	Threshold    float64
	Reason       string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("feed validation failed: %s (valid %d/%d, conformity %.2f, threshold %.2f)",
		e.Reason, e.ValidLines, e.RecordLines, e.Conformity, e.Threshold)
}

// Validate samples the first sampleSize lines of the raw feed and checks
// that enough record lines have the expected field count. A zero or
// negative sampleSize/threshold falls back to the defaults.
func Validate(raw string, sampleSize int, threshold float64) (float64, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if threshold <= 0 {
		threshold = DefaultConformityThreshold
	}

	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) > sampleSize {
		lines = lines[:sampleSize]
	}

	recordLines := 0
	validLines := 0
	for _, line := range lines {
		if !strings.Contains(line, ";") {
			continue
		}
		recordLines++
		if len(strings.Split(strings.TrimSpace(line), ";")) == FieldCount {
			validLines++
		}
	}

	if recordLines == 0 {
		return 0, &ValidationError{
			SampledLines: len(lines),
			Threshold:    threshold,
			Reason:       "no record lines containing ';' in sample",
		}
	}

	conformity := float64(validLines) / float64(recordLines)
	if conformity < threshold {
		return conformity, &ValidationError{
			SampledLines: len(lines),
			RecordLines:  recordLines,
			ValidLines:   validLines,
			Conformity:   conformity,
			Threshold:    threshold,
			Reason:       "conformity below threshold",
		}
	}

	return conformity, nil
}
