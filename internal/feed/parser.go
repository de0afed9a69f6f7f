// Package feed parses and validates the AMFI daily NAV text feed.
//
// The feed is semicolon-delimited with one logical record per line:
//
//	Scheme Code;ISIN Div Payout/Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date
//
// interleaved with header lines, blank separators, and fund-house section
// banners, none of which contain the full field set.
package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/fundwatch/internal/models"
)

const (
	// FieldCount is the number of fields in a well-formed record line.
	FieldCount = 6

	// HeaderMarker appears in the feed's column header line.
	HeaderMarker = "Scheme Code;"

	// DateFormat is the feed's DD-Mon-YYYY date layout.
	DateFormat = "02-Jan-2006"
)

// Field positions within a record line.
const (
	fieldSchemeCode = 0
	fieldSchemeName = 3
	fieldNav        = 4
	fieldDate       = 5
)

// ParseStats counts what happened to each input line during a parse.
type ParseStats struct {
	TotalLines   int
	RecordLines  int // lines containing ';'
	Parsed       int
	Dropped      int // record lines rejected by shape or typing
	Deduplicated int // within-batch (code, date) duplicates resolved
}

// Parse turns raw feed text into clean typed records. Parsing is total:
// malformed lines are dropped at record granularity and counted, never
// propagated. Within-batch duplicates on (scheme_code, date) resolve to
// the last occurrence so the upsert below sees one value per key.
func Parse(raw string) ([]models.NavRecord, ParseStats) {
	var stats ParseStats

	lines := strings.Split(strings.TrimSpace(raw), "\n")
	stats.TotalLines = len(lines)

	records := make([]models.NavRecord, 0, len(lines))
	seen := make(map[string]int, len(lines)) // nav key -> index in records

	for _, line := range lines {
		if !strings.Contains(line, ";") {
			continue // header, blank separator, or section banner
		}
		stats.RecordLines++

		record, ok := parseLine(line)
		if !ok {
			stats.Dropped++
			continue
		}

		key := models.NavKey(record.SchemeCode, record.Date)
		if i, dup := seen[key]; dup {
			records[i] = record // last occurrence wins
			stats.Deduplicated++
			continue
		}
		seen[key] = len(records)
		records = append(records, record)
	}

	stats.Parsed = len(records)
	return records, stats
}

// parseLine converts one record line, enforcing field count and typing.
func parseLine(line string) (models.NavRecord, bool) {
	fields := strings.Split(strings.TrimSpace(line), ";")
	if len(fields) != FieldCount {
		return models.NavRecord{}, false
	}

	schemeCode, err := strconv.Atoi(strings.TrimSpace(fields[fieldSchemeCode]))
	if err != nil {
		return models.NavRecord{}, false
	}

	nav, err := strconv.ParseFloat(strings.TrimSpace(fields[fieldNav]), 64)
	if err != nil || nav <= 0 {
		return models.NavRecord{}, false
	}

	date, err := time.Parse(DateFormat, strings.TrimSpace(fields[fieldDate]))
	if err != nil {
		return models.NavRecord{}, false
	}

	name := strings.TrimSpace(fields[fieldSchemeName])
	if name == "" {
		return models.NavRecord{}, false
	}

	return models.NavRecord{
		SchemeCode: schemeCode,
		SchemeName: name,
		Nav:        nav,
		Date:       date,
	}, true
}
