// Package models defines data structures for Fundwatch
package models

import (
	"fmt"
	"time"
)

// FundMetadata identifies a mutual fund scheme. One row per scheme code;
// ingestion upserts by key so funds absent from a day's feed keep their
// last known name.
type FundMetadata struct {
	SchemeCode int       `json:"scheme_code" badgerhold:"key"`
	SchemeName string    `json:"scheme_name"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NavObservation is one fund's published NAV for one calendar day.
// (SchemeCode, Date) is the uniqueness invariant: ingesting the same pair
// again overwrites the NAV, never duplicates it.
type NavObservation struct {
	SchemeCode int       `json:"scheme_code" badgerhold:"index"`
	Date       time.Time `json:"date"`
	Nav        float64   `json:"nav"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key returns the storage key enforcing one NAV per fund per day.
func (o *NavObservation) Key() string {
	return NavKey(o.SchemeCode, o.Date)
}

// NavKey builds the composite (scheme_code, date) storage key.
func NavKey(schemeCode int, date time.Time) string {
	return fmt.Sprintf("%d:%s", schemeCode, date.Format("2006-01-02"))
}

// NavRecord is a parsed raw-feed row before persistence.
type NavRecord struct {
	SchemeCode int
	SchemeName string
	Nav        float64
	Date       time.Time
}

// NavSeries is a fund's NAV history ordered ascending by date,
// deduplicated by day. Derived, never persisted.
type NavSeries []NavObservation

// Latest returns the most recent observation, or false for an empty series.
func (s NavSeries) Latest() (NavObservation, bool) {
	if len(s) == 0 {
		return NavObservation{}, false
	}
	return s[len(s)-1], true
}

// At locates the latest observation dated on or before cutoff.
func (s NavSeries) At(cutoff time.Time) (NavObservation, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].Date.After(cutoff) {
			return s[i], true
		}
	}
	return NavObservation{}, false
}

// DailyReturns computes day-over-day percentage changes between
// consecutive observations. Returns nil with fewer than 2 observations.
func (s NavSeries) DailyReturns() []float64 {
	if len(s) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Nav
		if prev == 0 {
			continue
		}
		returns = append(returns, s[i].Nav/prev-1)
	}
	return returns
}
