package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Storage.Path = t.TempDir()
	config.Storage.LandingPath = ""

	m, err := NewManager(config, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUpsertBatch_StoresFundsAndHistory(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	records := []models.NavRecord{
		{SchemeCode: 100027, SchemeName: "Grindlays Super Saver", Nav: 10.05, Date: day("2024-01-02")},
		{SchemeCode: 100027, SchemeName: "Grindlays Super Saver", Nav: 10.11, Date: day("2024-01-03")},
		{SchemeCode: 100033, SchemeName: "Aditya Birla Income Plus", Nav: 101.32, Date: day("2024-01-03")},
	}

	upserts, err := m.NavStore().UpsertBatch(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 3, upserts)

	count, err := m.FundStore().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	history, err := m.NavStore().GetHistory(ctx, 100027)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, day("2024-01-02"), history[0].Date)
	assert.Equal(t, day("2024-01-03"), history[1].Date)
	assert.Equal(t, 10.05, history[0].Nav)
}

func TestUpsertBatch_ReingestIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	records := []models.NavRecord{
		{SchemeCode: 100027, SchemeName: "Grindlays Super Saver", Nav: 10.05, Date: day("2024-01-02")},
	}

	_, err := m.NavStore().UpsertBatch(ctx, records)
	require.NoError(t, err)
	_, err = m.NavStore().UpsertBatch(ctx, records)
	require.NoError(t, err)

	history, err := m.NavStore().GetHistory(ctx, 100027)
	require.NoError(t, err)
	assert.Len(t, history, 1, "re-ingesting the same batch must not grow history")

	count, err := m.FundStore().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertBatch_ConflictOverwritesNav(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.NavStore().UpsertBatch(ctx, []models.NavRecord{
		{SchemeCode: 100027, SchemeName: "Grindlays Super Saver", Nav: 10.05, Date: day("2024-01-02")},
	})
	require.NoError(t, err)

	_, err = m.NavStore().UpsertBatch(ctx, []models.NavRecord{
		{SchemeCode: 100027, SchemeName: "Grindlays Super Saver", Nav: 10.50, Date: day("2024-01-02")},
	})
	require.NoError(t, err)

	history, err := m.NavStore().GetHistory(ctx, 100027)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 10.50, history[0].Nav)
}

func TestUpsertBatch_MetadataUpsertPreservesAbsentFunds(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.NavStore().UpsertBatch(ctx, []models.NavRecord{
		{SchemeCode: 100027, SchemeName: "Grindlays Super Saver", Nav: 10.05, Date: day("2024-01-02")},
		{SchemeCode: 100033, SchemeName: "Aditya Birla Income Plus", Nav: 101.32, Date: day("2024-01-02")},
	})
	require.NoError(t, err)

	// Next day's feed only carries one of the two funds.
	_, err = m.NavStore().UpsertBatch(ctx, []models.NavRecord{
		{SchemeCode: 100027, SchemeName: "Grindlays Super Saver - Renamed", Nav: 10.11, Date: day("2024-01-03")},
	})
	require.NoError(t, err)

	count, err := m.FundStore().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "funds absent from a batch must survive")

	renamed, err := m.FundStore().Get(ctx, 100027)
	require.NoError(t, err)
	assert.Equal(t, "Grindlays Super Saver - Renamed", renamed.SchemeName)

	untouched, err := m.FundStore().Get(ctx, 100033)
	require.NoError(t, err)
	assert.Equal(t, "Aditya Birla Income Plus", untouched.SchemeName)
}

func TestGetHistory_UnknownCodeReturnsEmpty(t *testing.T) {
	m := newTestManager(t)

	history, err := m.NavStore().GetHistory(context.Background(), 999999)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestFundStore_ListSortedByCode(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.NavStore().UpsertBatch(ctx, []models.NavRecord{
		{SchemeCode: 100033, SchemeName: "B Fund", Nav: 1, Date: day("2024-01-02")},
		{SchemeCode: 100027, SchemeName: "A Fund", Nav: 1, Date: day("2024-01-02")},
	})
	require.NoError(t, err)

	funds, err := m.FundStore().List(ctx)
	require.NoError(t, err)
	require.Len(t, funds, 2)
	assert.Equal(t, 100027, funds[0].SchemeCode)
	assert.Equal(t, 100033, funds[1].SchemeCode)
}

func TestKeyValueStorage_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.KeyValueStorage().Set(ctx, "last_ingest_report", `{"status":"ok"}`))

	value, err := m.KeyValueStorage().Get(ctx, "last_ingest_report")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, value)

	require.NoError(t, m.KeyValueStorage().Delete(ctx, "last_ingest_report"))
	_, err = m.KeyValueStorage().Get(ctx, "last_ingest_report")
	assert.Error(t, err)
}

func TestWriteRaw_AtomicAndReadable(t *testing.T) {
	m := newTestManager(t)

	payload := []byte("Scheme Code;ISIN Div Payout/ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date\n")
	require.NoError(t, m.WriteRaw("feeds", "amfi_nav_all_2024-01-02.txt", payload))

	written, err := os.ReadFile(filepath.Join(m.landingPath, "feeds", "amfi_nav_all_2024-01-02.txt"))
	require.NoError(t, err)
	assert.Equal(t, payload, written)

	// No stray temp files left behind
	entries, err := os.ReadDir(filepath.Join(m.landingPath, "feeds"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteRaw_RejectsPathTraversal(t *testing.T) {
	m := newTestManager(t)

	assert.Error(t, m.WriteRaw("feeds", "../escape.txt", []byte("x")))
	assert.Error(t, m.WriteRaw("feeds", "sub/dir.txt", []byte("x")))
	assert.Error(t, m.WriteRaw("../feeds", "ok.txt", []byte("x")))
	assert.Error(t, m.WriteRaw("feeds", "", []byte("x")))
}

func TestPruneRaw_RemovesOnlyExpiredFiles(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.WriteRaw("feeds", "old.txt", []byte("old")))
	require.NoError(t, m.WriteRaw("feeds", "fresh.txt", []byte("fresh")))

	oldPath := filepath.Join(m.landingPath, "feeds", "old.txt")
	expired := time.Now().AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(oldPath, expired, expired))

	removed, err := m.PruneRaw("feeds", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(m.landingPath, "feeds", "fresh.txt"))
	assert.NoError(t, err)
}

func TestPruneRaw_MissingSubdirIsNoop(t *testing.T) {
	m := newTestManager(t)

	removed, err := m.PruneRaw("nothing-here", 30)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
