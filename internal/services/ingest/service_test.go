package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/storage"
)

const goodFeed = "Scheme Code;ISIN Div Payout/ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date\n" +
	"Open Ended Schemes(Debt Scheme - Banking and PSU Fund)\n" +
	"100027;INF209K01BR9;-;Grindlays Super Saver Income Fund-Growth;10.0512;02-Jan-2024\n" +
	"100033;INF209K01CH8;INF209K01CI6;Aditya Birla Sun Life Income Fund;101.3245;02-Jan-2024\n" +
	"100037;INF209K01CM8;-;Aditya Birla Sun Life Liquid Fund;370.1181;02-Jan-2024\n"

const malformedFeed = "this is an html error page\n" +
	"<html><body>service unavailable</body></html>\n" +
	"still;not;a;nav;feed\n" +
	"broken;also;not;close;enough;here\n"

type fakeAMFIClient struct {
	feed    string
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeAMFIClient) FetchNavFeed(ctx context.Context) (string, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.feed, f.err
}

func newTestService(t *testing.T, client *fakeAMFIClient) (*Service, *storage.Manager) {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Storage.Path = t.TempDir()
	config.Storage.LandingPath = ""
	config.Ingest.ArchiveRetainDays = 30

	logger := common.NewSilentLogger()
	manager, err := storage.NewManager(config, logger)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return NewService(manager, client, config, logger), manager
}

func TestRunBatch_Success(t *testing.T) {
	svc, manager := newTestService(t, &fakeAMFIClient{feed: goodFeed})
	ctx := context.Background()

	report, err := svc.RunBatch(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, 3, report.ParsedRecords)
	assert.Equal(t, 3, report.Upserts)
	assert.Equal(t, 3, report.Funds)
	assert.Equal(t, len(goodFeed), report.FetchedBytes)
	assert.Empty(t, report.Error)
	assert.InDelta(t, 1.0, report.Conformity, 0.001)

	count, err := manager.FundStore().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	history, err := manager.NavStore().GetHistory(ctx, 100027)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 10.0512, history[0].Nav)
}

func TestRunBatch_ArchivesRawFeed(t *testing.T) {
	svc, manager := newTestService(t, &fakeAMFIClient{feed: goodFeed})

	report, err := svc.RunBatch(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.ArchiveKey)

	archived, err := os.ReadFile(filepath.Join(manager.DataPath(), "landing", "feeds", report.ArchiveKey))
	require.NoError(t, err)
	assert.Equal(t, goodFeed, string(archived))
}

func TestRunBatch_ValidationFailure(t *testing.T) {
	svc, manager := newTestService(t, &fakeAMFIClient{feed: malformedFeed})
	ctx := context.Background()

	report, err := svc.RunBatch(ctx)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "failed", report.Status)
	assert.NotEmpty(t, report.Error)

	// Nothing reached the store
	count, cErr := manager.FundStore().Count(ctx)
	require.NoError(t, cErr)
	assert.Zero(t, count)

	// The bad payload is still archived for inspection
	assert.NotEmpty(t, report.ArchiveKey)
}

func TestRunBatch_FetchFailure(t *testing.T) {
	svc, _ := newTestService(t, &fakeAMFIClient{err: context.DeadlineExceeded})

	report, err := svc.RunBatch(context.Background())
	require.Error(t, err)
	assert.Equal(t, "failed", report.Status)
	assert.Empty(t, report.ArchiveKey)
}

func TestRunBatch_ReingestIsIdempotent(t *testing.T) {
	svc, manager := newTestService(t, &fakeAMFIClient{feed: goodFeed})
	ctx := context.Background()

	_, err := svc.RunBatch(ctx)
	require.NoError(t, err)
	_, err = svc.RunBatch(ctx)
	require.NoError(t, err)

	history, err := manager.NavStore().GetHistory(ctx, 100027)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRunBatch_SingleFlight(t *testing.T) {
	client := &fakeAMFIClient{
		feed:    goodFeed,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, _ := newTestService(t, client)

	done := make(chan error, 1)
	go func() {
		_, err := svc.RunBatch(context.Background())
		done <- err
	}()

	<-client.started
	_, err := svc.RunBatch(context.Background())
	assert.ErrorIs(t, err, ErrIngestRunning)

	close(client.release)
	require.NoError(t, <-done)

	// Once the first batch finishes the slot is free again
	client.started = nil
	client.release = nil
	_, err = svc.RunBatch(context.Background())
	require.NoError(t, err)
}

func TestLastReport_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t, &fakeAMFIClient{feed: goodFeed})
	ctx := context.Background()

	before, err := svc.LastReport(ctx)
	require.NoError(t, err)
	assert.Nil(t, before)

	ran, err := svc.RunBatch(ctx)
	require.NoError(t, err)

	after, err := svc.LastReport(ctx)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, "ok", after.Status)
	assert.Equal(t, ran.Upserts, after.Upserts)
}
