package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"equity-lab/internal/dto"
	"equity-lab/internal/model"
	"equity-lab/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTradeLogRepo struct {
	trades []dto.RawTrade
}

func (f *fakeTradeLogRepo) Load(context.Context, string) ([]dto.RawTrade, error) {
	return f.trades, nil
}

type memReconciliationRepo struct {
	mu      sync.Mutex
	records map[string]*model.Reconciliation
}

func newMemReconciliationRepo() *memReconciliationRepo {
	return &memReconciliationRepo{records: make(map[string]*model.Reconciliation)}
}

func (m *memReconciliationRepo) Contains(_ context.Context, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[fingerprint]
	return ok, nil
}

func (m *memReconciliationRepo) Append(_ context.Context, record *model.Reconciliation, _ ...utils.DBOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.Fingerprint]; ok {
		return nil
	}
	m.records[record.Fingerprint] = record
	return nil
}

func (m *memReconciliationRepo) List(context.Context, int) ([]model.Reconciliation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Reconciliation, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func minuteBar(symbol string, ts time.Time, low, high float64) model.Bar {
	return model.Bar{
		Symbol:    symbol,
		Timeframe: model.TimeframeMinute,
		Timestamp: ts,
		Open:      (low + high) / 2,
		High:      high,
		Low:       low,
		Close:     (low + high) / 2,
		Volume:    100,
	}
}

func newReviewServiceForTest(t *testing.T, trades []dto.RawTrade, intraday map[string]model.Series, now time.Time) (*reviewService, *memReconciliationRepo) {
	t.Helper()

	store := newMemReconciliationRepo()
	svc, err := NewReviewService(
		newTestConfig(),
		newTestLogger(),
		&fakeSeriesRepo{intraday: intraday},
		&fakeTradeLogRepo{trades: trades},
		store,
	)
	require.NoError(t, err)

	rs := svc.(*reviewService)
	rs.now = func() time.Time { return now }
	return rs, store
}

// "2024/3/15 22:00" Shanghai is 10:00 in New York that day.
const rawFill = "2024/3/15 22:00"

func TestReviewService_ImprovableBuy(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fillAt := time.Date(2024, 3, 15, 10, 0, 0, 0, ny)
	now := time.Date(2024, 3, 18, 9, 0, 0, 0, ny)

	trades := []dto.RawTrade{
		{Symbol: "AAPL", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill},
	}
	session := model.Series{
		// The fill-minute bar would be the best price, but the comparison is
		// strictly after the fill.
		minuteBar("AAPL", fillAt, 48, 50.5),
		// Corrupted tick below the 20% band.
		minuteBar("AAPL", fillAt.Add(1*time.Minute), 39.5, 50),
		minuteBar("AAPL", fillAt.Add(2*time.Minute), 49, 50.5),
		minuteBar("AAPL", fillAt.Add(5*time.Minute), 50.2, 50.8),
		minuteBar("AAPL", fillAt.Add(10*time.Minute), 48, 50.3),
		minuteBar("AAPL", fillAt.Add(20*time.Minute), 49.5, 50.1),
	}

	svc, store := newReviewServiceForTest(t, trades, map[string]model.Series{"AAPL": session}, now)
	report, err := svc.RunReview(context.Background(), dto.ReviewRequest{CSVPath: "trades.csv"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalTrades)
	assert.Equal(t, 1, report.NewRecords)
	require.Len(t, report.Outcomes, 1)

	outcome := report.Outcomes[0]
	assert.Equal(t, dto.StatusImprovable, outcome.Status)
	assert.True(t, outcome.ExecutedAt.Equal(fillAt))
	assert.InDelta(t, 48.0, outcome.BestPrice, 1e-9)
	assert.True(t, outcome.BestPriceAt.Equal(fillAt.Add(10*time.Minute)))
	assert.True(t, outcome.FirstImprovementAt.Equal(fillAt.Add(2*time.Minute)))
	assert.Equal(t, "+2m", outcome.WaitToFirst)
	assert.Equal(t, "+10m", outcome.WaitToBest)
	assert.InDelta(t, 4.0, outcome.MissedPct, 1e-9)

	records, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, string(dto.StatusImprovable), record.Status)
	assert.InDelta(t, 48.0, *record.BestPrice, 1e-9)
	assert.Equal(t, int64(120), *record.WaitToFirstSeconds)
	assert.Equal(t, int64(600), *record.WaitToBestSeconds)
	assert.InDelta(t, 4.0, record.MissedPct, 1e-9)
}

func TestReviewService_ImprovableSell(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fillAt := time.Date(2024, 3, 15, 10, 0, 0, 0, ny)
	now := time.Date(2024, 3, 18, 9, 0, 0, 0, ny)

	trades := []dto.RawTrade{
		{Symbol: "MSFT", Side: dto.SideSell, Price: 50, RawTimestamp: rawFill},
	}
	session := model.Series{
		minuteBar("MSFT", fillAt.Add(3*time.Minute), 49, 50),
		minuteBar("MSFT", fillAt.Add(7*time.Minute), 49, 52),
		minuteBar("MSFT", fillAt.Add(9*time.Minute), 49, 52),
	}

	svc, _ := newReviewServiceForTest(t, trades, map[string]model.Series{"MSFT": session}, now)
	report, err := svc.RunReview(context.Background(), dto.ReviewRequest{CSVPath: "trades.csv"})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)

	outcome := report.Outcomes[0]
	assert.Equal(t, dto.StatusImprovable, outcome.Status)
	assert.InDelta(t, 52.0, outcome.BestPrice, 1e-9)
	// Ties on the best high resolve to the earliest bar.
	assert.True(t, outcome.BestPriceAt.Equal(fillAt.Add(7*time.Minute)))
	assert.True(t, outcome.FirstImprovementAt.Equal(fillAt.Add(3*time.Minute)))
	assert.InDelta(t, 4.0, outcome.MissedPct, 1e-9)
}

func TestReviewService_StatusTagging(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fillAt := time.Date(2024, 3, 15, 10, 0, 0, 0, ny)
	now := time.Date(2024, 3, 18, 9, 0, 0, 0, ny)

	trades := []dto.RawTrade{
		{Symbol: "BADSIDE", Side: "", Price: 50, RawTimestamp: rawFill},
		{Symbol: "BADTIME", Side: dto.SideBuy, Price: 50, RawTimestamp: "not a timestamp"},
		{Symbol: "BADPRICE", Side: dto.SideBuy, Price: 0, RawTimestamp: rawFill},
		{Symbol: "OLD", Side: dto.SideBuy, Price: 50, RawTimestamp: "2024/3/1 22:00"},
		{Symbol: "NOHIST", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill},
		{Symbol: "LASTBAR", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill},
		{Symbol: "ANOM", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill},
		{Symbol: "OPT", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill},
	}
	intraday := map[string]model.Series{
		// Only the fill-minute bar: nothing strictly after it.
		"LASTBAR": {minuteBar("LASTBAR", fillAt, 49, 51)},
		// Every later bar touches the 20% band boundary, which is excluded.
		"ANOM": {
			minuteBar("ANOM", fillAt.Add(1*time.Minute), 40, 50),
			minuteBar("ANOM", fillAt.Add(2*time.Minute), 45, 60),
		},
		// No later low improves on the fill.
		"OPT": {
			minuteBar("OPT", fillAt.Add(1*time.Minute), 50.5, 51),
			minuteBar("OPT", fillAt.Add(2*time.Minute), 50.1, 51.5),
		},
	}

	svc, store := newReviewServiceForTest(t, trades, intraday, now)
	report, err := svc.RunReview(context.Background(), dto.ReviewRequest{CSVPath: "trades.csv"})
	require.NoError(t, err)

	assert.Equal(t, 8, report.TotalTrades)
	assert.Equal(t, map[dto.ReviewStatus]int{
		dto.StatusUnparseable:      3,
		dto.StatusBeforeCutoff:     1,
		dto.StatusNoHistoryData:    1,
		dto.StatusNoSubsequentData: 1,
		dto.StatusDataAnomaly:      1,
		dto.StatusOptimalExecution: 1,
	}, report.StatusCounts)

	// Only trades that reached the analysis step are persisted.
	assert.Equal(t, 4, report.NewRecords)
	records, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestReviewService_Idempotence(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fillAt := time.Date(2024, 3, 15, 10, 0, 0, 0, ny)
	now := time.Date(2024, 3, 18, 9, 0, 0, 0, ny)

	trades := []dto.RawTrade{
		{Symbol: "AAPL", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill},
	}
	session := model.Series{
		minuteBar("AAPL", fillAt.Add(2*time.Minute), 49, 50.5),
	}

	svc, store := newReviewServiceForTest(t, trades, map[string]model.Series{"AAPL": session}, now)

	first, err := svc.RunReview(context.Background(), dto.ReviewRequest{CSVPath: "trades.csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.NewRecords)

	second, err := svc.RunReview(context.Background(), dto.ReviewRequest{CSVPath: "trades.csv"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewRecords)
	assert.Equal(t, 1, second.StatusCounts[dto.StatusDuplicate])
	assert.Empty(t, second.Outcomes)

	records, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReviewService_DuplicateWithinBatch(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fillAt := time.Date(2024, 3, 15, 10, 0, 0, 0, ny)
	now := time.Date(2024, 3, 18, 9, 0, 0, 0, ny)

	same := dto.RawTrade{Symbol: "AAPL", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill}
	session := model.Series{
		minuteBar("AAPL", fillAt.Add(2*time.Minute), 49, 50.5),
	}

	svc, store := newReviewServiceForTest(t, []dto.RawTrade{same, same}, map[string]model.Series{"AAPL": session}, now)
	report, err := svc.RunReview(context.Background(), dto.ReviewRequest{CSVPath: "trades.csv"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.NewRecords)
	assert.Equal(t, 1, report.StatusCounts[dto.StatusDuplicate])

	records, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReviewService_SameFillDifferentTimestamps(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fillAt := time.Date(2024, 3, 15, 10, 0, 0, 0, ny)
	now := time.Date(2024, 3, 18, 9, 0, 0, 0, ny)

	// Two fills a minute apart with identical symbol, side and price are two
	// distinct trades, not duplicates.
	trades := []dto.RawTrade{
		{Symbol: "AAPL", Side: dto.SideBuy, Price: 50, RawTimestamp: "2024/3/15 22:00"},
		{Symbol: "AAPL", Side: dto.SideBuy, Price: 50, RawTimestamp: "2024/3/15 22:01"},
	}
	session := model.Series{
		minuteBar("AAPL", fillAt.Add(5*time.Minute), 49, 50.5),
	}

	svc, store := newReviewServiceForTest(t, trades, map[string]model.Series{"AAPL": session}, now)
	report, err := svc.RunReview(context.Background(), dto.ReviewRequest{CSVPath: "trades.csv"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.NewRecords)
	assert.Zero(t, report.StatusCounts[dto.StatusDuplicate])

	records, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReviewService_OutcomesSortedByMissedPct(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fillAt := time.Date(2024, 3, 15, 10, 0, 0, 0, ny)
	now := time.Date(2024, 3, 18, 9, 0, 0, 0, ny)

	trades := []dto.RawTrade{
		{Symbol: "SMALL", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill},
		{Symbol: "BIG", Side: dto.SideBuy, Price: 50, RawTimestamp: rawFill},
	}
	intraday := map[string]model.Series{
		"SMALL": {minuteBar("SMALL", fillAt.Add(1*time.Minute), 49.5, 50.5)}, // missed 1%
		"BIG":   {minuteBar("BIG", fillAt.Add(1*time.Minute), 45, 50.5)},     // missed 10%
	}

	svc, _ := newReviewServiceForTest(t, trades, intraday, now)
	report, err := svc.RunReview(context.Background(), dto.ReviewRequest{CSVPath: "trades.csv"})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "BIG", report.Outcomes[0].Symbol)
	assert.Equal(t, "SMALL", report.Outcomes[1].Symbol)
}
