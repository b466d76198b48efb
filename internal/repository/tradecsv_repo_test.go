package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"equity-lab/internal/dto"
	"equity-lab/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestTradeCSVRepository_Load(t *testing.T) {
	path := writeCSV(t, "Time,Symbol,Side,Price,Fee\n"+
		"2024/3/15 22:00,aapl,B,50.5,1\n"+
		"2024/3/15 22:05,msft,sell,100,1\n"+
		"2024/3/15 22:10,tsla,X,abc,1\n")

	repo := NewTradeCSVRepository(newTestLogger())
	trades, err := repo.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, trades, 3)

	assert.Equal(t, dto.RawTrade{Symbol: "AAPL", Side: dto.SideBuy, Price: 50.5, RawTimestamp: "2024/3/15 22:00"}, trades[0])
	assert.Equal(t, dto.RawTrade{Symbol: "MSFT", Side: dto.SideSell, Price: 100, RawTimestamp: "2024/3/15 22:05"}, trades[1])

	// Malformed rows are kept with zero values so the review can tag them.
	assert.Equal(t, dto.RawTrade{Symbol: "TSLA", Side: "", Price: 0, RawTimestamp: "2024/3/15 22:10"}, trades[2])
}

func TestTradeCSVRepository_RaggedRowsKeptForTagging(t *testing.T) {
	// The middle row is missing its price field entirely; it must come back as
	// a zero-value trade for status tagging, without breaking the batch.
	path := writeCSV(t, "Time,Symbol,Side,Price\n"+
		"2024/3/15 22:00,AAPL,B,50.5\n"+
		"2024/3/15 22:05,MSFT,S\n"+
		"2024/3/15 22:10,TSLA,B,120\n")

	repo := NewTradeCSVRepository(newTestLogger())
	trades, err := repo.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, trades, 3)

	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.Equal(t, dto.RawTrade{}, trades[1])
	assert.Equal(t, "TSLA", trades[2].Symbol)
	assert.InDelta(t, 120.0, trades[2].Price, 1e-9)
}

func TestTradeCSVRepository_HeaderIsCaseInsensitive(t *testing.T) {
	path := writeCSV(t, "TIME,symbol,SIDE,price\n2024/3/15 22:00,AAPL,BUY,50\n")

	repo := NewTradeCSVRepository(newTestLogger())
	trades, err := repo.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, dto.SideBuy, trades[0].Side)
}

func TestTradeCSVRepository_MissingColumn(t *testing.T) {
	path := writeCSV(t, "Time,Symbol,Price\n2024/3/15 22:00,AAPL,50\n")

	repo := NewTradeCSVRepository(newTestLogger())
	_, err := repo.Load(context.Background(), path)
	assert.ErrorContains(t, err, "side")
}

func TestTradeCSVRepository_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "Time,Symbol,Side,Price\n")

	repo := NewTradeCSVRepository(newTestLogger())
	trades, err := repo.Load(context.Background(), path)
	assert.NoError(t, err)
	assert.Empty(t, trades)
}

func TestTradeCSVRepository_MissingFile(t *testing.T) {
	repo := NewTradeCSVRepository(newTestLogger())
	_, err := repo.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
