package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"equity-lab/internal/dto"
	"equity-lab/pkg/logger"
)

// TradeLogRepository reads the broker's trade export. The sequence is never
// mutated, malformed rows are surfaced with Side left empty so the review
// pipeline can tag them instead of dropping them silently.
type TradeLogRepository interface {
	Load(ctx context.Context, path string) ([]dto.RawTrade, error)
}

type tradeCSVRepository struct {
	log *logger.Logger
}

func NewTradeCSVRepository(log *logger.Logger) TradeLogRepository {
	return &tradeCSVRepository{log: log}
}

// Expected header columns (case-insensitive): time, symbol, side, price.
func (r *tradeCSVRepository) Load(ctx context.Context, path string) ([]dto.RawTrade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log '%s': %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	// Broker exports occasionally carry ragged rows; a bad row must become a
	// taggable trade, not kill the batch.
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse trade log '%s': %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	idx := map[string]int{}
	maxIdx := 0
	for i, col := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"time", "symbol", "side", "price"} {
		col, ok := idx[required]
		if !ok {
			return nil, fmt.Errorf("trade log '%s' is missing column '%s'", path, required)
		}
		if col > maxIdx {
			maxIdx = col
		}
	}

	trades := make([]dto.RawTrade, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) <= maxIdx {
			r.log.WarnContext(ctx, "Short trade row, row kept for status tagging",
				logger.IntField("row", n+2),
				logger.IntField("fields", len(row)),
			)
			trades = append(trades, dto.RawTrade{})
			continue
		}

		trade := dto.RawTrade{
			Symbol:       strings.ToUpper(strings.TrimSpace(row[idx["symbol"]])),
			RawTimestamp: strings.TrimSpace(row[idx["time"]]),
		}

		side := strings.ToUpper(strings.TrimSpace(row[idx["side"]]))
		switch side {
		case "B", "BUY":
			trade.Side = dto.SideBuy
		case "S", "SELL":
			trade.Side = dto.SideSell
		default:
			r.log.WarnContext(ctx, "Unknown trade side, row kept for status tagging",
				logger.IntField("row", n+2),
				logger.StringField("side", side),
			)
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(row[idx["price"]]), 64)
		if err == nil {
			trade.Price = price
		} else {
			r.log.WarnContext(ctx, "Non-numeric trade price, row kept for status tagging",
				logger.IntField("row", n+2),
				logger.StringField("price", row[idx["price"]]),
			)
		}

		trades = append(trades, trade)
	}

	return trades, nil
}
