package service

import (
	"sort"
	"time"

	"equity-lab/internal/dto"
)

// Position is one open long position. Exactly one position per symbol can be
// open at a time, the simulator never scales in.
type Position struct {
	Symbol     string
	Quantity   float64
	EntryPrice float64
	EntryTime  time.Time
	StopPrice  float64
	MaxReturn  float64
	LastMark   float64
	BarsHeld   int
}

// UnrealizedReturn is the position's return at its last mark price.
func (p *Position) UnrealizedReturn() float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (p.LastMark - p.EntryPrice) / p.EntryPrice
}

// Portfolio owns all mutable simulation state: cash, open positions, the trade
// log and the equity curve. It is created once per run and mutated exclusively
// by the simulator's step function; the cash invariant (cash never below zero)
// holds by construction because orders are clamped to available cash.
type Portfolio struct {
	cash        float64
	positions   map[string]*Position
	trades      []dto.TradeLogEntry
	equityCurve []dto.EquitySnapshot
}

func NewPortfolio(initialCapital float64) *Portfolio {
	return &Portfolio{
		cash:      initialCapital,
		positions: make(map[string]*Position),
	}
}

func (p *Portfolio) Cash() float64 {
	return p.cash
}

func (p *Portfolio) Position(symbol string) (*Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// OpenSymbols returns the symbols with an open position in deterministic order.
func (p *Portfolio) OpenSymbols() []string {
	symbols := make([]string, 0, len(p.positions))
	for symbol := range p.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Equity is cash plus every position valued at its last mark.
func (p *Portfolio) Equity() float64 {
	total := p.cash
	for _, pos := range p.positions {
		total += pos.Quantity * pos.LastMark
	}
	return total
}

// Open debits cash and creates the position. The caller must have clamped cost
// to available cash already; quantities are fractional.
func (p *Portfolio) Open(ts time.Time, symbol string, quantity, price, stopPrice float64) {
	p.cash -= quantity * price
	p.positions[symbol] = &Position{
		Symbol:     symbol,
		Quantity:   quantity,
		EntryPrice: price,
		EntryTime:  ts,
		StopPrice:  stopPrice,
		LastMark:   price,
	}
	p.trades = append(p.trades, dto.TradeLogEntry{
		Timestamp: ts,
		Symbol:    symbol,
		Action:    dto.ActionBuy,
		Price:     price,
		Quantity:  quantity,
		Reason:    dto.ReasonSignalEntry,
	})
}

// Close credits cash at the given price, destroys the position and records the
// realized return.
func (p *Portfolio) Close(ts time.Time, symbol string, price float64, reason dto.TradeReason) {
	pos, ok := p.positions[symbol]
	if !ok {
		return
	}
	p.cash += pos.Quantity * price
	realized := (price - pos.EntryPrice) / pos.EntryPrice
	p.trades = append(p.trades, dto.TradeLogEntry{
		Timestamp:      ts,
		Symbol:         symbol,
		Action:         dto.ActionSell,
		Price:          price,
		Quantity:       pos.Quantity,
		Reason:         reason,
		RealizedReturn: realized,
	})
	delete(p.positions, symbol)
}

// Snapshot appends one equity curve point for the current timestep.
func (p *Portfolio) Snapshot(ts time.Time) {
	p.equityCurve = append(p.equityCurve, dto.EquitySnapshot{
		Timestamp:   ts,
		TotalEquity: p.Equity(),
	})
}

// Trades exposes the trade log read-only; the slice must not be mutated.
func (p *Portfolio) Trades() []dto.TradeLogEntry {
	return p.trades
}

// EquityCurve exposes the equity curve read-only; the slice must not be mutated.
func (p *Portfolio) EquityCurve() []dto.EquitySnapshot {
	return p.equityCurve
}
