package reconstruction

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/marketdata"
)

const dateLayout = "2006-01-02"

// Reconstructor replays a user's transaction log day by day against a
// price table to rebuild their portfolio value history.
type Reconstructor struct {
	log zerolog.Logger
}

// New creates a new portfolio reconstructor
func New(log zerolog.Logger) *Reconstructor {
	return &Reconstructor{
		log: log.With().Str("component", "reconstructor").Logger(),
	}
}

// Reconstruct replays transactions in ascending date order and values
// the portfolio once per calendar day from the first transaction date to
// the end of the price table. Transactions that cannot be afforded or
// covered are skipped without error. ctx is checked once per simulated
// day.
func (r *Reconstructor) Reconstruct(
	ctx context.Context,
	transactions []domain.Transaction,
	prices *marketdata.PriceTable,
	initialCapital float64,
) (*domain.PortfolioHistory, error) {
	if len(transactions) == 0 {
		return emptyHistory(initialCapital), nil
	}

	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	startDate, err := time.Parse(dateLayout, sorted[0].Date)
	if err != nil {
		r.log.Warn().Err(err).Str("date", sorted[0].Date).Msg("Unparseable first transaction date")
		return emptyHistory(initialCapital), nil
	}

	endDate := r.endDate(sorted, prices)

	state := domain.NewPortfolioState(initialCapital)
	history := &domain.PortfolioHistory{}

	byDate := make(map[string][]domain.Transaction)
	for _, tx := range sorted {
		byDate[tx.Date] = append(byDate[tx.Date], tx)
	}

	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		date := day.Format(dateLayout)

		for _, tx := range byDate[date] {
			r.applyTransaction(state, tx, prices)
		}

		value := r.portfolioValue(state, prices, date)
		history.Append(date, value, state.SnapshotHoldings())
	}

	return history, nil
}

// applyTransaction mutates state for one buy or sell. Insufficient cash
// or holdings make the transaction a silent no-op.
func (r *Reconstructor) applyTransaction(
	state *domain.PortfolioState,
	tx domain.Transaction,
	prices *marketdata.PriceTable,
) {
	price := tx.Price
	if price == 0 {
		// Fall back to the market close when no execution price was recorded
		if market, ok := prices.Price(tx.Symbol, tx.Date); ok {
			price = market
		}
	}

	switch tx.Action {
	case domain.ActionBuy:
		cost := tx.Quantity * price
		if state.Cash >= cost {
			state.Cash -= cost
			state.Holdings[tx.Symbol] += tx.Quantity
		}

	case domain.ActionSell:
		if state.Holdings[tx.Symbol] >= tx.Quantity {
			state.Holdings[tx.Symbol] -= tx.Quantity
			state.Cash += tx.Quantity * price

			if state.Holdings[tx.Symbol] == 0 {
				delete(state.Holdings, tx.Symbol)
			}
		}
	}
}

// portfolioValue values cash plus holdings at the date's close. A symbol
// with no price on the date contributes nothing.
func (r *Reconstructor) portfolioValue(
	state *domain.PortfolioState,
	prices *marketdata.PriceTable,
	date string,
) float64 {
	total := state.Cash
	for symbol, quantity := range state.Holdings {
		if price, ok := prices.Price(symbol, date); ok {
			total += quantity * price
		}
	}
	return total
}

// endDate is the later of the last transaction date and the last priced
// date, so the history covers both market data and trailing trades.
func (r *Reconstructor) endDate(sorted []domain.Transaction, prices *marketdata.PriceTable) time.Time {
	end, err := time.Parse(dateLayout, sorted[len(sorted)-1].Date)
	if err != nil {
		end = time.Now()
	}

	if dates := prices.Dates(); len(dates) > 0 {
		if last, err := time.Parse(dateLayout, dates[len(dates)-1]); err == nil && last.After(end) {
			end = last
		}
	}

	return end
}

func emptyHistory(initialCapital float64) *domain.PortfolioHistory {
	history := &domain.PortfolioHistory{}
	history.Append(time.Now().Format(dateLayout), initialCapital, map[string]float64{})
	return history
}
