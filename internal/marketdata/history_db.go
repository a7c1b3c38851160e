package marketdata

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

// HistoryDB provides read-only access to the per-symbol price history
// databases maintained by the market-data collaborator.
type HistoryDB struct {
	historyDir string
	log        zerolog.Logger
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(historyDir string, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		historyDir: historyDir,
		log:        log.With().Str("component", "history_db").Logger(),
	}
}

// DailyPrice represents a daily close price point
type DailyPrice struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// GetDailyCloses fetches up to limit daily closes for a symbol, in
// ascending date order.
func (h *HistoryDB) GetDailyCloses(symbol string, limit int) ([]DailyPrice, error) {
	db, err := h.openHistoryDB(symbol)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT date, close_price AS close
		FROM daily_prices
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	// Rows come newest-first; flip to ascending
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}

	return prices, nil
}

// LoadPriceTable builds a PriceTable for the given symbols. Symbols with
// a missing or unreadable history database are logged and skipped rather
// than failing the whole table.
func (h *HistoryDB) LoadPriceTable(symbols []string, limit int) *PriceTable {
	table := NewPriceTable()

	for _, symbol := range symbols {
		prices, err := h.GetDailyCloses(symbol, limit)
		if err != nil {
			h.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol without history")
			continue
		}

		series := make(map[string]float64, len(prices))
		for _, p := range prices {
			series[p.Date] = p.Close
		}
		table.AddSeries(symbol, series)
	}

	return table
}

// openHistoryDB opens the per-symbol database in read-only mode
func (h *HistoryDB) openHistoryDB(symbol string) (*sql.DB, error) {
	// Symbols like BRK.B map to file names with underscores
	safe := strings.NewReplacer("/", "_", ".", "_", ":", "_").Replace(symbol)
	dbPath := filepath.Join(h.historyDir, safe+".db")

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db for %s: %w", symbol, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history db unavailable for %s: %w", symbol, err)
	}

	return db, nil
}
