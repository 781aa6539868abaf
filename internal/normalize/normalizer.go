package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/pkg/logger"
)

// ErrMalformedRecord a row failed canonical validation.
var ErrMalformedRecord = errors.New("malformed record")

// RowError ties a malformed-record error to its source row number
// (1-based, header excluded).
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e RowError) Unwrap() error { return e.Err }

// Normalizer converts raw broker CSV into canonical records using a
// column-mapping profile. The core calculators never see raw CSV; this
// is the only place broker formats are understood.
type Normalizer struct {
	profile *Profile
	logger  *logger.Logger
}

// New creates a Normalizer. A nil profile selects the generic layout.
func New(profile *Profile, log *logger.Logger) *Normalizer {
	if profile == nil {
		profile = DefaultProfile()
	}
	return &Normalizer{profile: profile, logger: log}
}

// Trades parses a trade export. In lenient mode malformed rows are
// returned as RowErrors alongside the valid trades; in strict mode the
// first malformed row fails the whole parse.
func (n *Normalizer) Trades(r io.Reader) ([]model.Trade, []RowError, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, nil, err
	}

	cols := headerIndex(header)
	var trades []model.Trade
	var rowErrs []RowError

	for i, row := range rows {
		t, err := n.parseTrade(cols, row)
		if err != nil {
			rowErr := RowError{Row: i + 1, Err: err}
			if n.profile.Strict {
				return nil, nil, rowErr
			}
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		trades = append(trades, t)
	}

	if n.logger != nil && len(rowErrs) > 0 {
		n.logger.WithFields(map[string]interface{}{
			"profile":  n.profile.Name,
			"rejected": len(rowErrs),
			"accepted": len(trades),
		}).Warn("Rejected malformed trade rows")
	}

	return trades, rowErrs, nil
}

// DailyLog parses a daily log export.
func (n *Normalizer) DailyLog(r io.Reader) (*model.DailyLog, []RowError, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, nil, err
	}

	cols := headerIndex(header)
	var entries []model.DailyLogEntry
	var rowErrs []RowError

	for i, row := range rows {
		e, err := n.parseDailyLogEntry(cols, row)
		if err != nil {
			rowErr := RowError{Row: i + 1, Err: err}
			if n.profile.Strict {
				return nil, nil, rowErr
			}
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		entries = append(entries, e)
	}

	return model.NewDailyLog(entries), rowErrs, nil
}

func (n *Normalizer) parseTrade(cols map[string]int, row []string) (model.Trade, error) {
	get := func(col string) string {
		if col == "" {
			return ""
		}
		idx, ok := cols[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	m := n.profile.Trade
	var t model.Trade
	var err error

	t.DateOpened, err = time.Parse(n.profile.DateFormat, get(m.DateOpened))
	if err != nil {
		return t, fmt.Errorf("%w: date_opened: %v", ErrMalformedRecord, err)
	}
	if raw := get(m.DateClosed); raw != "" {
		t.DateClosed, err = time.Parse(n.profile.DateFormat, raw)
		if err != nil {
			return t, fmt.Errorf("%w: date_closed: %v", ErrMalformedRecord, err)
		}
	}
	if t.IsClosed() && t.DateClosed.Before(t.DateOpened) {
		return t, fmt.Errorf("%w: date_closed before date_opened", ErrMalformedRecord)
	}

	t.TimeOpened, err = n.parseClock(get(m.TimeOpened))
	if err != nil {
		return t, fmt.Errorf("%w: time_opened: %v", ErrMalformedRecord, err)
	}
	t.TimeClosed, err = n.parseClock(get(m.TimeClosed))
	if err != nil {
		return t, fmt.Errorf("%w: time_closed: %v", ErrMalformedRecord, err)
	}
	t.Legs = get(m.Legs)
	t.Strategy = get(m.Strategy)

	t.PL, err = parseMoney(get(m.PL))
	if err != nil {
		return t, fmt.Errorf("%w: pl: %v", ErrMalformedRecord, err)
	}

	// Optional numeric columns: absent or blank is fine, garbage is not.
	for _, f := range []struct {
		col string
		dst *float64
	}{
		{m.Premium, &t.Premium},
		{m.FundsAtClose, &t.FundsAtClose},
		{m.MarginReq, &t.MarginReq},
		{m.Commissions, &t.Commissions},
		{m.OpeningVIX, &t.OpeningVIX},
		{m.ClosingVIX, &t.ClosingVIX},
		{m.MaxProfit, &t.MaxProfit},
		{m.MaxLoss, &t.MaxLoss},
	} {
		raw := get(f.col)
		if raw == "" {
			continue
		}
		v, err := parseMoney(raw)
		if err != nil {
			return t, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, f.col, err)
		}
		*f.dst = v
	}

	if raw := get(m.Contracts); raw != "" {
		t.Contracts, err = strconv.Atoi(raw)
		if err != nil {
			return t, fmt.Errorf("%w: contracts: %v", ErrMalformedRecord, err)
		}
	}

	return t, nil
}

// parseClock validates a clock column against the profile's time format.
// The raw string is kept on the record; downstream views parse the hour
// out of it lazily.
func (n *Normalizer) parseClock(raw string) (string, error) {
	if raw == "" || n.profile.TimeFormat == "" {
		return raw, nil
	}
	if _, err := time.Parse(n.profile.TimeFormat, raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (n *Normalizer) parseDailyLogEntry(cols map[string]int, row []string) (model.DailyLogEntry, error) {
	get := func(col string) string {
		if col == "" {
			return ""
		}
		idx, ok := cols[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	m := n.profile.DailyLog
	var e model.DailyLogEntry
	var err error

	e.Date, err = time.Parse(n.profile.DateFormat, get(m.Date))
	if err != nil {
		return e, fmt.Errorf("%w: date: %v", ErrMalformedRecord, err)
	}
	e.NetLiquidity, err = parseMoney(get(m.NetLiquidity))
	if err != nil {
		return e, fmt.Errorf("%w: net_liquidity: %v", ErrMalformedRecord, err)
	}

	for _, f := range []struct {
		col string
		dst *float64
	}{
		{m.TradingFunds, &e.TradingFunds},
		{m.DailyPL, &e.DailyPL},
		{m.DailyPLPct, &e.DailyPLPct},
		{m.DrawdownPct, &e.DrawdownPct},
	} {
		raw := get(f.col)
		if raw == "" {
			continue
		}
		v, err := parseMoney(raw)
		if err != nil {
			return e, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, f.col, err)
		}
		*f.dst = v
	}

	return e, nil
}

func readCSV(r io.Reader) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // broker exports pad trailing columns inconsistently

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMalformedRecord)
	}
	return all[0], all[1:], nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// parseMoney accepts "$1,234.56", "(123.45)" accounting negatives, "12%",
// and plain floats.
func parseMoney(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}
