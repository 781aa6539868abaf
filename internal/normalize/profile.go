package normalize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile maps one broker's export columns onto the canonical record
// fields. Profiles ship as YAML files so adding a broker never touches
// code.
type Profile struct {
	Name string `yaml:"name"`

	// Formats for date and clock columns, Go reference-time layout.
	DateFormat string `yaml:"date_format"`
	TimeFormat string `yaml:"time_format"`

	// Strict rejects the whole upload on the first malformed row;
	// lenient collects row errors and keeps going.
	Strict bool `yaml:"strict"`

	Trade    TradeColumns    `yaml:"trade"`
	DailyLog DailyLogColumns `yaml:"daily_log"`
}

// TradeColumns names the broker headers for each Trade field. Empty
// entries mark fields this broker does not export.
type TradeColumns struct {
	DateOpened   string `yaml:"date_opened"`
	TimeOpened   string `yaml:"time_opened"`
	DateClosed   string `yaml:"date_closed"`
	TimeClosed   string `yaml:"time_closed"`
	Legs         string `yaml:"legs"`
	Strategy     string `yaml:"strategy"`
	Premium      string `yaml:"premium"`
	PL           string `yaml:"pl"`
	Contracts    string `yaml:"contracts"`
	FundsAtClose string `yaml:"funds_at_close"`
	MarginReq    string `yaml:"margin_req"`
	Commissions  string `yaml:"commissions"`
	OpeningVIX   string `yaml:"opening_vix"`
	ClosingVIX   string `yaml:"closing_vix"`
	MaxProfit    string `yaml:"max_profit"`
	MaxLoss      string `yaml:"max_loss"`
}

// DailyLogColumns names the broker headers for DailyLogEntry fields.
type DailyLogColumns struct {
	Date         string `yaml:"date"`
	NetLiquidity string `yaml:"net_liquidity"`
	TradingFunds string `yaml:"trading_funds"`
	DailyPL      string `yaml:"daily_pl"`
	DailyPLPct   string `yaml:"daily_pl_pct"`
	DrawdownPct  string `yaml:"drawdown_pct"`
}

// LoadProfile reads and validates a mapping profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return &p, nil
}

func (p *Profile) validate() error {
	if p.DateFormat == "" {
		p.DateFormat = "2006-01-02"
	}
	if p.TimeFormat == "" {
		p.TimeFormat = "15:04:05"
	}
	// The trade mapping has a small required core; everything else is
	// optional per broker.
	required := map[string]string{
		"trade.date_opened": p.Trade.DateOpened,
		"trade.pl":          p.Trade.PL,
	}
	for field, col := range required {
		if col == "" {
			return fmt.Errorf("missing required column mapping %s", field)
		}
	}
	return nil
}

// DefaultProfile covers the generic export layout used by the upload
// service's own sample files.
func DefaultProfile() *Profile {
	return &Profile{
		Name:       "generic",
		DateFormat: "2006-01-02",
		TimeFormat: "15:04:05",
		Trade: TradeColumns{
			DateOpened:   "Date Opened",
			TimeOpened:   "Time Opened",
			DateClosed:   "Date Closed",
			TimeClosed:   "Time Closed",
			Legs:         "Legs",
			Strategy:     "Strategy",
			Premium:      "Premium",
			PL:           "P/L",
			Contracts:    "No. of Contracts",
			FundsAtClose: "Funds at Close",
			MarginReq:    "Margin Req.",
			Commissions:  "Total Commissions",
			OpeningVIX:   "Opening VIX",
			ClosingVIX:   "Closing VIX",
			MaxProfit:    "Max Profit",
			MaxLoss:      "Max Loss",
		},
		DailyLog: DailyLogColumns{
			Date:         "Date",
			NetLiquidity: "Net Liquidity",
			TradingFunds: "Current Funds",
			DailyPL:      "P/L",
			DailyPLPct:   "P/L %",
			DrawdownPct:  "Drawdown %",
		},
	}
}
