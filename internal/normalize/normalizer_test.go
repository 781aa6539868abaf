package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleTrades = `Date Opened,Time Opened,Date Closed,Time Closed,Legs,Strategy,Premium,P/L,No. of Contracts,Funds at Close,Margin Req.,Total Commissions
2025-01-02,09:35:00,2025-01-10,14:30:00,"1 Jan 17 4800 P STO",Iron Condor,"$1,250.00","$487.50",2,"$101,487.50","$16,025.00",$12.80
2025-01-03,10:00:00,2025-01-15,15:45:00,"2 Feb 21 4900 C STO",Strangle,$890.00,(123.45),1,"$101,364.05","$8,500.00",$6.40
`

func TestNormalizer_Trades(t *testing.T) {
	n := New(nil, nil)
	trades, rowErrs, err := n.Trades(strings.NewReader(sampleTrades))
	if err != nil {
		t.Fatalf("Trades() failed: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}

	first := trades[0]
	if !first.DateOpened.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateOpened = %v", first.DateOpened)
	}
	if first.PL != 487.50 {
		t.Errorf("PL = %v, want 487.50", first.PL)
	}
	if first.MarginReq != 16025 {
		t.Errorf("MarginReq = %v, want 16025", first.MarginReq)
	}
	if first.Strategy != "Iron Condor" {
		t.Errorf("Strategy = %q", first.Strategy)
	}
	if first.Contracts != 2 {
		t.Errorf("Contracts = %d, want 2", first.Contracts)
	}

	// Accounting-style negative
	if trades[1].PL != -123.45 {
		t.Errorf("second PL = %v, want -123.45", trades[1].PL)
	}
}

func TestNormalizer_LenientCollectsRowErrors(t *testing.T) {
	csv := `Date Opened,P/L
2025-01-02,100.00
not-a-date,50.00
2025-01-04,garbage
2025-01-05,-25.00
`
	n := New(nil, nil)
	trades, rowErrs, err := n.Trades(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Trades() failed: %v", err)
	}
	if len(trades) != 2 {
		t.Errorf("got %d trades, want 2", len(trades))
	}
	if len(rowErrs) != 2 {
		t.Fatalf("got %d row errors, want 2", len(rowErrs))
	}
	if rowErrs[0].Row != 2 {
		t.Errorf("first error row = %d, want 2", rowErrs[0].Row)
	}
	if !errors.Is(rowErrs[0], ErrMalformedRecord) {
		t.Error("row error should unwrap to ErrMalformedRecord")
	}
}

func TestNormalizer_StrictFailsFast(t *testing.T) {
	csv := `Date Opened,P/L
not-a-date,50.00
`
	profile := DefaultProfile()
	profile.Strict = true

	n := New(profile, nil)
	_, _, err := n.Trades(strings.NewReader(csv))
	if err == nil {
		t.Fatal("strict mode should fail on the malformed row")
	}
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("err = %v, want ErrMalformedRecord", err)
	}
}

func TestNormalizer_RejectsBadClock(t *testing.T) {
	csv := `Date Opened,Time Opened,P/L
2025-01-02,09:35:00,100.00
2025-01-03,25:99:00,50.00
`
	n := New(nil, nil)
	trades, rowErrs, err := n.Trades(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Trades() failed: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("got %d trades, want 1", len(trades))
	}
	if len(rowErrs) != 1 {
		t.Fatalf("got %d row errors, want 1", len(rowErrs))
	}
	if !errors.Is(rowErrs[0], ErrMalformedRecord) {
		t.Error("bad clock should unwrap to ErrMalformedRecord")
	}
	if trades[0].TimeOpened != "09:35:00" {
		t.Errorf("TimeOpened = %q, want raw string kept", trades[0].TimeOpened)
	}
}

func TestNormalizer_RejectsCloseBeforeOpen(t *testing.T) {
	csv := `Date Opened,Date Closed,P/L
2025-01-10,2025-01-02,100.00
`
	n := New(nil, nil)
	trades, rowErrs, err := n.Trades(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Trades() failed: %v", err)
	}
	if len(trades) != 0 || len(rowErrs) != 1 {
		t.Errorf("got %d trades, %d errors; want 0 trades, 1 error", len(trades), len(rowErrs))
	}
}

func TestNormalizer_DailyLog(t *testing.T) {
	csv := `Date,Net Liquidity,Current Funds,P/L,P/L %,Drawdown %
2025-01-02,"$100,000.00","$95,000.00",$0.00,0.00%,0.00%
2025-01-03,"$105,000.00","$99,000.00","$5,000.00",5.00%,0.00%
`
	n := New(nil, nil)
	log, rowErrs, err := n.DailyLog(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("DailyLog() failed: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrs)
	}
	if log.Len() != 2 {
		t.Fatalf("got %d entries, want 2", log.Len())
	}

	last, _ := log.Last()
	if last.NetLiquidity != 105_000 {
		t.Errorf("NetLiquidity = %v, want 105000", last.NetLiquidity)
	}
	if last.DailyPL != 5000 {
		t.Errorf("DailyPL = %v, want 5000", last.DailyPL)
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$1,234.56", 1234.56},
		{"(123.45)", -123.45},
		{"-50", -50},
		{"12.5%", 12.5},
		{" $10 ", 10},
	}
	for _, c := range cases {
		got, err := parseMoney(c.in)
		if err != nil {
			t.Errorf("parseMoney(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseMoney(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	if _, err := parseMoney(""); err == nil {
		t.Error("empty value should fail")
	}
	if _, err := parseMoney("abc"); err == nil {
		t.Error("garbage should fail")
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broker.yaml")
	yaml := `name: test-broker
date_format: "01/02/2006"
strict: true
trade:
  date_opened: "Open Date"
  pl: "Profit"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() failed: %v", err)
	}
	if p.Name != "test-broker" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.DateFormat != "01/02/2006" {
		t.Errorf("DateFormat = %q", p.DateFormat)
	}
	if !p.Strict {
		t.Error("Strict should be true")
	}
	// TimeFormat defaults in during validation
	if p.TimeFormat != "15:04:05" {
		t.Errorf("TimeFormat = %q, want default", p.TimeFormat)
	}
}

func TestLoadProfile_MissingRequiredMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	yaml := `name: bad
trade:
  date_opened: "Open Date"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadProfile(path); err == nil {
		t.Error("profile without trade.pl mapping should fail validation")
	}
}
