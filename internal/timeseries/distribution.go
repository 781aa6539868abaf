package timeseries

import (
	"strconv"
	"strings"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/internal/stats"
)

// Bucket is one histogram bucket of trade P/L.
type Bucket struct {
	Label  string  `json:"label"`
	Trades int     `json:"trades"`
	PL     float64 `json:"pl"`
	Wins   int     `json:"wins"`
}

// Distribution is a bucketed view of the trade list plus the shape of the
// underlying P/L sample.
type Distribution struct {
	Buckets        []Bucket `json:"buckets"`
	Skewness       float64  `json:"skewness"`
	ExcessKurtosis float64  `json:"excess_kurtosis"`
}

// ByWeekday buckets trades by open weekday (Sunday..Saturday order).
func ByWeekday(portfolio *model.Portfolio) Distribution {
	labels := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	buckets := make([]Bucket, 7)
	for i, l := range labels {
		buckets[i].Label = l
	}

	var pls []float64
	for _, t := range portfolio.Trades() {
		i := int(t.DateOpened.Weekday())
		fill(&buckets[i], t.PL)
		pls = append(pls, t.PL)
	}
	return distribution(trim(buckets), pls)
}

// ByHour buckets trades by the hour of their open time ("HH:MM:SS").
// Rows without a parseable time are skipped.
func ByHour(portfolio *model.Portfolio) Distribution {
	buckets := make([]Bucket, 24)
	for i := range buckets {
		buckets[i].Label = strconv.Itoa(i) + ":00"
	}

	var pls []float64
	for _, t := range portfolio.Trades() {
		h, ok := parseHour(t.TimeOpened)
		if !ok {
			continue
		}
		fill(&buckets[h], t.PL)
		pls = append(pls, t.PL)
	}
	return distribution(trim(buckets), pls)
}

// holdBuckets are the day-count boundaries for hold-duration grouping.
var holdBuckets = []struct {
	label string
	max   int // inclusive upper bound in days, -1 = unbounded
}{
	{"0d", 0},
	{"1-7d", 7},
	{"8-30d", 30},
	{"31-90d", 90},
	{"90d+", -1},
}

// ByHoldDuration buckets closed trades by calendar days held.
func ByHoldDuration(portfolio *model.Portfolio) Distribution {
	buckets := make([]Bucket, len(holdBuckets))
	for i, hb := range holdBuckets {
		buckets[i].Label = hb.label
	}

	var pls []float64
	for _, t := range portfolio.Trades() {
		if !t.IsClosed() {
			continue
		}
		days := t.HoldingDays()
		for i, hb := range holdBuckets {
			if hb.max < 0 || days <= hb.max {
				fill(&buckets[i], t.PL)
				break
			}
		}
		pls = append(pls, t.PL)
	}
	return distribution(trim(buckets), pls)
}

// romBuckets are percent return-on-margin boundaries.
var romBuckets = []struct {
	label string
	max   float64 // exclusive upper bound, +Inf sentinel via NaN check
}{
	{"< -50%", -50},
	{"-50..-10%", -10},
	{"-10..0%", 0},
	{"0..10%", 10},
	{"10..50%", 50},
	{"50%+", 0}, // catch-all, handled explicitly
}

// ByReturnOnMargin buckets trades by P/L as a percentage of margin.
// Shape statistics describe the return-on-margin sample itself.
func ByReturnOnMargin(portfolio *model.Portfolio) Distribution {
	buckets := make([]Bucket, len(romBuckets))
	for i, rb := range romBuckets {
		buckets[i].Label = rb.label
	}

	var roms []float64
	for _, t := range portfolio.Trades() {
		rom, ok := t.ReturnOnMargin()
		if !ok {
			continue
		}
		idx := len(romBuckets) - 1
		for i := 0; i < len(romBuckets)-1; i++ {
			if rom < romBuckets[i].max {
				idx = i
				break
			}
		}
		fill(&buckets[idx], t.PL)
		roms = append(roms, rom)
	}
	return distribution(trim(buckets), roms)
}

func fill(b *Bucket, pl float64) {
	b.Trades++
	b.PL += pl
	if pl > 0 {
		b.Wins++
	}
}

// trim drops empty buckets so serialized output stays compact.
func trim(buckets []Bucket) []Bucket {
	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		if b.Trades > 0 {
			out = append(out, b)
		}
	}
	return out
}

func distribution(buckets []Bucket, sample []float64) Distribution {
	return Distribution{
		Buckets:        buckets,
		Skewness:       stats.Skewness(sample),
		ExcessKurtosis: stats.ExcessKurtosis(sample),
	}
}

func parseHour(clock string) (int, bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) == 0 || parts[0] == "" {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}
