// Package universe builds the basket of symbols to evaluate.
package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Listing is a tradable name with the fundamentals used for screening.
type Listing struct {
	Name          string  `yaml:"name"`
	Symbol        string  `yaml:"symbol"`
	AvgVolume     float64 `yaml:"avg_volume"`
	PE            float64 `yaml:"pe"`
	DividendYield float64 `yaml:"dividend_yield"` // fraction, 0.02 = 2%
}

// Range is an inclusive bound. A zero Max means no upper bound.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	if v < r.Min {
		return false
	}
	return r.Max == 0 || v <= r.Max
}

// Criteria are the screening filters.
type Criteria struct {
	VolumeRange      Range   `yaml:"volume_range"`
	PERange          Range   `yaml:"pe_range"`
	MinDividendYield float64 `yaml:"min_dividend_yield"`
}

// Validate rejects inverted ranges.
func (c Criteria) Validate() error {
	if c.VolumeRange.Max != 0 && c.VolumeRange.Max < c.VolumeRange.Min {
		return fmt.Errorf("volume range max %.0f < min %.0f", c.VolumeRange.Max, c.VolumeRange.Min)
	}
	if c.PERange.Max != 0 && c.PERange.Max < c.PERange.Min {
		return fmt.Errorf("pe range max %.2f < min %.2f", c.PERange.Max, c.PERange.Min)
	}
	if c.MinDividendYield < 0 {
		return fmt.Errorf("min dividend yield %.4f < 0", c.MinDividendYield)
	}
	return nil
}

// Screener selects the universe as a name -> symbol mapping.
type Screener interface {
	Screen(ctx context.Context, c Criteria) (map[string]string, error)
}

// StaticScreener filters a fixed set of listings.
type StaticScreener struct {
	Listings []Listing
}

// NewStaticScreener creates a screener over listings; nil means DefaultBasket.
func NewStaticScreener(listings []Listing) *StaticScreener {
	if listings == nil {
		listings = DefaultBasket()
	}
	return &StaticScreener{Listings: listings}
}

func (s *StaticScreener) Screen(ctx context.Context, c Criteria) (map[string]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, l := range s.Listings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !passesFilter(l, c) {
			continue
		}
		name := l.Name
		if name == "" {
			name = l.Symbol
		}
		out[name] = strings.ToUpper(l.Symbol)
	}
	log.Debug().Int("candidates", len(s.Listings)).Int("selected", len(out)).Msg("universe screened")
	return out, nil
}

func passesFilter(l Listing, c Criteria) bool {
	if strings.TrimSpace(l.Symbol) == "" {
		return false
	}
	if !c.VolumeRange.Contains(l.AvgVolume) {
		return false
	}
	if !c.PERange.Contains(l.PE) {
		return false
	}
	return l.DividendYield >= c.MinDividendYield
}

// Symbols returns the sorted, de-duplicated symbols of a screen result.
func Symbols(screened map[string]string) []string {
	seen := make(map[string]bool, len(screened))
	out := make([]string, 0, len(screened))
	for _, sym := range screened {
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// DefaultBasket is the stock basket evaluated when none is configured.
func DefaultBasket() []Listing {
	return []Listing{
		{Name: "PubMatic", Symbol: "PUBM"},
		{Name: "Endava", Symbol: "DAVA"},
		{Name: "Sprout Social", Symbol: "SPT"},
		{Name: "Yeti Holdings", Symbol: "YETI"},
		{Name: "Alpha Metallurgical Resources", Symbol: "AMR"},
		{Name: "Aspen Technology", Symbol: "AZPN"},
		{Name: "e.l.f. Beauty", Symbol: "ELF"},
		{Name: "Global-E Online", Symbol: "GLBE"},
		{Name: "Boeing", Symbol: "BA"},
		{Name: "Southwest Airlines", Symbol: "LUV"},
		{Name: "iRobot", Symbol: "IRBT"},
		{Name: "SPDR Portfolio S&P 500 Growth ETF", Symbol: "SPYG"},
	}
}
