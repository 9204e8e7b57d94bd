package model

import (
	"encoding/json"
	"math"
	"time"
)

// Indicator output names, as reported to callers.
const (
	NameSMA20      = "SMA_20"
	NameEMA20      = "EMA_20"
	NameRSI14      = "RSI_14"
	NameMACD       = "MACD_12_26_9"
	NameMACDHist   = "MACDh_12_26_9"
	NameMACDSignal = "MACDs_12_26_9"
	NameBBLower    = "BBL_20_2.0"
	NameBBMiddle   = "BBM_20_2.0"
	NameBBUpper    = "BBU_20_2.0"
)

// IndicatorNames lists every reported indicator in report order.
var IndicatorNames = []string{
	NameSMA20, NameEMA20, NameRSI14,
	NameMACD, NameMACDHist, NameMACDSignal,
	NameBBLower, NameBBMiddle, NameBBUpper,
}

// Value is an indicator reading that may be undefined at a given date.
type Value struct {
	Float64 float64
	Valid   bool
}

// NewValue wraps v, treating NaN and ±Inf as undefined.
func NewValue(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{Float64: v, Valid: true}
}

// IndicatorSet holds the indicator readings for a single bar date.
type IndicatorSet struct {
	Date time.Time

	SMA20 Value
	EMA20 Value
	RSI14 Value

	MACD       Value
	MACDSignal Value
	MACDHist   Value

	BBLower  Value
	BBMiddle Value
	BBUpper  Value
}

func (s *IndicatorSet) field(name string) *Value {
	switch name {
	case NameSMA20:
		return &s.SMA20
	case NameEMA20:
		return &s.EMA20
	case NameRSI14:
		return &s.RSI14
	case NameMACD:
		return &s.MACD
	case NameMACDHist:
		return &s.MACDHist
	case NameMACDSignal:
		return &s.MACDSignal
	case NameBBLower:
		return &s.BBLower
	case NameBBMiddle:
		return &s.BBMiddle
	case NameBBUpper:
		return &s.BBUpper
	}
	return nil
}

// Lookup returns the reading for an output name such as "RSI_14".
// ok is false for unknown names and undefined readings.
func (s IndicatorSet) Lookup(name string) (v float64, ok bool) {
	f := s.field(name)
	if f == nil || !f.Valid {
		return 0, false
	}
	return f.Float64, true
}

// Map returns the defined readings keyed by output name.
// Undefined readings are left out rather than reported as null.
func (s IndicatorSet) Map() map[string]float64 {
	out := make(map[string]float64, len(IndicatorNames))
	for _, name := range IndicatorNames {
		if v, ok := s.Lookup(name); ok {
			out[name] = v
		}
	}
	return out
}

// Len counts the defined readings.
func (s IndicatorSet) Len() int {
	n := 0
	for _, name := range IndicatorNames {
		if _, ok := s.Lookup(name); ok {
			n++
		}
	}
	return n
}

// Empty reports whether no reading is defined.
func (s IndicatorSet) Empty() bool { return s.Len() == 0 }

// MarshalJSON encodes the set as its name to value mapping.
func (s IndicatorSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// Analysis is the outcome of fetching a series and running the indicators on it.
type Analysis struct {
	Symbol     string
	Interval   string
	Bars       int
	LastDate   time.Time
	LastClose  float64
	Indicators IndicatorSet
	Source     string
	FetchedAt  time.Time

	// Quote is the live price, when one was fetched.
	Quote Value
}
