package models

import "time"

// Candle represents an OHLCV record used as engine input.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	OrgID  string
}

// Trade is a single market tick from the realtime stream.
type Trade struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}
