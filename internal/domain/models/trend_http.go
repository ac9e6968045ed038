package models

// Requests for trend HTTP endpoints. Defined in domain for consistency and reuse.

type TrendRequest struct {
	Symbol      string  `query:"symbol" json:"symbol" validate:"required"`
	N           int     `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF          string  `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	FromCluster string  `query:"from_cluster" json:"from_cluster" default:"best" validate:"oneof=worst average best"`
	PerfAlpha   float64 `query:"perf_alpha" json:"perf_alpha" default:"10" validate:"gt=0,lte=500"`
}

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type ClustersRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}
