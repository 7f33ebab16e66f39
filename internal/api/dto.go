package api

import (
	"math"

	"github.com/samcharles93/quantsim/internal/analysis"
	"github.com/samcharles93/quantsim/pkg/quant"
)

// QuantizeRequest carries one row-major weight matrix. GroupSize follows the
// CLI convention: -1 per-tensor, 0 per-channel, positive per-group.
type QuantizeRequest struct {
	Datatype     string    `json:"datatype"`
	Bits         int       `json:"bits"`
	GroupSize    int       `json:"group_size"`
	Rows         int       `json:"rows"`
	Cols         int       `json:"cols"`
	Data         []float64 `json:"data"`
	IncludeCodes bool      `json:"include_codes,omitempty"`
}

type QuantizeResponse struct {
	ID          string      `json:"id"`
	Object      string      `json:"object"`
	CreatedAt   int64       `json:"created_at"`
	Datatype    string      `json:"datatype"`
	Kind        quant.Kind  `json:"kind"`
	Bits        int         `json:"bits"`
	Grouping    string      `json:"grouping"`
	GroupSize   int         `json:"group_size"`
	Rows        int         `json:"rows"`
	Cols        int         `json:"cols"`
	Dequantized []float64   `json:"dequantized"`
	Codes       []float64   `json:"codes,omitempty"`
	Scales      []float64   `json:"scales,omitempty"`
	ZeroPoints  []float64   `json:"zero_points,omitempty"`
	Exponents   []int       `json:"exponents,omitempty"`
	Choices     []string    `json:"choices,omitempty"`
	Metrics     MetricsView `json:"metrics"`
}

// CompareRequest evaluates several datatypes on the same matrix.
type CompareRequest struct {
	Datatypes []string  `json:"datatypes"`
	Bits      int       `json:"bits"`
	GroupSize int       `json:"group_size"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Data      []float64 `json:"data"`
}

type CompareResponse struct {
	Object  string          `json:"object"`
	Reports []CompareReport `json:"reports"`
	// Best is the datatype with the lowest tensor MSE; ties keep request order.
	Best string `json:"best"`
}

type CompareReport struct {
	Datatype string      `json:"datatype"`
	Bits     int         `json:"bits"`
	Grouping string      `json:"grouping"`
	Metrics  MetricsView `json:"metrics"`
	MSERep   float64     `json:"mse_rep"`
	MSEP99   float64     `json:"mse_p99"`
}

// MetricsView is analysis.Metrics with infinite SNR encoded as null, since
// JSON has no infinity.
type MetricsView struct {
	MSE              float64  `json:"mse"`
	RMSE             float64  `json:"rmse"`
	MAE              float64  `json:"mae"`
	MaxError         float64  `json:"max_error"`
	SNR              *float64 `json:"snr_db"`
	CosineSimilarity float64  `json:"cosine"`
}

func metricsView(m analysis.Metrics) MetricsView {
	v := MetricsView{
		MSE:              m.MSE,
		RMSE:             m.RMSE,
		MAE:              m.MAE,
		MaxError:         m.MaxError,
		CosineSimilarity: m.CosineSimilarity,
	}
	if !math.IsInf(m.SNR, 0) && !math.IsNaN(m.SNR) {
		snr := m.SNR
		v.SNR = &snr
	}
	return v
}

type DatatypesResponse struct {
	Object string              `json:"object"`
	Data   []quant.CatalogInfo `json:"data"`
	// Integer and mixed families are parametric and not listed per catalog.
	Integer []string `json:"integer"`
	Mixed   []string `json:"mixed"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
