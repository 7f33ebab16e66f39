// Package api serves the quantization engine over HTTP.
package api

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/quantsim/internal/analysis"
	"github.com/samcharles93/quantsim/internal/logger"
	"github.com/samcharles93/quantsim/pkg/quant"
)

type Server struct {
	store *ResultStore
	log   logger.Logger
	clock func() time.Time
}

func NewServer(store *ResultStore, log logger.Logger) *Server {
	if store == nil {
		store = NewResultStore()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		store: store,
		log:   log,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/datatypes", s.handleDatatypes)
	e.POST("/v1/quantize", s.handleQuantize)
	e.GET("/v1/quantize/:id", s.handleGetQuantize)
	e.DELETE("/v1/quantize/:id", s.handleDeleteQuantize)
	e.POST("/v1/compare", s.handleCompare)
}

func (s *Server) handleDatatypes(c *echo.Context) error {
	catalogs := quant.Catalogs()
	if q := c.QueryParam("bits"); q != "" {
		bits, err := strconv.Atoi(q)
		if err != nil {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", "bits must be an integer", "bits", "")
		}
		catalogs = slices.DeleteFunc(catalogs, func(ci quant.CatalogInfo) bool { return ci.Bits != bits })
	}
	return c.JSON(http.StatusOK, DatatypesResponse{
		Object:  "list",
		Data:    catalogs,
		Integer: []string{"int<bits>", "int<bits>_asym"},
		Mixed:   quant.MixedDatatypes(),
	})
}

func (s *Server) handleQuantize(c *echo.Context) error {
	req, err := decodeJSON[QuantizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Datatype == "" {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "datatype is required", "datatype", "")
	}
	resp, err := s.quantize(&req)
	if err != nil {
		return writeFailure(c, err)
	}
	id := s.store.Save(resp)
	s.log.Debug("stored quantize result", "id", id, "datatype", resp.Datatype, "grouping", resp.Grouping)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) quantize(req *QuantizeRequest) (*QuantizeResponse, error) {
	q, err := quant.NewQuantizer(req.Datatype, req.Bits, req.GroupSize)
	if err != nil {
		return nil, err
	}
	m, err := quant.NewMatrix(req.Rows, req.Cols, req.Data)
	if err != nil {
		return nil, err
	}
	if err := q.Check(m.Rows, m.Cols); err != nil {
		return nil, err
	}
	res, err := q.Quantize(m)
	if err != nil {
		return nil, err
	}
	metrics, err := analysis.Compare(m.Data, res.Dequantized.Data)
	if err != nil {
		return nil, err
	}

	resp := &QuantizeResponse{
		Object:      "quantize.result",
		CreatedAt:   s.clock().Unix(),
		Datatype:    res.Format.Name,
		Kind:        res.Format.Kind,
		Bits:        res.Format.Bits,
		Grouping:    res.Grouping.String(),
		GroupSize:   res.Grouping.GroupSize(),
		Rows:        m.Rows,
		Cols:        m.Cols,
		Dequantized: res.Dequantized.Data,
		Scales:      res.Scales,
		ZeroPoints:  res.ZeroPoints,
		Exponents:   res.Exponents,
		Choices:     res.ChoiceNames(),
		Metrics:     metricsView(metrics),
	}
	if req.IncludeCodes {
		resp.Codes = res.Codes
	}
	return resp, nil
}

func (s *Server) handleGetQuantize(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return writeNotFound(c, "result not found")
	}
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "result not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteQuantize(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "result not found")
	}
	return c.JSON(http.StatusOK, DeleteResponse{
		ID:      id,
		Object:  "quantize.result",
		Deleted: true,
	})
}

func (s *Server) handleCompare(c *echo.Context) error {
	req, err := decodeJSON[CompareRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Datatypes) == 0 {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "datatypes must not be empty", "datatypes", "")
	}
	m, err := quant.NewMatrix(req.Rows, req.Cols, req.Data)
	if err != nil {
		return writeFailure(c, err)
	}
	reports, _, err := analysis.EvaluateAll(m, req.Datatypes, req.Bits, req.GroupSize)
	if err != nil {
		return writeFailure(c, err)
	}

	resp := CompareResponse{Object: "list", Reports: make([]CompareReport, len(reports))}
	best := -1
	for i, r := range reports {
		resp.Reports[i] = CompareReport{
			Datatype: r.Datatype,
			Bits:     r.Bits,
			Grouping: r.Grouping,
			Metrics:  metricsView(r.Metrics),
			MSERep:   r.Groups.Rep,
			MSEP99:   r.Groups.P99,
		}
		if best < 0 || r.Metrics.MSE < reports[best].Metrics.MSE {
			best = i
		}
	}
	resp.Best = reports[best].Datatype
	return c.JSON(http.StatusOK, resp)
}
