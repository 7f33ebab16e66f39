package api

import (
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/quantsim/internal/logger"
)

func newTestEcho() *echo.Echo {
	server := NewServer(NewResultStore(), logger.New(slog.NewTextHandler(io.Discard, nil)))
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return out
}

const channelBody = `{"datatype":"int4","bits":4,"group_size":0,"rows":2,"cols":4,
	"data":[0.1,-0.1,0.05,-0.05,1,-1,0.5,-0.5],"include_codes":true}`

func TestQuantizeLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	createRec := doJSON(t, e, http.MethodPost, "/v1/quantize", channelBody)
	if createRec.Code != http.StatusOK {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}
	created := decodeBody[QuantizeResponse](t, createRec)
	if !strings.HasPrefix(created.ID, "qr_") {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if created.Grouping != "per-channel" || created.GroupSize != 0 {
		t.Fatalf("grouping = %q (%d)", created.Grouping, created.GroupSize)
	}
	if len(created.Scales) != 2 || len(created.Codes) != 8 || len(created.Dequantized) != 8 {
		t.Fatalf("unexpected sizes: scales=%d codes=%d dequantized=%d",
			len(created.Scales), len(created.Codes), len(created.Dequantized))
	}
	if math.Abs(created.Dequantized[4]-1) > 1e-12 {
		t.Fatalf("row max not preserved: %v", created.Dequantized[4])
	}
	if created.ZeroPoints != nil || created.Choices != nil {
		t.Fatalf("symmetric int result carries zero points or choices: %+v", created)
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/quantize/"+created.ID, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}

	delRec := doJSON(t, e, http.MethodDelete, "/v1/quantize/"+created.ID, "")
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d body=%s", delRec.Code, delRec.Body.String())
	}
	if !strings.Contains(delRec.Body.String(), `"deleted":true`) {
		t.Fatalf("delete response missing deleted=true: %s", delRec.Body.String())
	}

	if rec := doJSON(t, e, http.MethodGet, "/v1/quantize/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, e, http.MethodDelete, "/v1/quantize/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestQuantizeOmitsCodesByDefault(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/quantize",
		`{"datatype":"mixed_er","bits":4,"group_size":4,"rows":1,"cols":8,"data":[1,2,3,4,-1,-2,-3,-4]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[QuantizeResponse](t, rec)
	if resp.Codes != nil {
		t.Fatalf("codes returned without include_codes")
	}
	if len(resp.Choices) != 2 {
		t.Fatalf("choices = %v, want one per group", resp.Choices)
	}
	if resp.Kind.String() != "mixed" {
		t.Fatalf("kind = %s", resp.Kind)
	}
}

func TestQuantizeValidationErrors(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"datatype":`},
		{"unknown field", `{"datatype":"int4","bits":4,"rows":1,"cols":1,"data":[1],"extra":1}`},
		{"missing datatype", `{"bits":4,"rows":1,"cols":1,"data":[1]}`},
		{"unknown datatype", `{"datatype":"fp5_e9m9","bits":5,"rows":1,"cols":1,"data":[1]}`},
		{"bit width", `{"datatype":"int4","bits":5,"rows":1,"cols":1,"data":[1]}`},
		{"shape", `{"datatype":"int4","bits":4,"rows":2,"cols":2,"data":[1,2,3]}`},
		{"group size", `{"datatype":"int4","bits":4,"group_size":3,"rows":1,"cols":4,"data":[1,2,3,4]}`},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, "/v1/quantize", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d body=%s", tc.name, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "invalid_request_error") {
			t.Fatalf("%s: missing error type: %s", tc.name, rec.Body.String())
		}
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/compare",
		`{"datatypes":["int3","fp16","fp3"],"bits":3,"group_size":4,"rows":2,"cols":4,
		"data":[0.1,-0.1,0.05,-0.05,1,-1,0.5,-0.5]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[CompareResponse](t, rec)
	if len(resp.Reports) != 3 {
		t.Fatalf("reports = %d", len(resp.Reports))
	}
	if resp.Best != "fp16" {
		t.Fatalf("best = %q, want fp16", resp.Best)
	}
	identity := resp.Reports[1]
	if identity.Metrics.MSE != 0 || identity.Metrics.SNR != nil {
		t.Fatalf("identity metrics = %+v", identity.Metrics)
	}
	if resp.Reports[0].Metrics.SNR == nil {
		t.Fatal("lossy format should report a finite SNR")
	}
}

func TestCompareRejectsBadDatatypeBeforeWork(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	for _, body := range []string{
		`{"datatypes":[],"bits":4,"rows":1,"cols":1,"data":[1]}`,
		`{"datatypes":["int4","nope"],"bits":4,"rows":1,"cols":1,"data":[1]}`,
		`{"datatypes":["int4"],"bits":4,"rows":1,"cols":2,"data":[1]}`,
	} {
		if rec := doJSON(t, e, http.MethodPost, "/v1/compare", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: got %d %s", body, rec.Code, rec.Body.String())
		}
	}
}

func TestDatatypes(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodGet, "/v1/datatypes?bits=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[DatatypesResponse](t, rec)
	if len(resp.Data) == 0 {
		t.Fatal("no 3-bit catalogs")
	}
	for _, c := range resp.Data {
		if c.Bits != 3 {
			t.Fatalf("catalog %s has %d bits", c.Name, c.Bits)
		}
	}
	if len(resp.Mixed) == 0 {
		t.Fatal("mixed families missing")
	}

	if rec := doJSON(t, e, http.MethodGet, "/v1/datatypes?bits=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad bits, got %d", rec.Code)
	}
}

func TestResultStore(t *testing.T) {
	t.Parallel()

	s := NewResultStore()
	a := s.Save(&QuantizeResponse{})
	b := s.Save(&QuantizeResponse{})
	if a == b {
		t.Fatal("ids collide")
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}
	if !s.Delete(a) || s.Delete(a) {
		t.Fatal("delete should succeed exactly once")
	}
	if _, ok := s.Get(b); !ok {
		t.Fatal("b missing")
	}
}
