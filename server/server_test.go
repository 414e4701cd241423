package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"

	"github.com/spektr-org/gssdash"
	"github.com/spektr-org/gssdash/dataset"
	"github.com/spektr-org/gssdash/gss"
	"github.com/spektr-org/gssdash/render"
	"github.com/spektr-org/gssdash/schema"
	"github.com/spektr-org/gssdash/views"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func num(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func testData() *dataset.Dataset {
	return dataset.New("test", []gss.Respondent{
		{ID: 1, Sex: gss.Male, Region: "pacific", Income: num(50000), JobPrestige: num(60),
			Education: sql.NullInt64{Int64: 16, Valid: true}, SocioeconomicIndex: num(70),
			MaleBreadwinner: gss.Disagree, SatJob: gss.VerySatisfied, EducationCat: gss.EduBachelor},
		{ID: 2, Sex: gss.Female, Region: "pacific", Income: num(45000), JobPrestige: num(55),
			Education: sql.NullInt64{Int64: 12, Valid: true}, SocioeconomicIndex: num(40),
			MaleBreadwinner: gss.Agree, EducationCat: gss.EduHighSchool},
		{ID: 3, Sex: gss.Male, Region: "new england", Income: num(80000), JobPrestige: num(70),
			Education: sql.NullInt64{Int64: 20, Valid: true}, SocioeconomicIndex: num(90),
			MaleBreadwinner: gss.StronglyDisagree, EducationCat: gss.EduGraduate},
	}, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
}

type fixture struct {
	server  *Server
	metrics *Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	data := testData()
	metrics := NewMetrics()
	dash := views.NewDashboard(data, views.WithCache(cache.NoExpiration, 0), views.WithRecorder(metrics))
	return fixture{
		server:  New(data, dash, render.NewPlot(render.Size{Width: 320, Height: 240}), WithMetrics(metrics)),
		metrics: metrics,
	}
}

func (f fixture) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// ============================================================================
// JSON ENDPOINTS
// ============================================================================

func TestHealth(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"`+gssdash.Version+`","rows":3}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsKept(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newFixture(t).server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestOptions(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var selectors []views.Selector
	decode(t, rec, &selectors)
	require.Len(t, selectors, 4)
	assert.Equal(t, views.SelectorRegion, selectors[0].ID)
	assert.Equal(t, []gss.Option{
		{Label: "New England", Value: "new england"},
		{Label: "Pacific", Value: "pacific"},
	}, selectors[0].Options)
}

func TestViews(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/views", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []viewInfo
	decode(t, rec, &list)
	require.Len(t, list, 4)
	assert.Equal(t, "distribution", list[1].ID)
	assert.Equal(t, []string{views.ChartIncomeBox, views.ChartPrestigeBox}, list[1].Outputs)
}

func TestView_RegionQuery(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/views/distribution?region=pacific", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Controller string `json:"controller"`
		Charts     []struct {
			ID    string `json:"id"`
			Count int    `json:"count"`
		} `json:"charts"`
	}
	decode(t, rec, &out)
	assert.Equal(t, "distribution", out.Controller)
	require.Len(t, out.Charts, 2)
	assert.Equal(t, views.ChartIncomeBox, out.Charts[0].ID)
	assert.Equal(t, 2, out.Charts[0].Count)
}

func TestView_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/views/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var e ErrorResponse
	decode(t, rec, &e)
	assert.Equal(t, "Not Found", e.Error)

	rec = f.do(t, http.MethodGet, "/api/v1/views/custom?feature=income", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &e)
	assert.Contains(t, e.Message, "invalid selection")
}

func TestDispatch_OnlyDependents(t *testing.T) {
	body := `{"state":{"region-dropdown-scatter":["pacific"]},"changed":["region-dropdown-scatter"]}`
	rec := newFixture(t).do(t, http.MethodPost, "/api/v1/dispatch", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var outputs map[string]json.RawMessage
	decode(t, rec, &outputs)
	assert.Len(t, outputs, 1)
	assert.Contains(t, outputs, "scatter")
}

func TestDispatch_BadBody(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodPost, "/api/v1/dispatch", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = newFixture(t).do(t, http.MethodPost, "/api/v1/dispatch",
		strings.NewReader(`{"state":{"colour":["red"]}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// FILE ENDPOINTS
// ============================================================================

func TestChartPNG(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/charts/barplot.png?region=pacific", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestChartErrors(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/charts/barplot.gif", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/charts/piechart.png", nil).Code)
}

func TestExportCSV_FiltersRegion(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/export.csv?region=new+england", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="gss-respondents.csv"`)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Id,Weight,Sex"))
	assert.True(t, strings.HasPrefix(lines[1], "3,"))
}

func TestExportXLSX_Chart(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/export.xlsx?chart=barplot", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"Sex", "Level of Agreement", "Count"}, rows[0])
}

func TestSummary(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Gender Pay</h1>")
	assert.Contains(t, rec.Body.String(), "<h1>GSS</h1>")
	assert.Contains(t, rec.Body.String(), "3 respondents loaded")
}

func TestProfile(t *testing.T) {
	rec := newFixture(t).do(t, http.MethodGet, "/api/v1/profile?region=pacific", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profiles []schema.ColumnProfile
	decode(t, rec, &profiles)
	byKey := make(map[string]schema.ColumnProfile, len(profiles))
	for _, p := range profiles {
		byKey[p.Key] = p
	}

	income := byKey[gss.FieldIncome]
	assert.Equal(t, 2, income.Total)
	require.NotNil(t, income.Min)
	assert.Equal(t, 45000.0, *income.Min)
	assert.Equal(t, 50000.0, *income.Max)

	sex := byKey[gss.FieldSex]
	assert.Equal(t, 2, sex.Distinct)
	assert.Empty(t, sex.Unexpected)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/v1/views/agreement", nil)
	f.do(t, http.MethodGet, "/api/v1/views/agreement", nil)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gssdash_view_recomputes_total{controller="agreement"} 1`)
	assert.Contains(t, body, `gssdash_view_cache_hits_total{controller="agreement"} 1`)
	assert.Contains(t, body, "gssdash_dataset_rows 3")
	assert.Contains(t, body, `gssdash_http_requests_total{code="200",method="GET",route="/api/v1/views/{id}"} 2`)
}

func TestCORS(t *testing.T) {
	data := testData()
	s := New(data, views.NewDashboard(data), render.NewPlot(render.Size{}), WithCORSOrigins("https://dash.example"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://dash.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://dash.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// ============================================================================
// PANICS / LIFECYCLE
// ============================================================================

type panicController struct{}

func (panicController) ID() string                                   { return "boom" }
func (panicController) Inputs() []string                             { return nil }
func (panicController) Outputs() []string                            { return []string{"boom-chart"} }
func (panicController) Render(views.Selection) (*views.Output, error) { panic("kaboom") }

func TestRecovery(t *testing.T) {
	data := testData()
	dash := views.NewDashboard(data, views.WithControllers(panicController{}))
	s := New(data, dash, render.NewPlot(render.Size{}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/views/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","message":"internal server error"}`, rec.Body.String())
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	client.CloseIdleConnections()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

var _ Data = (*dataset.Dataset)(nil)
var _ views.Recorder = (*Metrics)(nil)
