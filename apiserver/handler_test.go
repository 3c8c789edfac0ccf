package apiserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/internal/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) (*apiServer, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	conf := &cnf.Conf{}
	conf.Model.NumTrees = 15
	conf.MaxUploadSizeMB = 1
	cnf.ApplyDefaults(conf)
	api := newAPIServer(conf, cnf.VersionInfo{Version: "1.0.0"})
	return api, api.engine()
}

func uploadRequest(t *testing.T, data []byte) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "employees.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doJSON(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)

	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, engine *gin.Engine, n int) sessionInfo {
	data, err := fixtures.Workbook(fixtures.Employees(n, 5), "Base")
	require.NoError(t, err)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, uploadRequest(t, data))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var info sessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	return info
}

func TestVersion(t *testing.T) {
	_, engine := testServer(t)
	w := doJSON(engine, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var ver cnf.VersionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ver))
	assert.Equal(t, "1.0.0", ver.Version)
}

func TestSessionWorkflow(t *testing.T) {
	_, engine := testServer(t)
	info := createSession(t, engine, 150)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "Deixou a empresa", info.Roles.Target)
	assert.False(t, info.NeedsConfirmation)
	assert.Contains(t, info.Columns, "Turnover")
	assert.Nil(t, info.Failure)
	base := "/sessions/" + info.ID

	w := doJSON(engine, http.MethodGet, base+"/kpis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var kpis struct {
		Total int     `json:"total"`
		Left  int     `json:"left"`
		Rate  float64 `json:"rate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &kpis))
	assert.Equal(t, 150, kpis.Total)

	w = doJSON(engine, http.MethodGet, base+"/analytics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Turnover_Num")

	w = doJSON(engine, http.MethodGet, base+"/model", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var model modelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &model))
	assert.True(t, model.Available)
	require.NotNil(t, model.Report)
	assert.Equal(t, "Sim", model.Report.Classes[1].Label)

	w = doJSON(engine, http.MethodGet, base+"/simulation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Horas Extras")

	w = doJSON(engine, http.MethodPost, base+"/predict", map[string]any{
		"input": map[string]any{"Horas Extras": "Sim", "Idade": 24},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pred struct {
		Probability float64 `json:"probability"`
		Percent     string  `json:"percent"`
		Risk        string  `json:"risk"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pred))
	assert.True(t, strings.HasSuffix(pred.Percent, "%"))
	assert.Contains(t, []string{"low", "medium", "high"}, pred.Risk)

	w = doJSON(engine, http.MethodGet, base+"/charts/importance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	w = doJSON(engine, http.MethodGet, base+"/charts/correlation?cellSize=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(engine, http.MethodGet, base+"/charts/correlation?cellSize=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(engine, http.MethodGet, base+"/charts/pie", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(engine, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(engine, http.MethodGet, base+"/kpis", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFiltersEndpoint(t *testing.T) {
	_, engine := testServer(t)
	info := createSession(t, engine, 90)
	base := "/sessions/" + info.ID

	w := doJSON(engine, http.MethodGet, base+"/filters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp filtersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 90, resp.NumRows)
	var cols []string
	for _, opt := range resp.Options {
		cols = append(cols, opt.Column)
	}
	assert.Contains(t, cols, "Departamento")
	assert.NotContains(t, cols, "Turnover")

	w = doJSON(engine, http.MethodPut, base+"/filters", map[string]any{
		"filters": map[string][]string{"Departamento": {"Marketing"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.NumRows)
	require.NotNil(t, resp.Failure)

	w = doJSON(engine, http.MethodGet, base+"/analytics", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = doJSON(engine, http.MethodPost, base+"/predict", map[string]any{"input": map[string]any{}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(engine, http.MethodGet, base+"/model", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var model modelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &model))
	assert.False(t, model.Available)
	assert.NotEmpty(t, model.DisabledReason)
}

func TestSetTargetEndpoint(t *testing.T) {
	_, engine := testServer(t)
	info := createSession(t, engine, 80)
	base := "/sessions/" + info.ID

	w := doJSON(engine, http.MethodPut, base+"/target", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(engine, http.MethodPut, base+"/target", map[string]any{"column": "Nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(engine, http.MethodPut, base+"/target", map[string]any{"column": "Horas Extras"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp sessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Horas Extras", resp.TargetColumn)
}

func TestUploadErrors(t *testing.T) {
	api, engine := testServer(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, uploadRequest(t, []byte("definitely not xlsx")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 0, api.sessions.Len())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, uploadRequest(t, bytes.Repeat([]byte{'x'}, 2<<20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetrics(t *testing.T) {
	_, engine := testServer(t)
	createSession(t, engine, 60)
	w := doJSON(engine, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `turnover_uploads_total{result="ok"} 1`)
	assert.Contains(t, body, "turnover_training_duration_seconds_count 1")
	assert.Contains(t, body, "turnover_sessions 1")
	assert.Contains(t, body, "turnover_load_cache_misses_total 1")
}

func TestCORS(t *testing.T) {
	api, engine := testServer(t)
	api.conf.CorsAllowedOrigins = []string{"http://localhost:3000"}
	req := httptest.NewRequest(http.MethodOptions, "/version", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardEchoesOrigin(t *testing.T) {
	api, engine := testServer(t)
	api.conf.CorsAllowedOrigins = []string{"*"}
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("Origin", "https://hr.example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://hr.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/version", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
