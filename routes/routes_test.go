package routes

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyforge/app"
	"surveyforge/config"
	"surveyforge/database"
	"surveyforge/live"
	"surveyforge/model"
)

func newTestApp(t *testing.T) app.App {
	t.Helper()
	cfg := config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return app.App{DB: db, Config: cfg, Hub: live.NewHub()}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var testDefinition = json.RawMessage(`{
	"pages": [{
		"name": "Page 1",
		"elements": [
			{"type": "boolean", "name": "hasCar", "title": "Do you own a car?"},
			{"type": "text", "name": "carModel", "title": "Which model?", "visibleIf": "{hasCar} = 'true'", "isRequired": true}
		]
	}]
}`)

func createTestSurvey(t *testing.T, h http.Handler, refid string) {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/surveys", model.CreateSurveyRequest{
		RefID: refid,
		Name:  "Car ownership",
		Data:  testDefinition,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSurveyCRUD(t *testing.T) {
	h := Wire(newTestApp(t))

	w := doJSON(t, h, http.MethodPost, "/api/surveys", model.CreateSurveyRequest{
		RefID: "cars", Name: "Car ownership", Data: testDefinition,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	created := model.Survey{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "cars", created.RefID)
	assert.False(t, created.CreatedAt.IsZero())

	// the refid is taken now
	w = doJSON(t, h, http.MethodPost, "/api/surveys", model.CreateSurveyRequest{
		RefID: "cars", Name: "Another", Data: testDefinition,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/surveys", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Surveys []model.SurveyInfo `json:"surveys"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Surveys, 1)
	assert.Equal(t, "cars", listing.Surveys[0].RefID)

	w = doJSON(t, h, http.MethodGet, "/api/surveys/cars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := model.Survey{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.JSONEq(t, string(testDefinition), string(fetched.Data))

	w = doJSON(t, h, http.MethodPut, "/api/surveys/cars", model.UpdateSurveyRequest{Name: "Renamed"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/surveys/cars", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "Renamed", fetched.Name)
	// an omitted data field leaves the stored definition alone
	assert.JSONEq(t, string(testDefinition), string(fetched.Data))

	w = doJSON(t, h, http.MethodDelete, "/api/surveys/cars", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, h, http.MethodGet, "/api/surveys/cars", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, h, http.MethodDelete, "/api/surveys/cars", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSurveyValidation(t *testing.T) {
	h := Wire(newTestApp(t))

	w := doJSON(t, h, http.MethodPost, "/api/surveys", model.CreateSurveyRequest{
		Name: "No key", Data: testDefinition,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/surveys", model.CreateSurveyRequest{
		RefID: "bad", Name: "Bad definition", Data: json.RawMessage(`{"pages": [`),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMissingSurvey(t *testing.T) {
	h := Wire(newTestApp(t))
	w := doJSON(t, h, http.MethodPut, "/api/surveys/ghost", model.UpdateSurveyRequest{Name: "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResponseLifecycle(t *testing.T) {
	h := Wire(newTestApp(t))
	createTestSurvey(t, h, "cars")

	w := doJSON(t, h, http.MethodPost, "/api/responses", model.CreateResponseRequest{
		RefID: "cars", Name: "Car ownership",
		Data: json.RawMessage(`{"hasCar": true, "carModel": "Civic"}`),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := model.Response{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.CreatedAt.IsZero())

	w = doJSON(t, h, http.MethodPost, "/api/responses/bulk", model.BulkResponseRequest{
		Responses: []model.CreateResponseRequest{
			{RefID: "cars", Data: json.RawMessage(`{"hasCar": false}`)},
			{RefID: "cars", Data: json.RawMessage(`{"hasCar": true, "carModel": "Model 3"}`)},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var bulk struct {
		Count     int              `json:"count"`
		Responses []model.Response `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bulk))
	assert.Equal(t, 2, bulk.Count)

	w = doJSON(t, h, http.MethodGet, "/api/responses/cars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Count     int              `json:"count"`
		Responses []model.Response `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3, got.Count)

	// deleting the survey cascades to its responses
	w = doJSON(t, h, http.MethodDelete, "/api/surveys/cars", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, h, http.MethodGet, "/api/responses/cars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 0, got.Count)
}

func TestCreateResponseValidation(t *testing.T) {
	h := Wire(newTestApp(t))

	w := doJSON(t, h, http.MethodPost, "/api/responses", model.CreateResponseRequest{
		Data: json.RawMessage(`{"a": 1}`),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/responses/bulk", model.BulkResponseRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportResponsesCSV(t *testing.T) {
	h := Wire(newTestApp(t))
	createTestSurvey(t, h, "cars")

	w := doJSON(t, h, http.MethodPost, "/api/responses/bulk", model.BulkResponseRequest{
		Responses: []model.CreateResponseRequest{
			{RefID: "cars", Name: "Car ownership", Data: json.RawMessage(`{"hasCar": true, "carModel": "Civic"}`)},
			{RefID: "cars", Name: "Car ownership", Data: json.RawMessage(`{"hasCar": false}`)},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/export/cars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=cars_responses.csv", w.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	// answer columns are the sorted union of keys across responses
	assert.Equal(t, []string{"id", "refid", "name", "secname", "created_at", "carModel", "hasCar"}, records[0])

	byCar := map[string][]string{}
	for _, row := range records[1:] {
		byCar[row[6]] = row
	}
	// answer cells hold the literal JSON value
	assert.Equal(t, `"Civic"`, byCar["true"][5])
	assert.Equal(t, "", byCar["false"][5])
	assert.Equal(t, "cars", byCar["true"][1])
}

func TestWriteResponsesCSVMalformedData(t *testing.T) {
	responses := []model.Response{
		{ID: "r1", RefID: "cars", Data: json.RawMessage(`{"a": 1}`)},
		{ID: "r2", RefID: "cars", Data: json.RawMessage(`not json`)},
	}

	w := httptest.NewRecorder()
	require.NoError(t, writeResponsesCSV(w, responses))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "refid", "name", "secname", "created_at", "a"}, records[0])
	// the malformed document still gets its identity row, answers left blank
	assert.Equal(t, "r2", records[2][0])
	assert.Equal(t, "", records[2][5])
}
