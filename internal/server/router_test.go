package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopfloor/measure-backend/internal/http/handlers"
	"github.com/shopfloor/measure-backend/internal/query"
	"github.com/shopfloor/measure-backend/internal/repos"
	"github.com/shopfloor/measure-backend/internal/repos/testutil"
	"github.com/shopfloor/measure-backend/internal/schema"
	"github.com/shopfloor/measure-backend/internal/server"
	"github.com/shopfloor/measure-backend/internal/services"
	"github.com/shopfloor/measure-backend/internal/sessions"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	log := testutil.Logger(t)

	shaftRepo := repos.NewMeasuredShaftRepo(db, log)
	housingRepo := repos.NewMeasuredHousingRepo(db, log)
	entryRepo := repos.NewUserEntryRepo(db, log)
	store := sessions.NewStore(time.Hour, log)
	catalog := schema.NewCatalog(db, log)
	engine := query.NewEngine(db, catalog, log)

	measurementService := services.NewMeasurementService(db, log, shaftRepo, housingRepo)
	userEntryService := services.NewUserEntryService(db, log, entryRepo, store)

	assetsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(assetsDir, "shaft"), 0o755); err != nil {
		t.Fatalf("creating assets dir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(assetsDir, "shaft", "clip.mp4"), []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("writing test video failed: %v", err)
	}

	return server.NewRouter(server.RouterConfig{
		Log:                log,
		HealthHandler:      handlers.NewHealthHandler(),
		MeasurementHandler: handlers.NewMeasurementHandler(measurementService, true),
		UserEntryHandler:   handlers.NewUserEntryHandler(userEntryService, true),
		DBAdminHandler:     handlers.NewDBAdminHandler(catalog, engine, true),
		VideoHandler:       handlers.NewVideoHandler(assetsDir, log, true),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response %q failed: %v", rec.Body.String(), err)
	}
	return payload
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	payload := decode(t, rec)
	envelope, ok := payload["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no error envelope: %q", rec.Body.String())
	}
	message, _ := envelope["message"].(string)
	return message
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthcheck", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=(%d, %q)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("root: got=%d want=200", rec.Code)
	}
	if got := decode(t, rec)["message"]; got != "Video API Server is running" {
		t.Fatalf("unexpected root message: %v", got)
	}
}

func TestShaftMeasurementFlow(t *testing.T) {
	router := newTestRouter(t)
	body := map[string]interface{}{
		"product_id":   "S1",
		"roll_number":  "R1",
		"shaft_height": 25.5,
		"shaft_radius": 12.3,
	}

	rec := doJSON(t, router, http.MethodPost, "/shaft_measurement", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("insert: got=%d want=200 body=%s", rec.Code, rec.Body.String())
	}
	payload := decode(t, rec)
	if payload["status"] != "shaft measurement added" || payload["product_id"] != "S1" {
		t.Fatalf("unexpected insert response: %v", payload)
	}

	rec = doJSON(t, router, http.MethodPost, "/shaft_measurement", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate insert: got=%d want=409", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "product_id already exists for shaft measurements" {
		t.Fatalf("unexpected conflict message: %q", msg)
	}

	rec = doJSON(t, router, http.MethodPut, "/shaft_measurement", map[string]interface{}{
		"product_id":   "S1",
		"shaft_height": 26.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got=%d want=200 body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/shaft_measurement", nil)
	payload = decode(t, rec)
	data, ok := payload["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Fatalf("unexpected list payload: %v", payload)
	}
	row := data[0].(map[string]interface{})
	if row["shaft_height"] != 26.0 {
		t.Fatalf("update not visible in list: %v", row)
	}
	if row["shaft_radius"] != 12.3 {
		t.Fatalf("untouched field changed: %v", row)
	}

	rec = doJSON(t, router, http.MethodDelete, "/shaft_measurement", nil)
	if got := decode(t, rec)["status"]; got != "measured_shafts CSV deleted" {
		t.Fatalf("unexpected clear status: %v", got)
	}
	rec = doJSON(t, router, http.MethodGet, "/shaft_measurement", nil)
	if data, _ := decode(t, rec)["data"].([]interface{}); len(data) != 0 {
		t.Fatalf("table not cleared: %v", data)
	}
}

func TestHousingValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/housing_measurement", map[string]interface{}{
		"product_id":     "H1",
		"roll_number":    "R1",
		"housing_type":   "hexagonal",
		"housing_height": 40.0,
		"housing_radius": 15.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid type: got=%d want=400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Invalid housing type" {
		t.Fatalf("unexpected message: %q", msg)
	}

	rec = doJSON(t, router, http.MethodPost, "/housing_measurement", map[string]interface{}{
		"product_id":     "H1",
		"roll_number":    "R1",
		"housing_type":   "oval",
		"housing_height": 40.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing field: got=%d want=400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Missing field: housing_radius" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestProductExists(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/shaft_measurement", map[string]interface{}{
		"product_id":   "S1",
		"roll_number":  "R1",
		"shaft_height": 25.5,
		"shaft_radius": 12.3,
	})

	rec := doJSON(t, router, http.MethodGet, "/product_exists?product_id=S1&measurement_type=shaft", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["exists"] != true {
		t.Fatalf("exists check: code=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/product_exists?product_id=S1&measurement_type=housing", nil)
	if decode(t, rec)["exists"] != false {
		t.Fatalf("housing side should be free: %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/product_exists?measurement_type=shaft", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing product_id: got=%d want=400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/product_exists?product_id=S1&measurement_type=bearing", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad measurement_type: got=%d want=400", rec.Code)
	}
}

func TestCalibrationSessionFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/user_entry", map[string]interface{}{
		"roll_number": "R1",
		"name":        "Alice",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("start entry: got=%d body=%s", rec.Code, rec.Body.String())
	}
	started := decode(t, rec)
	if started["status"] != "new_user" || started["should_calibrate"] != true {
		t.Fatalf("unexpected start payload: %v", started)
	}
	sessionID, _ := started["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("no session_id in %v", started)
	}

	// Nothing durable yet.
	rec = doJSON(t, router, http.MethodGet, "/user_entry", nil)
	if got := decode(t, rec)["status"]; got != "no records found" {
		t.Fatalf("entry written before completion: %v", got)
	}

	rec = doJSON(t, router, http.MethodGet, "/user_entry/session/"+sessionID, nil)
	if got := decode(t, rec)["status"]; got != sessions.StatusPendingCalibration {
		t.Fatalf("unexpected session status: %v", got)
	}

	rec = doJSON(t, router, http.MethodPost, "/user_entry/complete_calibration", map[string]interface{}{
		"session_id": sessionID,
	})
	completed := decode(t, rec)
	if completed["status"] != "calibration_completed" || completed["roll_number"] != "R1" {
		t.Fatalf("unexpected completion payload: %v", completed)
	}

	rec = doJSON(t, router, http.MethodPost, "/user_entry/complete_calibration", map[string]interface{}{
		"session_id": sessionID,
	})
	if got := decode(t, rec)["status"]; got != "already_completed" {
		t.Fatalf("repeat completion: %v", got)
	}

	rec = doJSON(t, router, http.MethodGet, "/user_entry", nil)
	payload := decode(t, rec)
	if payload["status"] != "success" {
		t.Fatalf("entry not durable after completion: %v", payload)
	}

	rec = doJSON(t, router, http.MethodGet, "/user_entry/should_calibrate?roll_number=R1", nil)
	if got := decode(t, rec)["should_calibrate"]; got != false {
		t.Fatalf("fresh calibration should not need another: %v", got)
	}

	rec = doJSON(t, router, http.MethodPost, "/user_entry/complete_calibration", map[string]interface{}{
		"session_id": "does-not-exist",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: got=%d want=404", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Session not found or expired" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestSchemaAndQueryEndpoints(t *testing.T) {
	router := newTestRouter(t)
	doJSON(t, router, http.MethodPost, "/shaft_measurement", map[string]interface{}{
		"product_id":   "S1",
		"roll_number":  "R1",
		"shaft_height": 25.5,
		"shaft_radius": 12.3,
	})

	rec := doJSON(t, router, http.MethodGet, "/db/schema/tables", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tables: got=%d body=%s", rec.Code, rec.Body.String())
	}
	tables, _ := decode(t, rec)["tables"].([]interface{})
	found := false
	for _, table := range tables {
		if table == "measured_shafts" {
			found = true
		}
	}
	if !found {
		t.Fatalf("measured_shafts missing from %v", tables)
	}

	rec = doJSON(t, router, http.MethodGet, "/db/schema/tables/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("describe unknown table: got=%d want=404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/db/query/select", map[string]interface{}{
		"table":   "measured_shafts",
		"columns": []string{"product_id", "shaft_height"},
		"filters": map[string]interface{}{"product_id": "S1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("select: got=%d body=%s", rec.Code, rec.Body.String())
	}
	payload := decode(t, rec)
	if payload["count"] != 1.0 {
		t.Fatalf("unexpected select payload: %v", payload)
	}

	rec = doJSON(t, router, http.MethodPost, "/db/query/update", map[string]interface{}{
		"table":   "measured_shafts",
		"set":     map[string]interface{}{"shaft_height": 30.0},
		"filters": map[string]interface{}{"product_id": "S1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["updated"]; got != 1.0 {
		t.Fatalf("unexpected update payload: %v", got)
	}

	rec = doJSON(t, router, http.MethodPost, "/db/query/update", map[string]interface{}{
		"table": "measured_shafts",
		"set":   map[string]interface{}{"shaft_height": 30.0},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("filterless update: got=%d want=400", rec.Code)
	}
}

func TestVideoEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/video/list/shaft", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list videos: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var files []string
	if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
		t.Fatalf("decoding file list failed: %v", err)
	}
	if len(files) != 1 || files[0] != "clip.mp4" {
		t.Fatalf("unexpected file list: %v", files)
	}

	rec = doJSON(t, router, http.MethodGet, "/video/shaft/clip.mp4", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "0123456789" {
		t.Fatalf("full stream: got=(%d, %q)", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/video/shaft/clip.mp4", nil)
	req.Header.Set("Range", "bytes=2-5")
	ranged := httptest.NewRecorder()
	router.ServeHTTP(ranged, req)
	if ranged.Code != http.StatusPartialContent {
		t.Fatalf("range request: got=%d want=206", ranged.Code)
	}
	if ranged.Body.String() != "2345" {
		t.Fatalf("unexpected range body: %q", ranged.Body.String())
	}
	if got := ranged.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Fatalf("unexpected Content-Range: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/video/shaft/clip.mp4", nil)
	req.Header.Set("Range", "bytes=99-120")
	unsatisfiable := httptest.NewRecorder()
	router.ServeHTTP(unsatisfiable, req)
	if unsatisfiable.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("unsatisfiable range: got=%d want=416", unsatisfiable.Code)
	}

	req = httptest.NewRequest(http.MethodHead, "/video/shaft/clip.mp4", nil)
	head := httptest.NewRecorder()
	router.ServeHTTP(head, req)
	if head.Code != http.StatusOK || head.Body.Len() != 0 {
		t.Fatalf("HEAD request: got=(%d, %d bytes)", head.Code, head.Body.Len())
	}

	rec = doJSON(t, router, http.MethodGet, "/video/shaft/missing.mp4", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing file: got=%d want=404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/video/bearing/clip.mp4", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown category: got=%d want=404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/housing_types", nil)
	types, _ := decode(t, rec)["housing_types"].([]interface{})
	if len(types) != 3 || types[1] != "sqaure" {
		t.Fatalf("unexpected housing types: %v", types)
	}
}
