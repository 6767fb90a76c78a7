package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sdgtrack/internal/models"
	"sdgtrack/internal/tracker"
)

func fptr(v float64) *float64 { return &v }

// seedProgressGoal builds a goal with one configured indicator (value 80
// against target 160 -> 50%) and one binding with no rule.
func seedProgressGoal(t *testing.T, gdb *gorm.DB) (goalID, configuredID, unconfiguredID uint) {
	t.Helper()

	goal := models.Goal{Number: 4, Title: "Quality Education"}
	if err := gdb.Create(&goal).Error; err != nil {
		t.Fatalf("create goal: %v", err)
	}
	enrolled := models.Indicator{Name: "Students Enrolled", Status: models.StatusActive}
	bare := models.Indicator{Name: "Bare Indicator", Status: models.StatusPending}
	for _, ind := range []*models.Indicator{&enrolled, &bare} {
		if err := gdb.Create(ind).Error; err != nil {
			t.Fatalf("create indicator: %v", err)
		}
	}
	configured := models.GoalIndicator{GoalID: goal.ID, IndicatorID: enrolled.ID, Target: fptr(160)}
	unconfigured := models.GoalIndicator{GoalID: goal.ID, IndicatorID: bare.ID, Target: fptr(10)}
	for _, gi := range []*models.GoalIndicator{&configured, &unconfigured} {
		if err := gdb.Create(gi).Error; err != nil {
			t.Fatalf("create binding: %v", err)
		}
	}
	field := models.RequiredData{Name: "Enrollment Count"}
	if err := gdb.Create(&field).Error; err != nil {
		t.Fatalf("create field: %v", err)
	}
	if err := gdb.Model(&configured).Association("RequiredData").Append(&field); err != nil {
		t.Fatalf("bind field: %v", err)
	}
	rule := models.ComputationRule{GoalIndicatorID: &configured.ID, Formula: "enrollment_count"}
	if err := gdb.Create(&rule).Error; err != nil {
		t.Fatalf("create rule: %v", err)
	}
	obs := models.RequiredDataValue{
		RecordUID:       uuid.New(),
		RequiredDataID:  field.ID,
		GoalIndicatorID: &configured.ID,
		Value:           80,
		MeasuredAt:      datatypes.Date(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	if err := gdb.Create(&obs).Error; err != nil {
		t.Fatalf("create observation: %v", err)
	}
	return goal.ID, configured.ID, unconfigured.ID
}

func progressRouter(svc *tracker.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/goals/:id/progress", GoalProgressHandler(svc))
	r.GET("/goals/:id/indicators/:gi/tree", IndicatorTreeHandler(svc))
	r.GET("/goals/:id/indicators/:gi/trend", IndicatorTrendHandler(svc))
	r.GET("/projects/:id/progress", ProjectProgressHandler(svc))
	return r
}

func TestGoalProgressHandler(t *testing.T) {
	gdb := setupUserDB(t)
	goalID, _, _ := seedProgressGoal(t, gdb)
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", fmt.Sprintf("/goals/%d/progress", goalID), nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	// Mean of 50% (configured) and 0% (unconfigured).
	if !contains(body, `"overall":25`) {
		t.Errorf("expected overall 25, got: %s", body)
	}
	if !contains(body, "Students Enrolled") || !contains(body, "not_configured") {
		t.Errorf("expected both indicator rows, got: %s", body)
	}
}

func TestGoalProgressHandler_NotFound(t *testing.T) {
	gdb := setupUserDB(t)
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/goals/9999/progress", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 Not Found, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGoalProgressHandler_BadID(t *testing.T) {
	gdb := setupUserDB(t)
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/goals/abc/progress", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIndicatorTreeHandler(t *testing.T) {
	gdb := setupUserDB(t)
	goalID, configuredID, _ := seedProgressGoal(t, gdb)
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", fmt.Sprintf("/goals/%d/indicators/%d/tree", goalID, configuredID), nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), `"value":80`) {
		t.Errorf("expected resolved root value 80, got: %s", w.Body.String())
	}
}

func TestIndicatorTrendHandler_YearBuckets(t *testing.T) {
	gdb := setupUserDB(t)
	goalID, configuredID, _ := seedProgressGoal(t, gdb)
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET",
		fmt.Sprintf("/goals/%d/indicators/%d/trend?granularity=year", goalID, configuredID), nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if !contains(w.Body.String(), `"period":"2024"`) {
		t.Errorf("expected a 2024 bucket, got: %s", w.Body.String())
	}
}

func TestIndicatorTrendHandler_BadGranularity(t *testing.T) {
	gdb := setupUserDB(t)
	goalID, configuredID, _ := seedProgressGoal(t, gdb)
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET",
		fmt.Sprintf("/goals/%d/indicators/%d/trend?granularity=week", goalID, configuredID), nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIndicatorTrendHandler_NoData(t *testing.T) {
	gdb := setupUserDB(t)
	goalID, _, unconfiguredID := seedProgressGoal(t, gdb)
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET",
		fmt.Sprintf("/goals/%d/indicators/%d/trend", goalID, unconfiguredID), nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 Not Found, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIndicatorHandlers_ForeignGoalBindingIsNotFound(t *testing.T) {
	gdb := setupUserDB(t)
	_, configuredID, _ := seedProgressGoal(t, gdb)
	other := models.Goal{Number: 15, Title: "Life on Land"}
	if err := gdb.Create(&other).Error; err != nil {
		t.Fatalf("create goal: %v", err)
	}
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	for _, path := range []string{
		fmt.Sprintf("/goals/%d/indicators/%d/tree", other.ID, configuredID),
		fmt.Sprintf("/goals/%d/indicators/%d/trend", other.ID, configuredID),
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", path, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 for a binding under another goal, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestProjectProgressHandler_NotFound(t *testing.T) {
	gdb := setupUserDB(t)
	svc := tracker.NewService(gdb, nil, 4)
	r := progressRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/projects/42/progress", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 Not Found, got %d: %s", w.Code, w.Body.String())
	}
}
