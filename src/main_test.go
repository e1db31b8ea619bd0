package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"hms/src/allocator"
	"hms/src/db"
	"hms/src/middlewares"
	"hms/src/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type TestSuite struct {
	suite.Suite
	DB      *gorm.DB
	Router  *gin.Engine
	Gateway *allocator.AllocationGateway
	Token   string
}

func newSQLiteDB() *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("error opening test database: %s", err.Error())
	}
	inner, err := gdb.DB()
	if err != nil {
		log.Fatalf("error accessing inner db instance: %s", err.Error())
	}
	inner.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(
		&models.Bed{},
		&models.BedAllocation{},
		&models.BedTransfer{},
		&models.Theatre{},
		&models.Surgery{},
		&models.BloodUnit{},
		&models.BloodRequest{},
		&models.BloodIssue{},
		&models.Donor{},
	); err != nil {
		log.Fatalf("error migrating test database: %s", err.Error())
	}
	return gdb
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret")
	registerValidators()

	token, err := generateJWT("Test Clinician", "doctor", "staff-42")
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.Token = token
}

func (s *TestSuite) SetupTest() {
	s.DB = newSQLiteDB()
	db.NewDB(s.DB)
	s.Gateway = allocator.NewAllocationGateway(s.DB, nil)

	router := setupRouter()
	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		bedHandlers(authorized, s.Gateway)
		theatreHandlers(authorized, s.Gateway)
		bloodHandlers(authorized, s.Gateway)
	}
	s.Router = router
}

func (s *TestSuite) request(method, target string, body map[string]any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPingRoute() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestRejectsMissingToken() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/beds", nil)
	s.Router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestRejectsMalformedAuthorizationHeader() {
	// a bare scheme with no token must come back 401, not crash the handler
	for _, header := range []string{"Bearer", "Bearer ", "Token abc"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/beds", nil)
		req.Header.Set("Authorization", header)
		s.Router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	}
}

func (s *TestSuite) TestBedAdmissionFlow() {
	w := s.request("POST", "/api/v1/beds", map[string]any{
		"bed_number": "ICU-101",
		"ward":       "ICU",
		"floor":      2,
	})
	assert.Equal(s.T(), 201, w.Code)
	body := w.Body.String()
	assert.True(s.T(), gjson.Get(body, "success").Bool())
	bedID := gjson.Get(body, "data.id").Uint()

	w = s.request("POST", "/api/v1/beds/allocate", map[string]any{
		"bed":      bedID,
		"patient":  "PAT-1001",
		"severity": "critical",
	})
	assert.Equal(s.T(), 201, w.Code)
	body = w.Body.String()
	assert.True(s.T(), gjson.Get(body, "success").Bool())
	assert.Equal(s.T(), "active", gjson.Get(body, "data.status").String())
	assert.Equal(s.T(), "staff-42", gjson.Get(body, "data.admitted_by").String())
	stayID := gjson.Get(body, "data.id").Uint()

	// the bed is taken now
	w = s.request("POST", "/api/v1/beds/allocate", map[string]any{
		"bed":      bedID,
		"patient":  "PAT-1002",
		"severity": "stable",
	})
	assert.Equal(s.T(), 400, w.Code)
	assert.False(s.T(), gjson.Get(w.Body.String(), "success").Bool())

	w = s.request("POST", "/api/v1/beds/discharge/"+strconv.FormatUint(stayID, 10), nil)
	assert.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "discharged", gjson.Get(w.Body.String(), "data.status").String())

	// discharge is not repeatable
	w = s.request("POST", "/api/v1/beds/discharge/"+strconv.FormatUint(stayID, 10), nil)
	assert.Equal(s.T(), 404, w.Code)
}

func (s *TestSuite) TestAllocateMissingBed() {
	w := s.request("POST", "/api/v1/beds/allocate", map[string]any{
		"bed":      9999,
		"patient":  "PAT-1001",
		"severity": "stable",
	})
	assert.Equal(s.T(), 404, w.Code)
	assert.False(s.T(), gjson.Get(w.Body.String(), "success").Bool())
}

func (s *TestSuite) TestBedValidation() {
	w := s.request("POST", "/api/v1/beds", map[string]any{
		"bed_number": "X-1",
		"ward":       "Cardiology",
		"floor":      1,
	})
	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestBedDashboard() {
	w := s.request("POST", "/api/v1/beds", map[string]any{
		"bed_number": "GEN-201",
		"ward":       "General",
		"floor":      1,
	})
	assert.Equal(s.T(), 201, w.Code)

	w = s.request("GET", "/api/v1/beds/dashboard", nil)
	assert.Equal(s.T(), 200, w.Code)
	body := w.Body.String()
	assert.True(s.T(), gjson.Get(body, "success").Bool())
	assert.Equal(s.T(), "General", gjson.Get(body, "data.0.ward").String())
	assert.Equal(s.T(), int64(1), gjson.Get(body, "data.0.available").Int())
}

func (s *TestSuite) createTheatre() uint {
	w := s.request("POST", "/api/v1/theatres", map[string]any{
		"name":   "OT-1",
		"number": 1,
		"floor":  3,
		"type":   "general",
	})
	assert.Equal(s.T(), 201, w.Code)
	return uint(gjson.Get(w.Body.String(), "data.id").Uint())
}

func surgeryBody(theatreID uint, start, end string) map[string]any {
	return map[string]any{
		"theatre":        theatreID,
		"patient":        "PAT-2001",
		"lead_surgeon":   "dr-reyes",
		"procedure_name": "appendectomy",
		"procedure_type": "elective",
		"scheduled_date": "2026-09-01",
		"start_time":     start,
		"end_time":       end,
	}
}

func (s *TestSuite) TestSurgeryConflictRoute() {
	theatreID := s.createTheatre()

	w := s.request("POST", "/api/v1/surgeries", surgeryBody(theatreID, "09:00", "11:00"))
	assert.Equal(s.T(), 201, w.Code)
	first := gjson.Get(w.Body.String(), "data.surgery_id").String()
	assert.Contains(s.T(), first, "SUR-")

	w = s.request("POST", "/api/v1/surgeries", surgeryBody(theatreID, "10:00", "12:00"))
	assert.Equal(s.T(), 409, w.Code)
	body := w.Body.String()
	assert.False(s.T(), gjson.Get(body, "success").Bool())
	assert.Equal(s.T(), first, gjson.Get(body, "conflict.surgery_id").String())
}

func (s *TestSuite) TestSurgeryClockValidation() {
	theatreID := s.createTheatre()

	// unpadded clock values are rejected before they can corrupt
	// the string comparison
	w := s.request("POST", "/api/v1/surgeries", surgeryBody(theatreID, "9:00", "11:00"))
	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestSurgeryStatusRoute() {
	theatreID := s.createTheatre()
	w := s.request("POST", "/api/v1/surgeries", surgeryBody(theatreID, "09:00", "11:00"))
	assert.Equal(s.T(), 201, w.Code)
	surgeryID := gjson.Get(w.Body.String(), "data.id").Uint()

	target := "/api/v1/surgeries/" + strconv.FormatUint(surgeryID, 10)
	w = s.request("PATCH", target, map[string]any{"status": "completed"})
	assert.Equal(s.T(), 400, w.Code)

	w = s.request("PATCH", target, map[string]any{"status": "in-progress"})
	assert.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), "in-progress", gjson.Get(w.Body.String(), "data.status").String())

	w = s.request("PATCH", "/api/v1/surgeries/9999", map[string]any{"status": "in-progress"})
	assert.Equal(s.T(), 404, w.Code)
}

func (s *TestSuite) createAvailableUnit(group string) uint {
	expiry := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	collected := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	w := s.request("POST", "/api/v1/blood/units", map[string]any{
		"blood_group":     group,
		"collection_date": collected,
		"expiry_date":     expiry,
	})
	assert.Equal(s.T(), 201, w.Code)
	id := uint(gjson.Get(w.Body.String(), "data.id").Uint())
	assert.Equal(s.T(), "testing", gjson.Get(w.Body.String(), "data.status").String())

	w = s.request("PATCH", "/api/v1/blood/units/"+strconv.FormatUint(uint64(id), 10), map[string]any{
		"status": "available",
	})
	assert.Equal(s.T(), 200, w.Code)
	return id
}

func (s *TestSuite) TestBloodRequestFlow() {
	s.createAvailableUnit("O-")

	w := s.request("POST", "/api/v1/blood/requests", map[string]any{
		"patient":        "PAT-3001",
		"blood_group":    "O-",
		"units_required": 1,
	})
	assert.Equal(s.T(), 201, w.Code)
	requestID := gjson.Get(w.Body.String(), "data.id").Uint()
	assert.Equal(s.T(), "pending", gjson.Get(w.Body.String(), "data.status").String())

	w = s.request("PATCH", "/api/v1/blood/requests/"+strconv.FormatUint(requestID, 10)+"/fulfill", map[string]any{})
	assert.Equal(s.T(), 200, w.Code)
	body := w.Body.String()
	assert.Equal(s.T(), "fulfilled", gjson.Get(body, "data.status").String())
	assert.Equal(s.T(), int64(1), gjson.Get(body, "data.units_issued").Int())
}

func (s *TestSuite) TestBloodInsufficientInventory() {
	s.createAvailableUnit("A+")

	w := s.request("POST", "/api/v1/blood/requests", map[string]any{
		"patient":        "PAT-3002",
		"blood_group":    "A+",
		"units_required": 3,
	})
	assert.Equal(s.T(), 201, w.Code)
	requestID := gjson.Get(w.Body.String(), "data.id").Uint()

	w = s.request("PATCH", "/api/v1/blood/requests/"+strconv.FormatUint(requestID, 10)+"/fulfill", map[string]any{})
	assert.Equal(s.T(), 409, w.Code)
	body := w.Body.String()
	assert.False(s.T(), gjson.Get(body, "success").Bool())
	assert.Equal(s.T(), int64(1), gjson.Get(body, "available").Int())
	assert.Equal(s.T(), int64(3), gjson.Get(body, "required").Int())
}

func (s *TestSuite) TestBloodGroupValidation() {
	w := s.request("POST", "/api/v1/blood/requests", map[string]any{
		"patient":        "PAT-3003",
		"blood_group":    "C+",
		"units_required": 1,
	})
	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func TestTestSuite(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
