package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"truckdrive-api/config"
	"truckdrive-api/models"
	"truckdrive-api/routes"

	"github.com/gin-gonic/gin"
)

// setupRouter wires the full route table against a fresh in-memory
// database named after the test, so tests never share state
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	name := strings.ReplaceAll(t.Name(), "/", "_")
	t.Setenv("DB_PATH", "file:"+name+"?mode=memory&cache=shared")
	config.Load()
	config.InitDB()

	r := gin.New()
	routes.SetupRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func registerUser(t *testing.T, r *gin.Engine, name, email string, role models.UserRole) (token string, userID uint) {
	t.Helper()
	w, resp := doJSON(t, r, "POST", "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"phone":    "+15550000",
		"role":     role,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", email, w.Code, w.Body.String())
	}
	user := resp["user"].(map[string]interface{})
	return resp["token"].(string), uint(user["id"].(float64))
}

// setupDriver registers a driver account, creates its profile and
// puts it in the given city with a fresh location update
func setupDriver(t *testing.T, r *gin.Engine, name, email, city string) (token string, driverID uint) {
	t.Helper()
	token, _ = registerUser(t, r, name, email, models.RoleDriver)

	w, resp := doJSON(t, r, "POST", "/api/driver/profile", token, gin.H{
		"truck_type":    "medium",
		"truck_model":   "Ford Transit",
		"license_plate": "ABC-123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create driver profile: status %d, body %s", w.Code, w.Body.String())
	}
	driver := resp["driver"].(map[string]interface{})
	driverID = uint(driver["id"].(float64))

	w, _ = doJSON(t, r, "PUT", "/api/driver/location", token, gin.H{
		"location": "Depot 4, " + city + ", MA",
		"city":     city,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update location: status %d, body %s", w.Code, w.Body.String())
	}
	return token, driverID
}

// createRequest posts a delivery request as the customer and returns its id
func createRequest(t *testing.T, r *gin.Engine, token, pickup string) uint {
	t.Helper()
	w, resp := doJSON(t, r, "POST", "/api/customer/requests", token, gin.H{
		"pickup_location":   pickup,
		"delivery_location": "9 Harbor Rd, Portland, ME",
		"cargo_description": "Pallets of tile",
		"truck_type":        "medium",
		"proposed_price":    250.0,
		"requested_date":    "2026-09-01",
		"requested_time":    "09:00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create request: status %d, body %s", w.Code, w.Body.String())
	}
	request := resp["request"].(map[string]interface{})
	return uint(request["id"].(float64))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
