//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/edanalytica/gradelens-backend/internal/model"
)

// The suite runs against a live server: start it with a loaded dataset and
// export ANALYST_EMAIL / ANALYST_PASSWORD matching the server's credentials
// (the server holds the bcrypt hash, the suite holds the plaintext).

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	defaultEmail   = "analyst@example.com"
	defaultPass    = "password123"
)

var (
	baseURL      string
	analystEmail string
	analystPass  string
	authToken    string

	firstDepartment string
	unfilteredRows  int
	loadGeneration  uint64
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	analystEmail = os.Getenv("ANALYST_EMAIL")
	if analystEmail == "" {
		analystEmail = defaultEmail
	}
	analystPass = os.Getenv("ANALYST_PASSWORD")
	if analystPass == "" {
		analystPass = defaultPass
	}

	os.Exit(m.Run())
}

func TestE2EFlow(t *testing.T) {
	// Step 1: Health (served at the root, outside the API prefix)
	t.Run("Health", func(t *testing.T) {
		healthURL := strings.TrimSuffix(baseURL, "/api/v1") + "/health"
		resp, err := http.Get(healthURL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
		t.Logf("Server healthy")
	})

	// Step 2: Reject bad credentials
	t.Run("BadLogin", func(t *testing.T) {
		reqBody := model.LoginRequest{
			Email:    analystEmail,
			Password: "definitely-not-it",
		}
		resp, err := post("/auth/login", reqBody, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d. Body: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 3: Login as Analyst
	t.Run("Login", func(t *testing.T) {
		reqBody := model.LoginRequest{
			Email:    analystEmail,
			Password: analystPass,
		}
		resp, err := post("/auth/login", reqBody, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Token string `json:"token"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		authToken = body.Data.Token
		if authToken == "" {
			t.Fatal("token missing")
		}
		t.Logf("Analyst token received")
	})

	// Step 4: Reject missing token
	t.Run("Unauthorized", func(t *testing.T) {
		resp, err := get("/dashboard/meta", "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected status 401 without token, got %d", resp.StatusCode)
		}
	})

	// Step 5: Dashboard Meta
	t.Run("Meta", func(t *testing.T) {
		resp, err := get("/dashboard/meta", authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Meta model.DashboardMeta `json:"meta"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		meta := body.Data.Meta
		if meta.YearMin > meta.YearMax {
			t.Errorf("year_min %d > year_max %d", meta.YearMin, meta.YearMax)
		}
		if len(meta.Departments) == 0 {
			t.Fatal("meta has no departments")
		}
		if meta.Dataset.Rows == 0 {
			t.Fatal("dataset reports zero rows")
		}
		firstDepartment = meta.Departments[0]
		loadGeneration = meta.Dataset.Generation
		t.Logf("Dataset: %d rows, years %d-%d", meta.Dataset.Rows, meta.YearMin, meta.YearMax)
	})

	// Step 6: Unfiltered bundle view
	t.Run("FullView", func(t *testing.T) {
		resp, err := post("/dashboard/view", model.FilterState{}, authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				View model.DashboardView `json:"view"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		view := body.Data.View
		if view.Overview == nil {
			t.Fatal("overview missing on unfiltered view")
		}
		if view.Overview.Rows == 0 {
			t.Fatal("unfiltered view has zero rows")
		}
		if view.GradeTrend == nil || len(view.GradeTrend.Points) == 0 {
			t.Fatal("grade_trend is empty")
		}
		if view.Overview.MeanGradeDisplay == "" {
			t.Error("mean_grade_display is empty")
		}
		unfilteredRows = view.Overview.Rows
		t.Logf("Full view: %d rows, %d trend points", view.Overview.Rows, len(view.GradeTrend.Points))
	})

	// Step 7: Department-filtered view shrinks the selection
	t.Run("FilteredView", func(t *testing.T) {
		reqBody := model.FilterState{Departments: []string{firstDepartment}}
		resp, err := post("/dashboard/view", reqBody, authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				View model.DashboardView `json:"view"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		view := body.Data.View
		if view.Overview == nil {
			t.Fatalf("overview missing for department %q", firstDepartment)
		}
		if view.Overview.Rows == 0 || view.Overview.Rows > unfilteredRows {
			t.Errorf("filtered rows %d, want 1..%d", view.Overview.Rows, unfilteredRows)
		}
	})

	// Step 8: Empty allowlist yields a warning, not an error
	t.Run("EmptySelectionWarning", func(t *testing.T) {
		resp, err := get("/dashboard/trend?departments=", authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data    json.RawMessage `json:"data"`
			Warning *struct {
				Code string `json:"code"`
			} `json:"warning"`
		}
		decodeJSON(t, resp, &body)
		if body.Warning == nil || body.Warning.Code != "EMPTY_SELECTION" {
			t.Errorf("Expected EMPTY_SELECTION warning, got %+v", body.Warning)
		}
		if string(body.Data) != "null" {
			t.Errorf("Expected null data for empty selection, got %s", body.Data)
		}
	})

	// Step 9: Unknown grouping field is a 400
	t.Run("UnknownTrendField", func(t *testing.T) {
		resp, err := get("/dashboard/trend/by?field=favorite_color", authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400 for unknown field, got %d. Body: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 10: Records pagination
	t.Run("RecordsPagination", func(t *testing.T) {
		resp, err := get("/dashboard/records?page=1&per_page=5", authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Records []model.Record `json:"records"`
			} `json:"data"`
			Pagination struct {
				Page       int `json:"page"`
				PerPage    int `json:"per_page"`
				TotalItems int `json:"total_items"`
				TotalPages int `json:"total_pages"`
			} `json:"pagination"`
		}
		decodeJSON(t, resp, &body)
		if len(body.Data.Records) > 5 {
			t.Errorf("Expected at most 5 records, got %d", len(body.Data.Records))
		}
		if body.Pagination.TotalItems == 0 {
			t.Error("pagination reports zero total items")
		}
		if body.Pagination.Page != 1 || body.Pagination.PerPage != 5 {
			t.Errorf("Expected page 1 per_page 5, got %d/%d", body.Pagination.Page, body.Pagination.PerPage)
		}
		t.Logf("Records: %d total across %d pages", body.Pagination.TotalItems, body.Pagination.TotalPages)
	})

	// Step 11: Identical requests return identical bodies (cache-transparent)
	t.Run("RepeatedViewStable", func(t *testing.T) {
		first, err := post("/dashboard/view", model.FilterState{}, authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		firstBody := readBody(first)
		first.Body.Close()

		second, err := post("/dashboard/view", model.FilterState{}, authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer second.Body.Close()
		secondBody := readBody(second)

		if firstBody != secondBody {
			t.Error("repeated identical view requests returned different bodies")
		}
		if hit := second.Header.Get("X-Cache"); hit != "" && hit != "HIT" {
			t.Errorf("Unexpected X-Cache header %q", hit)
		}
	})

	// Step 12: Dataset reload bumps the generation
	t.Run("Reload", func(t *testing.T) {
		resp, err := post("/admin/dataset/reload", nil, authToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Dataset model.DatasetInfo `json:"dataset"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		if body.Data.Dataset.Generation <= loadGeneration {
			t.Errorf("Expected generation > %d after reload, got %d", loadGeneration, body.Data.Dataset.Generation)
		}
		t.Logf("Reloaded: generation %d, %d rows", body.Data.Dataset.Generation, body.Data.Dataset.Rows)
	})
}

// Helpers

func post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest("POST", baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func get(path string, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
