package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	// allow callers to pass nil for body safely
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	initDB()
	tmp := t.TempDir()
	_ = os.Setenv("UPLOAD_BASE", tmp)
	seedDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Register user
	regBody, _ := json.Marshal(map[string]string{"username": "user1", "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		b := resp.Body.String()
		t.Fatalf("register failed status=%d body=%s", resp.Code, b)
	}

	// 2. Login
	loginBody, _ := json.Marshal(map[string]string{"username": "user1", "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		b := resp.Body.String()
		t.Fatalf("login failed status=%d body=%s", resp.Code, b)
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 3. Parse flat invoice text without persisting
	parseBody, _ := json.Marshal(map[string]any{
		"text": "e-ARŞİV FATURA\nETTN: 550e8400-e29b-41d4-a716-446655440000\nFatura No: GIB2024000001234\nFatura Tarihi: 15-03-2024\nÖdenecek Tutar: 1.250,00 TL",
	})
	resp = performRequest(r, http.MethodPost, "/invoices/parse", bytes.NewBuffer(parseBody), token, "application/json")
	if resp.Code != 200 {
		b := resp.Body.String()
		t.Fatalf("parse failed status=%d body=%s", resp.Code, b)
	}
	var parseResp struct {
		Invoice struct {
			ETTN string `json:"ettn"`
		} `json:"invoice"`
		Confidence float64 `json:"confidence"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &parseResp)
	if parseResp.Invoice.ETTN != "550e8400-e29b-41d4-a716-446655440000" {
		t.Fatalf("parse did not return ETTN: %s", resp.Body.String())
	}

	// 4. Upload a non-image file: the upload row is kept but marked failed
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("folder", "invoices")
	w, _ := mw.CreateFormFile("file", "sample.txt")
	_, _ = w.Write([]byte("SOME CONTENT"))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/uploads", buf, token, mw.FormDataContentType())
	if resp.Code != http.StatusUnprocessableEntity {
		b := resp.Body.String()
		t.Fatalf("expected 422 for unreadable upload, got status=%d body=%s", resp.Code, b)
	}

	// 5. List invoices
	resp = performRequest(r, http.MethodGet, "/invoices", nil, token, "")
	if resp.Code != 200 {
		b := resp.Body.String()
		t.Fatalf("list invoices failed status=%d body=%s", resp.Code, b)
	}

	// 6. Monthly summary
	resp = performRequest(r, http.MethodGet, "/invoices/summary", nil, token, "")
	if resp.Code != 200 {
		b := resp.Body.String()
		t.Fatalf("invoice summary failed status=%d body=%s", resp.Code, b)
	}

	// 7. List uploads (the failed one should be visible for review)
	resp = performRequest(r, http.MethodGet, "/uploads", nil, token, "")
	if resp.Code != 200 {
		b := resp.Body.String()
		t.Fatalf("list uploads failed status=%d body=%s", resp.Code, b)
	}

	// 8. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/invoices", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list invoices got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
