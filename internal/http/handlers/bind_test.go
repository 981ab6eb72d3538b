package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/fieldops/internal/domain/servicelog"
	"github.com/geocoder89/fieldops/internal/http/handlers"
	"github.com/geocoder89/fieldops/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Msg     string `json:"msg"`
	Code    string `json:"code"`
	Details struct {
		JSON   string                `json:"json"`
		Field  string                `json:"field"`
		Fields []handlers.FieldError `json:"fields"`
	} `json:"details"`
}

func bindRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.POST("/log", func(ctx *gin.Context) {
		var req servicelog.CreateServiceLogRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w := postJSON(bindRouter(), "/log", `{"client_id":0,"lat":91}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Code != "invalid_request" || resp.Msg == "" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}

	wantRules := map[string]string{
		"client_id":   "required",
		"description": "required",
		"lat":         "max",
		"long":        "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_ZeroCoordinatesArePresent(t *testing.T) {
	w := postJSON(bindRouter(), "/log", `{"client_id":1,"description":"on the equator","lat":0,"long":0}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	w := postJSON(bindRouter(), "/log", `{"client_id":"abc","description":"x","lat":1,"long":2}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Details.JSON)
	}
	if resp.Details.Field != "client_id" {
		t.Fatalf("expected detail field to be client_id, got %q", resp.Details.Field)
	}
	if len(resp.Details.Fields) == 0 || resp.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Details.Fields)
	}
}

func TestBindJSON_MalformedAndEmptyBodies(t *testing.T) {
	w := postJSON(bindRouter(), "/log", `{"client_id":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed: got status %d", w.Code)
	}

	w = postJSON(bindRouter(), "/log", ``)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Missing request body") {
		t.Fatalf("empty: got status %d body=%s", w.Code, w.Body.String())
	}
}

func TestBindJSON_BodyTooLarge(t *testing.T) {
	big := `{"client_id":1,"description":"` + strings.Repeat("x", 2048) + `","lat":1,"long":1}`
	w := postJSON(bindRouter(middlewares.MaxBodyBytes(256)), "/log", big)

	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "too large") {
		t.Fatalf("got status %d body=%s", w.Code, w.Body.String())
	}
}
