package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postSimilar(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewLandmarksHandler()
	req := httptest.NewRequest("POST", "/api/v1/landmarks/similar", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.Similar(recorder, req)
	return recorder
}

func TestLandmarksHandler_Similar_InvalidBody(t *testing.T) {
	recorder := postSimilar(t, "{not json")
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", recorder.Code)
	}
}

func TestLandmarksHandler_Similar_MissingEmbedding(t *testing.T) {
	recorder := postSimilar(t, `{"limit": 5}`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", recorder.Code)
	}
}

func TestLandmarksHandler_Similar_NoDatabase(t *testing.T) {
	recorder := postSimilar(t, `{"embedding": [0.5, 1.5], "limit": 5}`)
	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want 503", recorder.Code)
	}
}
