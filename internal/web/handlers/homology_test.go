package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func groupBody(t *testing.T, landmarks []map[string]any, groupIter int) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"landmarks":  landmarks,
		"group_iter": groupIter,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return string(body)
}

func postGroup(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewHomologyHandler()
	req := httptest.NewRequest("POST", "/api/v1/landmarks/group", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.Group(recorder, req)
	return recorder
}

func TestHomologyHandler_Group_Success(t *testing.T) {
	landmarks := []map[string]any{
		{"name": "plantA_rep1_d10_plm0", "group": nil, "embedding": []float64{0, 0}},
		{"name": "plantA_rep1_d11_plm0", "group": nil, "embedding": []float64{0.1, 0}},
		{"name": "plantA_rep1_d10_plm1", "group": nil, "embedding": []float64{5, 5}},
		{"name": "plantA_rep1_d11_plm1", "group": nil, "embedding": []float64{5.1, 5}},
		{"name": "plantA_rep1_d11_plm2", "group": nil, "embedding": []float64{20, 20}},
	}

	recorder := postGroup(t, groupBody(t, landmarks, 0))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200: %s", recorder.Code, recorder.Body.String())
	}

	var resp struct {
		Landmarks []struct {
			Name  string `json:"name"`
			Group *int   `json:"group"`
		} `json:"landmarks"`
		GroupIter int `json:"group_iter"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.GroupIter != 3 {
		t.Errorf("group_iter = %d; want 3", resp.GroupIter)
	}
	groups := make(map[string]int)
	for _, lm := range resp.Landmarks {
		if lm.Group == nil {
			t.Fatalf("landmark %s left unassigned", lm.Name)
		}
		groups[lm.Name] = *lm.Group
	}
	if groups["plantA_rep1_d10_plm0"] != groups["plantA_rep1_d11_plm0"] {
		t.Error("first pair split across groups")
	}
	if groups["plantA_rep1_d10_plm1"] != groups["plantA_rep1_d11_plm1"] {
		t.Error("second pair split across groups")
	}
	if groups["plantA_rep1_d11_plm2"] == groups["plantA_rep1_d10_plm0"] {
		t.Error("outlier joined a pair group")
	}
}

func TestHomologyHandler_Group_InvalidBody(t *testing.T) {
	recorder := postGroup(t, "{not json")
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", recorder.Code)
	}
}

func TestHomologyHandler_Group_NegativeIter(t *testing.T) {
	recorder := postGroup(t, groupBody(t, []map[string]any{
		{"name": "a_b_d1_x", "group": nil, "embedding": []float64{0, 0}},
		{"name": "a_b_d2_x", "group": nil, "embedding": []float64{1, 1}},
		{"name": "a_b_d3_x", "group": nil, "embedding": []float64{2, 2}},
	}, -1))
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", recorder.Code)
	}
}

func TestHomologyHandler_Group_TooFewLandmarks(t *testing.T) {
	landmarks := []map[string]any{
		{"name": "plantA_rep1_d10_plm0", "group": nil, "embedding": []float64{0, 0}},
		{"name": "plantA_rep1_d11_plm0", "group": nil, "embedding": []float64{1, 0}},
	}
	recorder := postGroup(t, groupBody(t, landmarks, 0))
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d; want 422", recorder.Code)
	}
}

func TestHomologyHandler_Group_MalformedName(t *testing.T) {
	landmarks := []map[string]any{}
	for i := 0; i < 3; i++ {
		landmarks = append(landmarks, map[string]any{
			"name": fmt.Sprintf("noday%d", i), "group": nil, "embedding": []float64{float64(i), 0},
		})
	}
	recorder := postGroup(t, groupBody(t, landmarks, 0))
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d; want 422", recorder.Code)
	}
}
