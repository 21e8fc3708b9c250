package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewMeta(t *testing.T) {
	cases := []struct {
		name        string
		total       int64
		page        int
		limit       int
		totalPages  int64
		hasNext     bool
		hasPrevious bool
	}{
		{name: "first of three", total: 25, page: 1, limit: 10, totalPages: 3, hasNext: true, hasPrevious: false},
		{name: "middle page", total: 25, page: 2, limit: 10, totalPages: 3, hasNext: true, hasPrevious: true},
		{name: "last page", total: 25, page: 3, limit: 10, totalPages: 3, hasNext: false, hasPrevious: true},
		{name: "exact division", total: 20, page: 2, limit: 10, totalPages: 2, hasNext: false, hasPrevious: true},
		{name: "empty result", total: 0, page: 1, limit: 10, totalPages: 0, hasNext: false, hasPrevious: false},
		{name: "zero limit normalized", total: 3, page: 1, limit: 0, totalPages: 3, hasNext: true, hasPrevious: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := NewMeta(tc.total, tc.page, tc.limit)
			if meta.TotalPages != tc.totalPages {
				t.Fatalf("totalPages want %d got %d", tc.totalPages, meta.TotalPages)
			}
			if meta.HasNextPage != tc.hasNext {
				t.Fatalf("hasNextPage want %v got %v", tc.hasNext, meta.HasNextPage)
			}
			if meta.HasPreviousPage != tc.hasPrevious {
				t.Fatalf("hasPreviousPage want %v got %v", tc.hasPrevious, meta.HasPreviousPage)
			}
		})
	}
}

func TestEnvelopeShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-42")
	Success(c, gin.H{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if !resp.Success || resp.Message != "success" {
		t.Fatalf("envelope want success got %+v", resp)
	}
	if resp.Timestamp == "" {
		t.Fatalf("timestamp should be set")
	}
	if resp.RequestID != "req-42" {
		t.Fatalf("request id want req-42 got %s", resp.RequestID)
	}

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	ErrorWithDetails(c2, http.StatusBadRequest, "invalid title", gin.H{"field": "title"})

	if w2.Code != http.StatusBadRequest {
		t.Fatalf("status want 400 got %d", w2.Code)
	}
	var errResp Response
	if err := json.Unmarshal(w2.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("unmarshal error response failed: %v", err)
	}
	if errResp.Success {
		t.Fatalf("error envelope must carry success=false")
	}
	if errResp.Details == nil {
		t.Fatalf("details should survive serialization")
	}
}
