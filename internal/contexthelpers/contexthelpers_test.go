package contexthelpers_test

import (
	"net/http/httptest"
	"testing"

	"github.com/myrjola/trainingplan/internal/contexthelpers"
)

func TestTraceID(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/healthy", nil)
	if got := contexthelpers.TraceID(r.Context()); got != "" {
		t.Errorf("TraceID() without a trace = %q, want empty", got)
	}
	r = contexthelpers.SetTraceID(r, "abc123")
	if got := contexthelpers.TraceID(r.Context()); got != "abc123" {
		t.Errorf("TraceID() = %q, want abc123", got)
	}
}
