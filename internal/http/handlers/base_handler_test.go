// README: Tests for lenient number decoding and error mapping.
package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/apperr"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
)

func TestFlexNumber(t *testing.T) {
	cases := []struct {
		raw     string
		wantSet bool
		want    float64
		wantNaN bool
	}{
		{`3`, true, 3, false},
		{`"2.5"`, true, 2.5, false},
		{`" 4 "`, true, 4, false},
		{`""`, false, 0, false},
		{`null`, false, 0, false},
		{`"many"`, true, 0, true},
		{`true`, true, 0, true},
	}
	for _, tc := range cases {
		var n flexNumber
		if err := json.Unmarshal([]byte(tc.raw), &n); err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if n.set != tc.wantSet {
			t.Errorf("%s: set = %v", tc.raw, n.set)
			continue
		}
		switch {
		case !tc.wantSet:
			if n.ptr() != nil {
				t.Errorf("%s: ptr should be nil", tc.raw)
			}
		case tc.wantNaN:
			if !math.IsNaN(*n.ptr()) {
				t.Errorf("%s: want NaN, got %v", tc.raw, *n.ptr())
			}
		default:
			if *n.ptr() != tc.want {
				t.Errorf("%s: got %v want %v", tc.raw, *n.ptr(), tc.want)
			}
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err        error
		wantStatus int
		wantBody   errorResponse
	}{
		{apperr.Conflict("User already in waitlist"), http.StatusBadRequest, errorResponse{Error: "User already in waitlist"}},
		{apperr.Forbidden("Only the driver can cancel the trip"), http.StatusForbidden, errorResponse{Error: "Only the driver can cancel the trip"}},
		{errors.New("firestore unavailable"), http.StatusInternalServerError, errorResponse{Error: "Internal server error", Message: "firestore unavailable"}},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPatch, "/api/trips", nil)

		writeServiceError(c, logger.NewNop(), tc.err)

		if w.Code != tc.wantStatus {
			t.Errorf("%v: status = %d", tc.err, w.Code)
		}
		var got errorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != tc.wantBody {
			t.Errorf("%v: body = %+v", tc.err, got)
		}
	}
}
