// README: Base handler utilities (JSON helpers, error mapping, lenient numbers).
package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/apperr"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors to their status. Unknown errors are
// logged and reported as a 500 carrying the underlying message.
func writeServiceError(c *gin.Context, log logger.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", c.Request.URL.Path, "method", c.Request.Method, "error", err)
		writeJSON(c, status, errorResponse{Error: "Internal server error", Message: err.Error()})
		return
	}
	writeError(c, status, apperr.Message(err))
}

// flexNumber accepts a JSON number or a numeric string. Empty strings and null
// count as absent; anything else that is not numeric decodes as NaN.
type flexNumber struct {
	set   bool
	value float64
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = flexNumber{}
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*n = flexNumber{set: true, value: t}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			*n = flexNumber{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			f = math.NaN()
		}
		*n = flexNumber{set: true, value: f}
	default:
		*n = flexNumber{set: true, value: math.NaN()}
	}
	return nil
}

func (n flexNumber) ptr() *float64 {
	if !n.set {
		return nil
	}
	v := n.value
	return &v
}

// queryNumber parses a query parameter, reporting false when absent or not finite.
func queryNumber(c *gin.Context, key string) (float64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
