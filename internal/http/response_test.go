package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"firewand/internal/payments"

	"github.com/stretchr/testify/assert"
)

func TestFailErrStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad input", payments.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("%w: who are you", payments.ErrUnauthenticated), http.StatusUnauthorized},
		{fmt.Errorf("%w: nope", payments.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: read-only", payments.ErrUnimplemented), http.StatusNotImplemented},
		{fmt.Errorf("%w: too slow", payments.ErrDeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		FailErr(w, tt.err)
		assert.Equal(t, tt.want, w.Code, "error %v", tt.err)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	}
}
