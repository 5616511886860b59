package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubCore struct {
	err error
}

func (s *stubCore) StoragePing(_ context.Context) error {
	return s.err
}

func Test_Check(t *testing.T) {
	tests := []struct {
		name     string
		handler  Core
		wantCode int
		wantBody string
	}{
		{
			name:     "storage reachable",
			handler:  &stubCore{},
			wantCode: http.StatusOK,
			wantBody: `{"data":{"status":"ok"},"success":true,"status_message":"Success"}`,
		},
		{
			name:     "storage down",
			handler:  &stubCore{err: errors.New("no route to host")},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"success":false,"status_message":"Storage not available"}`,
		},
		{
			name:     "no core wired",
			handler:  nil,
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"success":false,"status_message":"Key service not available"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()

			Check(log, tt.handler)(rr, req)

			assert.Equal(tt.wantCode, rr.Code)
			assert.JSONEq(tt.wantBody, rr.Body.String())
		})
	}
}
