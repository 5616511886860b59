package keycheck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/entity"
	"keygate/impl/core"
	"keygate/internal/database"
)

type stubCore struct {
	redeem func(ctx context.Context, value, claimant string) (*entity.CheckResult, error)
}

func (s *stubCore) Redeem(ctx context.Context, value, claimant string) (*entity.CheckResult, error) {
	return s.redeem(ctx, value, claimant)
}

// newTestRouter mounts both entry points the way the api server does
func newTestRouter(handler Core) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(render.SetContentType(render.ContentTypeJSON))
	router.Route("/v1/key", func(key chi.Router) {
		key.Get("/check", Query(log, handler))
		key.Post("/check", Body(log, handler))
	})
	return router
}

func do(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func Test_Check_Redeems(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := core.New(database.NewMemory(), log)
	router := newTestRouter(c)

	value, err := c.Issue(ctx, 42, nil)
	require.NoError(err)

	rr := do(t, router, http.MethodGet, "/v1/key/check?key="+value+"&device=deviceA", "")
	assert.Equal(http.StatusOK, rr.Code)
	assert.Contains(rr.Body.String(), `"valid":true`)
	assert.Contains(rr.Body.String(), `"consumed_at"`)
	assert.Contains(rr.Body.String(), `"success":true`)

	// the second claimant is turned away with a 200, not an error
	rr = do(t, router, http.MethodPost, "/v1/key/check", `{"key":"`+value+`","device":"deviceB"}`)
	assert.Equal(http.StatusOK, rr.Code)
	assert.Contains(rr.Body.String(), `"valid":false`)
	assert.Contains(rr.Body.String(), `"reason":"already_used"`)
}

// both entry points must render byte-identical payloads for the same input
func Test_Check_EntryPointEquivalence(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := core.New(database.NewMemory(), log)
	router := newTestRouter(c)

	t.Run("unknown key", func(t *testing.T) {
		assert := assert.New(t)
		get := do(t, router, http.MethodGet, "/v1/key/check?key=garbage-token&device=deviceA", "")
		post := do(t, router, http.MethodPost, "/v1/key/check", `{"key":"garbage-token","device":"deviceA"}`)
		assert.Equal(http.StatusOK, get.Code)
		assert.Equal(http.StatusOK, post.Code)
		assert.Equal(get.Body.Bytes(), post.Body.Bytes())
		assert.JSONEq(
			`{"data":{"valid":false,"reason":"not_found"},"success":true,"status_message":"Success"}`,
			get.Body.String(),
		)
	})

	t.Run("already used key", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		value, err := c.Issue(ctx, 42, nil)
		require.NoError(err)
		_, err = c.Redeem(ctx, value, "deviceA")
		require.NoError(err)

		get := do(t, router, http.MethodGet, "/v1/key/check?key="+value+"&device=deviceB", "")
		post := do(t, router, http.MethodPost, "/v1/key/check", `{"key":"`+value+`","device":"deviceB"}`)
		assert.Equal(http.StatusOK, get.Code)
		assert.Equal(http.StatusOK, post.Code)
		assert.Equal(get.Body.Bytes(), post.Body.Bytes())
	})

	t.Run("missing key", func(t *testing.T) {
		assert := assert.New(t)
		get := do(t, router, http.MethodGet, "/v1/key/check?device=deviceA", "")
		post := do(t, router, http.MethodPost, "/v1/key/check", `{"device":"deviceA"}`)
		assert.Equal(http.StatusBadRequest, get.Code)
		assert.Equal(http.StatusBadRequest, post.Code)
		assert.Equal(get.Body.Bytes(), post.Body.Bytes())
		assert.JSONEq(
			`{"success":false,"status_message":"Invalid request: key required"}`,
			get.Body.String(),
		)
	})
}

func Test_Check_StorageError(t *testing.T) {
	assert := assert.New(t)
	router := newTestRouter(&stubCore{
		redeem: func(_ context.Context, _, _ string) (*entity.CheckResult, error) {
			return nil, errors.New("connection refused")
		},
	})

	rr := do(t, router, http.MethodGet, "/v1/key/check?key=some-key", "")
	assert.Equal(http.StatusInternalServerError, rr.Code)
	assert.JSONEq(
		`{"success":false,"status_message":"Request failed: storage error"}`,
		rr.Body.String(),
	)
	// the backend failure detail stays out of the response
	assert.NotContains(rr.Body.String(), "connection refused")
}

func Test_Check_NoCore(t *testing.T) {
	assert := assert.New(t)
	router := newTestRouter(nil)

	rr := do(t, router, http.MethodGet, "/v1/key/check?key=some-key", "")
	assert.Equal(http.StatusInternalServerError, rr.Code)
	assert.JSONEq(
		`{"success":false,"status_message":"Key service not available"}`,
		rr.Body.String(),
	)
}

func Test_Check_BadBody(t *testing.T) {
	assert := assert.New(t)
	router := newTestRouter(&stubCore{
		redeem: func(_ context.Context, _, _ string) (*entity.CheckResult, error) {
			t.Fatal("core reached with an unparsed body")
			return nil, nil
		},
	})

	rr := do(t, router, http.MethodPost, "/v1/key/check", `{"key":`)
	assert.Equal(http.StatusBadRequest, rr.Code)
	assert.Contains(rr.Body.String(), "Invalid request")
}
