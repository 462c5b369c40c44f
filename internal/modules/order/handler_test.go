package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"gigmarket/internal/middleware"
	"gigmarket/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool `json:"success"`
	Data    struct {
		Order struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"order"`
	} `json:"data"`
	Error struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newRouter(t *testing.T) (*gin.Engine, *jwt.Service) {
	f := newFixture(t)
	tokens := jwt.New("handler-secret", time.Hour)

	r := gin.New()
	api := r.Group("/api/v1", middleware.JWTAuth(tokens))
	NewHandler(f.service).RegisterRoutes(api)
	return r, tokens
}

func do(r *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHandler_OrderFlow(t *testing.T) {
	r, tokens := newRouter(t)
	customerToken, err := tokens.GenerateToken(customer.ID, "customer")
	require.NoError(t, err)
	workerToken, err := tokens.GenerateToken(worker.ID, "worker")
	require.NoError(t, err)

	body := `{"title":"Paint a fence","category":"repair","location":"Astana","workers_needed":1,"service_date":"2024-06-10T09:00:00Z"}`

	w, _ := do(r, http.MethodPost, "/api/v1/orders", workerToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := do(r, http.MethodPost, "/api/v1/orders", customerToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, "new", env.Data.Order.Status)
	id := env.Data.Order.ID

	w, env = do(r, http.MethodGet, "/api/v1/orders/"+itoa(id), workerToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, env.Data.Order.ID)

	w, env = do(r, http.MethodPost, "/api/v1/orders/"+itoa(id)+"/complete", customerToken, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	w, env = do(r, http.MethodPost, "/api/v1/orders/"+itoa(id)+"/cancel", customerToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", env.Data.Order.Status)
}

func TestHandler_Errors(t *testing.T) {
	r, tokens := newRouter(t)
	customerToken, err := tokens.GenerateToken(customer.ID, "customer")
	require.NoError(t, err)

	w, env := do(r, http.MethodPost, "/api/v1/orders", customerToken, `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "title")

	w, env = do(r, http.MethodGet, "/api/v1/orders/abc", customerToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	w, env = do(r, http.MethodGet, "/api/v1/orders/999", customerToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestHandler_AdminReconcile(t *testing.T) {
	r, tokens := newRouter(t)
	customerToken, err := tokens.GenerateToken(customer.ID, "customer")
	require.NoError(t, err)
	adminToken, err := tokens.GenerateToken(99, "admin")
	require.NoError(t, err)

	body := `{"title":"Move boxes","category":"moving","location":"Almaty","workers_needed":2,"service_date":"2024-06-12T09:00:00Z"}`
	w, env := do(r, http.MethodPost, "/api/v1/orders", customerToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	path := "/api/v1/admin/orders/" + itoa(env.Data.Order.ID) + "/reconcile"

	w, _ = do(r, http.MethodPost, path, customerToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = do(r, http.MethodPost, path, adminToken, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "new", env.Data.Order.Status)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
