package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/shelfclub/internal/app/controllers"
	"github.com/yigit/shelfclub/internal/app/models/dto"
	"github.com/yigit/shelfclub/internal/middleware"
	"github.com/yigit/shelfclub/internal/pkg/auth"
	"github.com/yigit/shelfclub/internal/pkg/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	router := gin.New()
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	feed := websocket.NewHandler(websocket.NewHub(zerolog.Nop(), websocket.DefaultEventBuffer), zerolog.Nop())

	SetupRouter(router,
		controllers.NewSuggestionController(nil, nil),
		controllers.NewVotingController(nil, nil, feed, zerolog.Nop()),
		controllers.NewClubBookController(nil),
		middleware.NewAuthMiddleware(jwtService),
	)
	SetupSwagger(router)
	return router
}

func TestClubRoutesAreRegistered(t *testing.T) {
	registered := map[string]bool{}
	for _, r := range newRouter().Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, route := range []string{
		"GET /api/v1/health",
		"POST /api/v1/clubs/:id/suggestions",
		"GET /api/v1/clubs/:id/suggestions",
		"POST /api/v1/clubs/:id/suggestions/:sid/vote",
		"DELETE /api/v1/clubs/:id/suggestions/:sid/vote",
		"GET /api/v1/clubs/:id/voting",
		"POST /api/v1/clubs/:id/voting/open",
		"POST /api/v1/clubs/:id/voting/results",
		"POST /api/v1/clubs/:id/voting/select-winner",
		"GET /api/v1/clubs/:id/voting/ws",
		"POST /api/v1/clubs/:id/complete-book",
		"GET /api/v1/clubs/:id/books",
		"GET /swagger/*any",
	} {
		assert.True(t, registered[route], route)
	}
}

func TestClubRoutesRequireToken(t *testing.T) {
	router := newRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/clubs/1/voting", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, dto.ErrorCodeNotAuthenticated, body.Code)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	router := newRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, dto.ErrorCodeRouteNotFound, body.Code)
}

func TestSwaggerDocument(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/clubs/{id}/voting/open")
}
