package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tokenStr, err := GenerateToken(42, "driver")
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	token, err := ValidateToken(tokenStr)
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["user_id"])
	assert.Equal(t, "driver", claims["role"])
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSignature(t *testing.T) {
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1, "role": "admin",
	})
	signed, err := forged.SignedString([]byte("some other secret"))
	require.NoError(t, err)

	_, err = ValidateToken(signed)
	assert.Error(t, err)
}

func authTestRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(middlewares, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "role": Role(c)})
	})
	r.GET("/protected", handlers...)
	return r
}

func doGet(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := authTestRouter(RequireAuth())

	w := doGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doGet(r, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := GenerateToken(7, "shipper")
	require.NoError(t, err)

	w = doGet(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Contains(t, w.Body.String(), `"role":"shipper"`)
}

func TestRequireAuthWithRoleNeverRunsHandlerForWrongRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handlerRan := false
	r := gin.New()
	r.POST("/admin-only", RequireAuthWithRole("admin"), func(c *gin.Context) {
		handlerRan = true
		c.JSON(http.StatusOK, gin.H{"message": "done"})
	})

	token, err := GenerateToken(7, "shipper")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, handlerRan)
}

func TestRequireAuthWithRole(t *testing.T) {
	r := authTestRouter(RequireAuthWithRole("admin"))

	token, err := GenerateToken(3, "driver")
	require.NoError(t, err)

	w := doGet(r, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, err := GenerateToken(1, "admin")
	require.NoError(t, err)

	w = doGet(r, "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
}
