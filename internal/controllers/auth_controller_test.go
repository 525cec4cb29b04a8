package controllers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"

	"shiply_server/internal/mailer"
)

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetMailer(mailer.New())
	r := gin.New()
	r.POST("/api/auth/send-otp", SendOTP)
	r.POST("/api/auth/verify-otp", VerifyOTP)
	r.POST("/api/auth/register", Register)
	r.POST("/api/auth/login", Login)
	r.POST("/api/auth/forgot-password", ForgotPassword)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendOTPIssuesCode(t *testing.T) {
	mock := setupMockDB(t)

	// sweep of expired codes is a soft delete
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "one_time_codes" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "one_time_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	r := authRouter()
	w := postJSON(r, "/api/auth/send-otp", `{"email":"a@b.kz"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(600), gjson.Get(w.Body.String(), "expiresIn").Int())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendOTPRejectsBadEmail(t *testing.T) {
	r := authRouter()

	w := postJSON(r, "/api/auth/send-otp", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyOTPUnknownCode(t *testing.T) {
	mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "one_time_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r := authRouter()
	w := postJSON(r, "/api/auth/verify-otp", `{"email":"a@b.kz","code":"123456"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid confirmation code",
		gjson.Get(w.Body.String(), "message").String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyOTPExpiredCode(t *testing.T) {
	mock := setupMockDB(t)

	expired := time.Now().Add(-time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "one_time_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "code", "verified", "expires_at"}).
			AddRow(1, "a@b.kz", "123456", false, expired))

	r := authRouter()
	w := postJSON(r, "/api/auth/verify-otp", `{"email":"a@b.kz","code":"123456"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Confirmation code has expired",
		gjson.Get(w.Body.String(), "message").String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	r := authRouter()

	w := postJSON(r, "/api/auth/register", `{"email":"a@b.kz","password":"12345"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password",
		gjson.Get(w.Body.String(), "errors.0.field").String())
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	r := authRouter()

	w := postJSON(r, "/api/auth/register", `{"email":"a@b.kz","password":"123456","role":"admin"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "role",
		gjson.Get(w.Body.String(), "errors.0.field").String())
}

func TestRegisterRequiresConfirmedEmail(t *testing.T) {
	mock := setupMockDB(t)

	// no verified code on file
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "one_time_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "verified"}))

	r := authRouter()
	w := postJSON(r, "/api/auth/register", `{"email":"a@b.kz","password":"123456"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is not confirmed, request a new code",
		gjson.Get(w.Body.String(), "message").String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterRejectsStaleConfirmation(t *testing.T) {
	mock := setupMockDB(t)

	verifiedAt := time.Now().Add(-2 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "one_time_codes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "verified", "verified_at"}).
			AddRow(1, "a@b.kz", true, verifiedAt))

	r := authRouter()
	w := postJSON(r, "/api/auth/register", `{"email":"a@b.kz","password":"123456"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is not confirmed, request a new code",
		gjson.Get(w.Body.String(), "message").String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	mock := setupMockDB(t)

	// unknown email
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "role"}))

	r := authRouter()
	w := postJSON(r, "/api/auth/login", `{"email":"nobody@b.kz","password":"123456"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	unknownEmailMsg := gjson.Get(w.Body.String(), "message").String()

	// known email, wrong password
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "role"}).
			AddRow(1, "a@b.kz", string(hash), "shipper"))

	w = postJSON(r, "/api/auth/login", `{"email":"a@b.kz","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPasswordMsg := gjson.Get(w.Body.String(), "message").String()

	assert.Equal(t, unknownEmailMsg, wrongPasswordMsg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	r := authRouter()
	w := postJSON(r, "/api/auth/forgot-password", `{"email":"nobody@b.kz"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "If the email is registered, a reset link has been sent",
		gjson.Get(w.Body.String(), "message").String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
