package controllers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestMeanRating(t *testing.T) {
	assert.Equal(t, 4.0, meanRating([]float64{5, 4, 3}))
	assert.Equal(t, 4.33, meanRating([]float64{5, 4, 4}))
	assert.Equal(t, 3.67, meanRating([]float64{5, 3, 3}))
	assert.Equal(t, 5.0, meanRating([]float64{5}))
	assert.Equal(t, 0.0, meanRating(nil))
}

func postReview(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func reviewRouter(userID uint, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/reviews", asUser(userID, role), CreateReview)
	return r
}

func TestCreateReviewRejectsOutOfRangeRating(t *testing.T) {
	r := reviewRouter(1, "shipper")

	w := postReview(r, `{"cargo_id":10,"to_user_id":2,"rating":6}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postReview(r, `{"cargo_id":10,"to_user_id":2,"rating":0.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReviewOnlyForDeliveredOrders(t *testing.T) {
	mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cargos"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipper_id", "assigned_driver_id", "status"}).
			AddRow(10, 1, 2, "in_transit"))

	r := reviewRouter(1, "shipper")
	w := postReview(r, `{"cargo_id":10,"to_user_id":2,"rating":5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Reviews are only allowed for delivered orders",
		gjson.Get(w.Body.String(), "message").String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewOnlyForParticipants(t *testing.T) {
	mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cargos"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipper_id", "assigned_driver_id", "status"}).
			AddRow(10, 1, 2, "delivered"))

	// user 7 is neither the shipper nor the assigned driver
	r := reviewRouter(7, "shipper")
	w := postReview(r, `{"cargo_id":10,"to_user_id":2,"rating":5}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewRecipientMustBeOtherParty(t *testing.T) {
	mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cargos"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipper_id", "assigned_driver_id", "status"}).
			AddRow(10, 1, 2, "delivered"))

	// shipper tries to review themselves instead of the driver
	r := reviewRouter(1, "shipper")
	w := postReview(r, `{"cargo_id":10,"to_user_id":1,"rating":5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReviewDuplicateConflict(t *testing.T) {
	mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cargos"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shipper_id", "assigned_driver_id", "status"}).
			AddRow(10, 1, 2, "delivered"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cargo_id", "from_user_id"}).
			AddRow(3, 10, 1))

	r := reviewRouter(1, "shipper")
	w := postReview(r, `{"cargo_id":10,"to_user_id":2,"rating":5}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "You have already reviewed this order",
		gjson.Get(w.Body.String(), "message").String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
