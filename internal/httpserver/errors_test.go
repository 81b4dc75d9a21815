package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms-commerce/internal/domain"
	"lms-commerce/internal/logging"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"domain message", domain.NotFound("Order not found"), http.StatusNotFound, "Order not found"},
		{"wrapped domain message", pkgerrors.Wrap(domain.Invalid("Cart is empty"), "checkout"), http.StatusBadRequest, "Cart is empty"},
		{"wrapped sentinel hides detail", pkgerrors.Wrapf(domain.ErrAlreadyExists, "grant course %s", "9a1f7f0e-6d2b-4a5e-8c11-0000000000aa"), http.StatusBadRequest, "Payment verification failed"},
		{"bare not found", domain.ErrNotFound, http.StatusNotFound, "Payment verification failed"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "Payment verification failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/payments/verify-payment", nil)

			writeError(c, logging.Discard(), tc.err, "Payment verification failed")

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decode(t, rec.Body.Bytes())["message"])
			assert.NotContains(t, rec.Body.String(), "9a1f7f0e")
		})
	}
}
