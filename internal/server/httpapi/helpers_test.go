package httpapi

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

func ginTestContext(rec *httptest.ResponseRecorder) (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, e := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, e
}
