package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopfloor/measure-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Fail renders any error through the apierr taxonomy. Internal detail is
// hidden unless the debug flag is on.
func Fail(c *gin.Context, err error, debug bool) {
	apiErr := apierr.From(err)
	if apiErr.Status >= http.StatusInternalServerError && !debug {
		c.JSON(apiErr.Status, ErrorEnvelope{
			Error: APIError{Message: "Internal server error", Code: apiErr.Code},
		})
		return
	}
	RespondError(c, apiErr.Status, apiErr.Code, apiErr)
}
