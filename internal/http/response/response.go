package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
)

const msgInternal = "internal error"

// ErrorBody is the single-line error envelope every route returns.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorBody{Message: firstLine(msg), Code: code})
}

// RespondErr maps service and aggregate errors to their HTTP status. Anything
// unclassified becomes a generic 500 and the cause is recorded on the gin
// context for the request logger.
func RespondErr(c *gin.Context, err error) {
	if e, ok := apierr.As(err); ok {
		RespondError(c, e.Status, e.Code, e)
		return
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		if status, ok := aggregateStatus[aggErr.Code]; ok {
			RespondError(c, status, string(aggErr.Code), errors.New(aggErr.PublicMessage()))
			return
		}
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Message: msgInternal})
}

var aggregateStatus = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation: http.StatusBadRequest,
	domainagg.CodeNotFound:   http.StatusNotFound,
	domainagg.CodeOwnership:  http.StatusForbidden,
	domainagg.CodeConflict:   http.StatusConflict,
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
