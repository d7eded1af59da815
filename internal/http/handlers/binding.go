package handlers

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
)

var registerTagNames sync.Once

// bindJSON decodes and validates the request body, turning binding failures
// into a single-line validation error.
func bindJSON(c *gin.Context, dst any) error {
	registerTagNames.Do(useJSONFieldNames)
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

// useJSONFieldNames makes validator report fields by their JSON name.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

func bindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Tag() == "required" {
			return apierr.Validation(fmt.Sprintf("%s is required", field))
		}
		return apierr.Validation(fmt.Sprintf("%s is invalid", field))
	}
	if errors.Is(err, io.EOF) {
		return apierr.Validation("Request body is required")
	}
	return apierr.Validation("Invalid request body")
}
