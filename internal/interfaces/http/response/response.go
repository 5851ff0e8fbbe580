package response

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	domainerrors "device-license.backend/internal/domain/errors"
)

// gin's validator reports Go field names by default; use the json tag so the
// fields map matches the request body.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Anything that is not an AppError is a 500.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.InternalError(err)
	}

	body := gin.H{
		"success": false,
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.JSON(appErr.Status, body)
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": message,
	})
}

// AbortWithError renders err and stops the handler chain; used by middleware
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BindError renders a gin binding failure as a validation error with
// per-field detail (json field name -> failed rule).
func BindError(c *gin.Context, err error) {
	Error(c, ValidationError(err))
}

// ValidationError converts a binding error into an AppError
func ValidationError(err error) *domainerrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = rule(fe)
		}
		return domainerrors.Validation("validation failed", fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domainerrors.Validation("validation failed", map[string]string{typeErr.Field: "type:" + typeErr.Type.String()})
	}
	if errors.Is(err, io.EOF) {
		return domainerrors.BadRequest("request body is required")
	}
	return domainerrors.BadRequest("malformed request: " + err.Error())
}

// fieldName is the json name of the failing field; see init
func fieldName(fe validator.FieldError) string {
	return fe.Field()
}

func rule(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + ":" + fe.Param()
	}
	return fe.Tag()
}
