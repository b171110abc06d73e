package srvcerror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation turns a struct validation failure into a validation error
// naming the first offending field.
func ErrValidation(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrInvalidRequest(err.Error()).SetDebug(err)
	}
	fe := verrs[0]
	msg := fmt.Sprintf("field %s failed on %s", lowerFirst(fe.Field()), fe.Tag())
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	return ErrInvalidRequest(msg).SetDebug(err)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
