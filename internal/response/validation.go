package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// UseJSONFieldNames makes validator report fields by their json tag so
// messages line up with request bodies.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

// ValidationFields converts a binding error into per-field messages.
func ValidationFields(err error) Fields {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(Fields, len(verrs))
		for _, fe := range verrs {
			name := fe.Field()
			out[name] = append(out[name], fieldMessage(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return Field(typeErr.Field, fmt.Sprintf("The %s field has an invalid type.", humanize(typeErr.Field)))
	}
	return Field("body", "The request body is invalid.")
}

// Validation sends a 422 with the field messages derived from err.
func Validation(c *gin.Context, err error) {
	Abort(c, Response{Kind: KindValidation, Data: ValidationFields(err)})
}

func fieldMessage(fe validator.FieldError) string {
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s.", name, fe.Param())
	case "len":
		return fmt.Sprintf("The %s must be %s characters.", name, fe.Param())
	case "numeric":
		return fmt.Sprintf("The %s must be a number.", name)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "eqfield":
		return fmt.Sprintf("The %s and %s must match.", name, humanize(toSnake(fe.Param())))
	case "nefield":
		return fmt.Sprintf("The %s and %s must be different.", name, humanize(toSnake(fe.Param())))
	case "datetime":
		return fmt.Sprintf("The %s does not match the format %s.", name, fe.Param())
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
