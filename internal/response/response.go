// Package response writes the {status, msg, data} envelope every endpoint returns.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Kind string

const (
	KindSuccess         Kind = "success"
	KindValidation      Kind = "validation_error"
	KindUnauthenticated Kind = "unauthenticated"
	KindUnauthorized    Kind = "unauthorized"
	KindNotFound        Kind = "not_found"
	KindInactiveUser    Kind = "inactive_user"
	KindTooManyRequests Kind = "too_many_requests"
	KindError           Kind = "error"
)

type Envelope struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   any    `json:"data"`
}

// Response describes one reply. Zero Status, Msg or Data fall back to the
// defaults of Kind; HTTPStatus overrides the transport status only.
type Response struct {
	Kind       Kind
	Status     int
	HTTPStatus int
	Msg        string
	Data       any
}

type defaults struct {
	status int
	msg    string
	data   any
}

var kindDefaults = map[Kind]defaults{
	KindSuccess:         {http.StatusOK, "Success", nil},
	KindValidation:      {http.StatusUnprocessableEntity, "Validation failed", nil},
	KindUnauthenticated: {http.StatusUnauthorized, "Authentication Required", "User not authenticated"},
	KindUnauthorized:    {http.StatusForbidden, "You do not have permission to access this resource", nil},
	KindNotFound:        {http.StatusNotFound, "Record not found", nil},
	KindInactiveUser:    {http.StatusPaymentRequired, "Inactive Account", "Your account is inactive. Please contact administrator"},
	KindTooManyRequests: {http.StatusTooManyRequests, "too_many_requests", "Too many requests. Please try again later"},
	KindError:           {http.StatusInternalServerError, "Server Error", nil},
}

// Build resolves r against its kind's defaults.
func Build(r Response) (int, Envelope) {
	d, ok := kindDefaults[r.Kind]
	if !ok {
		d = kindDefaults[KindError]
	}

	env := Envelope{Status: r.Status, Msg: r.Msg, Data: r.Data}
	if env.Status == 0 {
		env.Status = d.status
	}
	if env.Msg == "" {
		env.Msg = d.msg
	}
	if env.Data == nil {
		env.Data = d.data
	}
	if env.Data == nil {
		env.Data = []any{}
	}

	httpStatus := r.HTTPStatus
	if httpStatus == 0 {
		httpStatus = env.Status
	}
	return httpStatus, env
}

func Send(c *gin.Context, r Response) {
	status, env := Build(r)
	c.JSON(status, env)
}

// Abort sends r and stops the handler chain.
func Abort(c *gin.Context, r Response) {
	status, env := Build(r)
	c.AbortWithStatusJSON(status, env)
}

func OK(c *gin.Context, msg string, data any) {
	Send(c, Response{Kind: KindSuccess, Msg: msg, Data: data})
}

// Fields is the field name to messages map used for validation failures.
type Fields map[string][]string

func Field(name, msg string) Fields {
	return Fields{name: {msg}}
}
