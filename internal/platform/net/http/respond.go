// Package http is the JSON envelope, router seam and server the api mounts on
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "shelfscan/internal/platform/errors"
	pnet "shelfscan/internal/platform/net"
	"shelfscan/internal/platform/net/http/bind"
)

// Envelope wraps every JSON body; Data on success, Code/Error/Field on failure
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

func envelope(r *stdhttp.Request, status int) Envelope {
	return Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  pnet.RequestID(r.Context()),
	}
}

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes err as an error envelope with the status its code maps to
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status := perr.HTTPStatus(err)
	wire := perr.WireFrom(err)
	env := envelope(r, status)
	env.Code, env.Error, env.Field = wire.Code, wire.Message, wire.Field
	JSON(w, status, env)
}

// Response is what return-style handlers produce; Err wins over Body
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
	Err    error
}

func OK(body any) Response     { return Response{Status: stdhttp.StatusOK, Body: body} }
func Error(err error) Response { return Response{Err: err} }

// Handle adapts a return-style handler
func Handle(h func(*stdhttp.Request) Response) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		res := h(r)
		for k, vs := range res.Header {
			w.Header()[k] = append(w.Header()[k], vs...)
		}
		if res.Err != nil {
			RespondError(w, r, res.Err)
			return
		}
		status := res.Status
		if status == 0 {
			status = stdhttp.StatusOK
		}
		env := envelope(r, status)
		env.Data = res.Body
		JSON(w, status, env)
	}
}

// JSONHandler binds and validates a T body before calling fn
func JSONHandler[T any](fn func(*stdhttp.Request, T) (any, error)) Handler {
	return Handle(func(r *stdhttp.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	})
}
