package wire

import "net/http"

// Fixed status lines. Only the success line carries a header.
const (
	StatusLineOK              = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n"
	StatusLineNotFound        = "HTTP/1.1 404 NOT FOUND\r\n\r\n"
	StatusLineInternalError   = "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\n"
	StatusLineTooManyRequests = "HTTP/1.1 429 TOO MANY REQUESTS\r\n\r\n"
)

// Response is a status line plus a body string.
type Response struct {
	Code       int
	StatusLine string
	Body       string
}

// Bytes returns the bytes written back on the connection.
func (r Response) Bytes() []byte {
	return []byte(r.StatusLine + r.Body)
}

// OK returns a 200 response with the given body.
func OK(body string) Response {
	return Response{Code: http.StatusOK, StatusLine: StatusLineOK, Body: body}
}

// NotFound returns a 404 response with the given body.
func NotFound(body string) Response {
	return Response{Code: http.StatusNotFound, StatusLine: StatusLineNotFound, Body: body}
}

// InternalError returns the generic 500 response. No detail crosses the wire.
func InternalError() Response {
	return Response{Code: http.StatusInternalServerError, StatusLine: StatusLineInternalError, Body: "Error"}
}

// TooManyRequests returns the response used when a client is rate limited.
func TooManyRequests() Response {
	return Response{Code: http.StatusTooManyRequests, StatusLine: StatusLineTooManyRequests, Body: "Too Many Requests"}
}

// RouteNotFound is written for any request that matches no route.
func RouteNotFound() Response {
	return NotFound("404 Not Found")
}
