package jsonrpc

import "errors"

// Error pairs one of the -3250x rejection codes with a human-readable
// message.
type Error struct {
	error
	code int
}

func newError(code int, message string) *Error {
	return &Error{error: errors.New(message), code: code}
}

// ErrorCode returns the JSON-RPC error code, following go-ethereum's rpc
// package convention of a dedicated ErrorCode() method alongside Error().
func (e *Error) ErrorCode() int {
	return e.code
}

// ErrorData returns the code again as the JSON-RPC "data" field, mirroring
// ValidationPhaseError.ErrorData's role of surfacing machine-readable detail
// alongside the human-readable message.
func (e *Error) ErrorData() interface{} {
	return e.code
}
