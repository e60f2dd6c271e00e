package errors

const (
	UnknownErrorCode = 100_001
)

// UnknownError wraps any error that carries no code
var UnknownError = new(UnknownErrorCode, "UnknownError", "unexpected error: %s")

// Assert returns err as a coded error. Uncoded errors become UnknownError and
// ok is false.
func Assert(err error) (asserted BaseError, ok bool) {

	if asserted, ok = TryAssertError(err); ok {
		return asserted, true
	}

	return UnknownError.New(err.Error()), false
}
