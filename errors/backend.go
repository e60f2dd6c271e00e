package errors

const (
	TransportErrorCode    = 300_001
	BackendQueryErrorCode = 300_002
	HandleClosedErrorCode = 300_003
)

// TransportError indicates the backend could not be reached
var TransportError = new(TransportErrorCode, "TransportError", "backend %s is unreachable")

// BackendQueryError indicates the backend rejected the query, e.g. malformed filter or permission denial
var BackendQueryError = new(BackendQueryErrorCode, "BackendQueryError", "backend rejected query on %s")

// HandleClosedError indicates an operation on a query handle after it was closed
var HandleClosedError = new(HandleClosedErrorCode, "HandleClosed", "query handle for %s is closed")
