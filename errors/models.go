package errors

const (
	CurrentPageInvalidErrorCode = 200_001
	ObjectIDNotFoundErrorCode   = 200_002
	DuplicatedObjectIDErrorCode = 200_003
	MatchTypeInvalidErrorCode   = 200_004
	PageSizeInvalidErrorCode    = 200_005
	ProjectionInvalidErrorCode  = 200_006
	CollectionInvalidErrorCode  = 200_007
	InvalidRecordErrorCode      = 200_008
	OperationUnsupportedCode    = 200_009
	RequestInvalidErrorCode     = 200_010
)

// CurrentPageInvalidError indicates user gives invalid current page when searching items
var CurrentPageInvalidError = new(CurrentPageInvalidErrorCode, "CurrentPageInvalid", "Current page can be only positive integer")

// ObjectIDNotFoundError indicates user gives invalid item ID
var ObjectIDNotFoundError = new(ObjectIDNotFoundErrorCode, "ObjectIDNotFound", "Item with ID %s is not exist")

// DuplicatedObjectIDError indicates user create item using item ID that already in used
var DuplicatedObjectIDError = new(DuplicatedObjectIDErrorCode, "DuplicatedObjectID", "item ID %s is already used")

// MatchTypeInvalidError indicates user give invalid or unsupported match type when user search items
var MatchTypeInvalidError = new(MatchTypeInvalidErrorCode, "MatchTypeInvalid", "Match type %v is invalid or unsupported")

// PageSizeInvalidError indicates a non-positive page size
var PageSizeInvalidError = new(PageSizeInvalidErrorCode, "PageSizeInvalid", "Page size can be only positive integer")

// ProjectionInvalidError indicates a field list that cannot be parsed
var ProjectionInvalidError = new(ProjectionInvalidErrorCode, "ProjectionInvalid", "Projection is invalid: %s")

// CollectionInvalidError indicates an unknown or malformed collection name
var CollectionInvalidError = new(CollectionInvalidErrorCode, "CollectionInvalid", "Collection %q is invalid or unknown")

// InvalidRecordError indicates a request body that is not a valid record
var InvalidRecordError = new(InvalidRecordErrorCode, "InvalidRecord", "Record is invalid: %s")

// OperationUnsupportedError indicates the configured backend cannot perform the operation
var OperationUnsupportedError = new(OperationUnsupportedCode, "OperationUnsupported", "Operation %s is not supported by backend %s")

// RequestInvalidError indicates query parameters or a body that cannot be bound
var RequestInvalidError = new(RequestInvalidErrorCode, "RequestInvalid", "Request is invalid: %s")
