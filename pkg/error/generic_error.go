package error

// GenericError is implemented by typed errors that carry an HTTP status and
// a stable machine-readable code for the REST layer.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
