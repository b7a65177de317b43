package errors

var (
	ErrUnknown              = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument      = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound             = New(ERR_NOT_FOUND, "not found")
	ErrProcessing           = New(ERR_PROCESSING, "error processing")
	ErrConfiguration        = New(ERR_CONFIGURATION, "configuration error")
	ErrContext              = New(ERR_CONTEXT, "context error")
	ErrContextCanceled      = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError                = New(ERR_ERROR, "generic error")
	ErrTxnInvalid           = New(ERR_TXN_INVALID, "transaction invalid")
	ErrTxnRejected          = New(ERR_TXN_REJECTED, "transaction rejected")
	ErrValidationTimeout    = New(ERR_VALIDATION_TIMEOUT, "validation timeout")
	ErrPropagationFailed    = New(ERR_PROPAGATION_FAILED, "propagation failed")
	ErrSubscriptionClosed   = New(ERR_SUBSCRIPTION_CLOSED, "subscription closed")
	ErrInvalidLifecycleURI  = New(ERR_INVALID_LIFECYCLE_URI, "invalid lifecycle uri")
	ErrServiceUnavailable   = New(ERR_SERVICE_UNAVAILABLE, "service unavailable")
	ErrServiceNotStarted    = New(ERR_SERVICE_NOT_STARTED, "service not started")
	ErrServiceError         = New(ERR_SERVICE_ERROR, "service error")
	ErrStorageUnavailable   = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
	ErrStorageNotStarted    = New(ERR_STORAGE_NOT_STARTED, "storage not started")
	ErrStorageError         = New(ERR_STORAGE_ERROR, "storage error")
	ErrKafka                = New(ERR_KAFKA_ERROR, "kafka error")
	ErrNetwork              = New(ERR_NETWORK_ERROR, "network error")
	ErrNetworkTimeout       = New(ERR_NETWORK_TIMEOUT, "network timeout")
	ErrNetworkInvalidResult = New(ERR_NETWORK_INVALID_RESPONSE, "invalid network response")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewContextError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT, message, params...)
}
func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewTxnInvalidError(message string, params ...interface{}) error {
	return New(ERR_TXN_INVALID, message, params...)
}
func NewTxnRejectedError(message string, params ...interface{}) error {
	return New(ERR_TXN_REJECTED, message, params...)
}
func NewValidationTimeoutError(message string, params ...interface{}) error {
	return New(ERR_VALIDATION_TIMEOUT, message, params...)
}
func NewPropagationFailedError(message string, params ...interface{}) error {
	return New(ERR_PROPAGATION_FAILED, message, params...)
}
func NewSubscriptionClosedError(message string, params ...interface{}) error {
	return New(ERR_SUBSCRIPTION_CLOSED, message, params...)
}
func NewInvalidLifecycleURIError(message string, params ...interface{}) error {
	return New(ERR_INVALID_LIFECYCLE_URI, message, params...)
}
func NewServiceUnavailableError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_UNAVAILABLE, message, params...)
}
func NewServiceNotStartedError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_NOT_STARTED, message, params...)
}
func NewServiceError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_ERROR, message, params...)
}
func NewStorageUnavailableError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_UNAVAILABLE, message, params...)
}
func NewStorageNotStartedError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_NOT_STARTED, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
func NewKafkaError(message string, params ...interface{}) error {
	return New(ERR_KAFKA_ERROR, message, params...)
}
func NewNetworkError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_ERROR, message, params...)
}
func NewNetworkTimeoutError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_TIMEOUT, message, params...)
}
func NewNetworkInvalidResponseError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_INVALID_RESPONSE, message, params...)
}
