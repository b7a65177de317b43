package errors

// ERR is the numeric error code carried by every *Error.
type ERR int32

const (
	ERR_UNKNOWN          ERR = 0
	ERR_INVALID_ARGUMENT ERR = 1
	ERR_NOT_FOUND        ERR = 3
	ERR_PROCESSING       ERR = 4
	ERR_CONFIGURATION    ERR = 5
	ERR_CONTEXT          ERR = 6
	ERR_CONTEXT_CANCELED ERR = 7
	ERR_ERROR            ERR = 9

	// transaction
	ERR_TXN_INVALID           ERR = 30
	ERR_TXN_REJECTED          ERR = 31
	ERR_VALIDATION_TIMEOUT    ERR = 32
	ERR_PROPAGATION_FAILED    ERR = 33
	ERR_SUBSCRIPTION_CLOSED   ERR = 34
	ERR_INVALID_LIFECYCLE_URI ERR = 35

	// service
	ERR_SERVICE_UNAVAILABLE ERR = 50
	ERR_SERVICE_NOT_STARTED ERR = 51
	ERR_SERVICE_ERROR       ERR = 52

	// storage
	ERR_STORAGE_UNAVAILABLE ERR = 60
	ERR_STORAGE_NOT_STARTED ERR = 61
	ERR_STORAGE_ERROR       ERR = 62

	// kafka
	ERR_KAFKA_ERROR ERR = 80

	// network
	ERR_NETWORK_ERROR              ERR = 110
	ERR_NETWORK_TIMEOUT            ERR = 111
	ERR_NETWORK_CONNECTION_REFUSED ERR = 112
	ERR_NETWORK_INVALID_RESPONSE   ERR = 113
)

var ERR_name = map[ERR]string{
	ERR_UNKNOWN:                    "UNKNOWN",
	ERR_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ERR_NOT_FOUND:                  "NOT_FOUND",
	ERR_PROCESSING:                 "PROCESSING",
	ERR_CONFIGURATION:              "CONFIGURATION",
	ERR_CONTEXT:                    "CONTEXT",
	ERR_CONTEXT_CANCELED:           "CONTEXT_CANCELED",
	ERR_ERROR:                      "ERROR",
	ERR_TXN_INVALID:                "TXN_INVALID",
	ERR_TXN_REJECTED:               "TXN_REJECTED",
	ERR_VALIDATION_TIMEOUT:         "VALIDATION_TIMEOUT",
	ERR_PROPAGATION_FAILED:         "PROPAGATION_FAILED",
	ERR_SUBSCRIPTION_CLOSED:        "SUBSCRIPTION_CLOSED",
	ERR_INVALID_LIFECYCLE_URI:      "INVALID_LIFECYCLE_URI",
	ERR_SERVICE_UNAVAILABLE:        "SERVICE_UNAVAILABLE",
	ERR_SERVICE_NOT_STARTED:        "SERVICE_NOT_STARTED",
	ERR_SERVICE_ERROR:              "SERVICE_ERROR",
	ERR_STORAGE_UNAVAILABLE:        "STORAGE_UNAVAILABLE",
	ERR_STORAGE_NOT_STARTED:        "STORAGE_NOT_STARTED",
	ERR_STORAGE_ERROR:              "STORAGE_ERROR",
	ERR_KAFKA_ERROR:                "KAFKA_ERROR",
	ERR_NETWORK_ERROR:              "NETWORK_ERROR",
	ERR_NETWORK_TIMEOUT:            "NETWORK_TIMEOUT",
	ERR_NETWORK_CONNECTION_REFUSED: "NETWORK_CONNECTION_REFUSED",
	ERR_NETWORK_INVALID_RESPONSE:   "NETWORK_INVALID_RESPONSE",
}

func (x ERR) String() string {
	if name, ok := ERR_name[x]; ok {
		return name
	}

	return "UNKNOWN"
}
