package model

// Outcome codes carried in the Error field of validation and receive results.
// Callers may return their own codes from custom validators.
const (
	CodeInvalidTransactionData = "invalid_transaction_data"
	CodeInvalidSignature       = "invalid_signature"
	CodeInputNotFound          = "input_not_found"
	CodeInputAlreadySpent      = "input_already_spent"
	CodeNotOwner               = "not_owner"
	CodeConservationViolated   = "conservation_violated"
	CodeNoFeeOutput            = "no_fee_output"
	CodeInvalidFeeType         = "invalid_fee_type"
	CodeInsufficientFee        = "insufficient_fee"
	CodeValidationTimeout      = "validation_timeout"
	CodeWriteFailed            = "write_failed"
)
