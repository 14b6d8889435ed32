package marketplace

// ErrorCode is the stable numeric code surfaced to callers for a failed
// instruction. Codes are part of the wire contract and must never be
// renumbered once deployed.
type ErrorCode uint32

const (
	ErrorCodeMissingSignature ErrorCode = iota
	ErrorCodeDerivedAddressMismatch
	ErrorCodeAlreadyInitialized
	ErrorCodeNotInitialized
	ErrorCodeInvalidFeePercentage
	ErrorCodeInvalidPrice
	ErrorCodeListingNotActive
	ErrorCodeAccountMismatch
	ErrorCodeUnauthorized
	ErrorCodeInsufficientFunds
	ErrorCodeNumericOverflow
	ErrorCodeMalformedInstructionData
	ErrorCodeUnrecognizedInstruction
	ErrorCodeMalformedAccountData
)

// Error is a terminal program error. Every failure mode of the processor,
// decoder, and schema maps to exactly one Error value.
type Error struct {
	code    ErrorCode
	message string
}

func newError(code ErrorCode, message string) *Error {
	return &Error{code: code, message: message}
}

func (e *Error) Error() string {
	return e.message
}

// Code returns the stable numeric code for the error.
func (e *Error) Code() ErrorCode {
	return e.code
}

var (
	ErrMissingSignature         = newError(ErrorCodeMissingSignature, "missing required signature")
	ErrDerivedAddressMismatch   = newError(ErrorCodeDerivedAddressMismatch, "derived address mismatch")
	ErrAlreadyInitialized       = newError(ErrorCodeAlreadyInitialized, "already initialized")
	ErrNotInitialized           = newError(ErrorCodeNotInitialized, "not initialized")
	ErrInvalidFeePercentage     = newError(ErrorCodeInvalidFeePercentage, "invalid fee percentage")
	ErrInvalidPrice             = newError(ErrorCodeInvalidPrice, "invalid price")
	ErrListingNotActive         = newError(ErrorCodeListingNotActive, "listing not active")
	ErrAccountMismatch          = newError(ErrorCodeAccountMismatch, "account mismatch")
	ErrUnauthorized             = newError(ErrorCodeUnauthorized, "unauthorized")
	ErrInsufficientFunds        = newError(ErrorCodeInsufficientFunds, "insufficient funds")
	ErrNumericOverflow          = newError(ErrorCodeNumericOverflow, "numeric overflow")
	ErrMalformedInstructionData = newError(ErrorCodeMalformedInstructionData, "malformed instruction data")
	ErrUnrecognizedInstruction  = newError(ErrorCodeUnrecognizedInstruction, "unrecognized instruction")
	ErrMalformedAccountData     = newError(ErrorCodeMalformedAccountData, "malformed account data")
)
