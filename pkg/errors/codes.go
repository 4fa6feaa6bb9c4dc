package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every module.
const (
	ErrCodeInternal      ErrorCode = "COMMON_001"
	ErrCodeBadRequest    ErrorCode = "COMMON_002"
	ErrCodeNotFound      ErrorCode = "COMMON_003"
	ErrCodeConflict      ErrorCode = "COMMON_004"
	ErrCodeValidation    ErrorCode = "COMMON_005"
	ErrCodeSerialization ErrorCode = "COMMON_006"
	ErrCodeDatabaseError ErrorCode = "COMMON_007"
	ErrCodeCacheError    ErrorCode = "COMMON_008"
	ErrCodeMessageQueue  ErrorCode = "COMMON_009"
	ErrCodeUnavailable   ErrorCode = "COMMON_010"
	ErrCodeCanceled      ErrorCode = "COMMON_011"
)

// Molecule module error codes.
const (
	// ErrCodeInvalidSMILES covers molecule notations the graph provider
	// cannot turn into a molecular graph.
	ErrCodeInvalidSMILES ErrorCode = "MOL_001"

	// ErrCodeInvalidAtom covers atom references that have no graph context,
	// e.g. an out-of-range index or a signature parsed from a string that
	// was never attached to a molecule.
	ErrCodeInvalidAtom ErrorCode = "MOL_002"
)

// Signature module error codes.
const (
	// ErrCodeMalformedSignature covers canonical-string parse failures.
	ErrCodeMalformedSignature ErrorCode = "SIG_001"

	// ErrCodeNeighborsNotComputed is raised when a neighbor-inclusive export
	// is requested before ExpandNeighbors was called.
	ErrCodeNeighborsNotComputed ErrorCode = "SIG_002"
)

// Alphabet module error codes.
const (
	// ErrCodeIncompatibleAlphabet covers merges or comparisons across
	// alphabets whose configurations differ in any field.
	ErrCodeIncompatibleAlphabet ErrorCode = "ALP_001"

	// ErrCodeAlphabetLoad covers corrupt or missing persisted alphabets.
	ErrCodeAlphabetLoad ErrorCode = "ALP_002"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:      "internal error",
	ErrCodeBadRequest:    "bad request",
	ErrCodeNotFound:      "resource not found",
	ErrCodeConflict:      "resource conflict",
	ErrCodeValidation:    "validation failed",
	ErrCodeSerialization: "serialization failed",
	ErrCodeDatabaseError: "database error",
	ErrCodeCacheError:    "cache error",
	ErrCodeMessageQueue:  "message queue error",
	ErrCodeUnavailable:   "service unavailable",
	ErrCodeCanceled:      "operation canceled",

	ErrCodeInvalidSMILES: "invalid SMILES notation",
	ErrCodeInvalidAtom:   "atom has no graph context",

	ErrCodeMalformedSignature:   "malformed signature string",
	ErrCodeNeighborsNotComputed: "neighbor signatures not computed",

	ErrCodeIncompatibleAlphabet: "alphabet configurations differ",
	ErrCodeAlphabetLoad:         "failed to load alphabet",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
