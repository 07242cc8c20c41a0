package errors

import "strings"

// ErrorCode is a string identifier for a specific error condition.  Codes are
// grouped by module prefix: COMMON_* for cross-cutting failures, STR_* for the
// structure model, RXN_* for the correction/mapping engine, RULE_* for the
// rule library, and SRC_* for upstream data sources.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeOK      ErrorCode = "OK"
	ErrCodeUnknown ErrorCode = "COMMON_000"

	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeDatabaseError      ErrorCode = "COMMON_007"
	ErrCodeCacheError         ErrorCode = "COMMON_008"
	ErrCodeMessagingError     ErrorCode = "COMMON_009"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_010"
	ErrCodeNotImplemented     ErrorCode = "COMMON_011"
)

// Structure model error codes.
const (
	ErrCodeStructureInvalid   ErrorCode = "STR_001"
	ErrCodeStructureEmpty     ErrorCode = "STR_002"
	ErrCodeRingBondUnmatched  ErrorCode = "STR_003"
	ErrCodeBracketUnbalanced  ErrorCode = "STR_004"
	ErrCodeUnknownElement     ErrorCode = "STR_005"
	ErrCodeReactionMalformed  ErrorCode = "STR_006"
	ErrCodeCanonicalizeFailed ErrorCode = "STR_007"
)

// Correction/mapping engine error codes.  The first three form the pipeline's
// recoverable per-entry failure taxonomy: they surface as aggregate counts,
// never abort a batch.
const (
	ErrCodeUnresolvable ErrorCode = "RXN_001"
	ErrCodeUnbalanced   ErrorCode = "RXN_002"
	ErrCodeUnmapped     ErrorCode = "RXN_003"

	ErrCodeMappingFailed     ErrorCode = "RXN_004"
	ErrCodeSuggestionFailed  ErrorCode = "RXN_005"
	ErrCodeSelectionFailed   ErrorCode = "RXN_006"
	ErrCodeGroupTimeout      ErrorCode = "RXN_007"
	ErrCodeCandidateOverflow ErrorCode = "RXN_008"
)

// Rule library error codes.
const (
	ErrCodeRuleNotFound       ErrorCode = "RULE_001"
	ErrCodeRulePatternInvalid ErrorCode = "RULE_002"
	ErrCodeRuleLibraryEmpty   ErrorCode = "RULE_003"
)

// Upstream data-source error codes.
const (
	ErrCodeSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeSourceParseError  ErrorCode = "SRC_002"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessagingError:     "message publish failed",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeStructureInvalid:   "invalid structure string",
	ErrCodeStructureEmpty:     "structure string is empty",
	ErrCodeRingBondUnmatched:  "unmatched ring-bond digit",
	ErrCodeBracketUnbalanced:  "unbalanced brackets in structure",
	ErrCodeUnknownElement:     "unknown element symbol",
	ErrCodeReactionMalformed:  "malformed reaction string",
	ErrCodeCanonicalizeFailed: "canonicalization failed",

	ErrCodeUnresolvable:      "compound has no resolved structure",
	ErrCodeUnbalanced:        "no candidate conserves atoms",
	ErrCodeUnmapped:          "no template or suggestion maps the reaction",
	ErrCodeMappingFailed:     "template mapping failed",
	ErrCodeSuggestionFailed:  "suggestion fallback failed",
	ErrCodeSelectionFailed:   "candidate selection failed",
	ErrCodeGroupTimeout:      "enzyme group exceeded its time budget",
	ErrCodeCandidateOverflow: "candidate combination space too large",

	ErrCodeRuleNotFound:       "rule not found",
	ErrCodeRulePatternInvalid: "invalid rule pattern",
	ErrCodeRuleLibraryEmpty:   "rule library is empty",

	ErrCodeSourceUnavailable: "data source unavailable",
	ErrCodeSourceParseError:  "failed to parse data source",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode ("COMMON", "STR",
// "RXN", "RULE", "SRC").
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
