package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"

	// Fetch taxonomy: transient errors are retried with backoff and only
	// surface once the attempt ceiling is exceeded; permanent errors abort
	// the affected provider immediately.
	CodeTransientFetch Code = "TRANSIENT_FETCH_ERROR"
	CodePermanentFetch Code = "PERMANENT_FETCH_ERROR"

	// CodeNormalizationAmbiguity marks an unexpected upstream response
	// shape; callers downgrade it to an empty SKU set, never a failure.
	CodeNormalizationAmbiguity Code = "NORMALIZATION_AMBIGUITY"

	// CodeCacheIntegrity marks a checksum mismatch on read and is always
	// treated as a cache miss.
	CodeCacheIntegrity Code = "CACHE_INTEGRITY_ERROR"

	CodeCacheIO         Code = "CACHE_IO_ERROR"
	CodeComparisonError Code = "COMPARISON_ERROR"
	CodeNotImplemented  Code = "NOT_IMPLEMENTED"
	CodeTimeout         Code = "TIMEOUT_ERROR"
)

func (c Code) String() string {
	return string(c)
}
