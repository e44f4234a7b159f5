package response

// WarnCode is a typed warning code for recoverable conditions: the request
// succeeded but part of the result could not be computed.
type WarnCode string

const (
	WarnEmptySelection        WarnCode = "EMPTY_SELECTION"
	WarnMissingOptionalColumn WarnCode = "MISSING_OPTIONAL_COLUMN"
	WarnInsufficientData      WarnCode = "INSUFFICIENT_DATA"
)

// GetWarningMessage returns a human-readable message for a given warning code.
func GetWarningMessage(code WarnCode) string {
	switch code {
	case WarnEmptySelection:
		return "The current selection matches no rows. Please widen the filters."
	case WarnMissingOptionalColumn:
		return "The dataset does not carry this optional column."
	case WarnInsufficientData:
		return "Not enough observations to compute this statistic."
	default:
		return "The result is incomplete."
	}
}
