package scorm

// Error codes returned through GetLastError. The string values are part of
// the runtime protocol and are consumed verbatim by existing content.
const (
	ErrCodeNoError            = "0"
	ErrCodeGeneralException   = "101"
	ErrCodeAlreadyInitialized = "101"
	ErrCodeNotInitialized     = "112"
	ErrCodeReadOnly           = "403"
	ErrCodeElementNotFound    = "404"
	ErrCodeInvalidData        = "405"
)

var errorStrings = map[string]string{
	ErrCodeNoError:          "No error",
	ErrCodeGeneralException: "General exception",
	ErrCodeNotInitialized:   "LMS not initialized",
	ErrCodeReadOnly:         "Element is read only",
	ErrCodeElementNotFound:  "Element not found",
	ErrCodeInvalidData:      "Invalid data",
}

// ErrorString maps a protocol error code to its fixed message. Unknown codes
// map to a generic message rather than failing.
func ErrorString(code string) string {
	if msg, ok := errorStrings[code]; ok {
		return msg
	}
	return "Unknown error"
}
