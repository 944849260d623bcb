package errors

// ErrorCode identifies an application error category
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ALREADY_EXISTS
	ErrorCode_PERMISSION_DENIED
	ErrorCode_INVALID_PAYLOAD
	ErrorCode_SESSION_NOT_FOUND
	ErrorCode_SESSION_ALREADY_ACTIVE
	ErrorCode_SUMMARY_NOT_FOUND
	ErrorCode_PROVIDER_FAILED
	ErrorCode_SUMMARIZATION_FAILED
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                "OK",
	ErrorCode_INTERNAL:               "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:       "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:              "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:         "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:      "PERMISSION_DENIED",
	ErrorCode_INVALID_PAYLOAD:        "INVALID_PAYLOAD",
	ErrorCode_SESSION_NOT_FOUND:      "SESSION_NOT_FOUND",
	ErrorCode_SESSION_ALREADY_ACTIVE: "SESSION_ALREADY_ACTIVE",
	ErrorCode_SUMMARY_NOT_FOUND:      "SUMMARY_NOT_FOUND",
	ErrorCode_PROVIDER_FAILED:        "PROVIDER_FAILED",
	ErrorCode_SUMMARIZATION_FAILED:   "SUMMARIZATION_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
