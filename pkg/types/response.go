package types

// SuccessEnvelope is the uniform wrapper for successful API payloads.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the uniform wrapper for API errors.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError carries the public error code, message and optional field details.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
