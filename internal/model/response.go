package model

// Response is the envelope every JSON endpoint answers with. Success is
// always present; Message and Error are mutually exclusive in practice.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the envelope for failed requests.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CommandResponse relays the trimmed stdout of a runtime command.
type CommandResponse struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}
