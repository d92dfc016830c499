package apiclient

import "strings"

// Envelope is the standard response wrapper of the console backend.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      any    `json:"code,omitempty"`
	Timestamp any    `json:"timestamp,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func (e Envelope) message() string {
	if m := strings.TrimSpace(e.Message); m != "" {
		return m
	}
	return strings.TrimSpace(e.Error)
}

func parseEnvelope(v any) (Envelope, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Envelope{}, false
	}
	success, ok := m["success"].(bool)
	if !ok {
		// Error bodies without the flag still carry a message worth showing.
		return Envelope{Message: str(m["message"]), Error: str(m["error"])}, false
	}
	return Envelope{
		Success:   success,
		Data:      m["data"],
		Message:   str(m["message"]),
		Error:     str(m["error"]),
		Code:      m["code"],
		Timestamp: m["timestamp"],
		Details:   m["details"],
	}, true
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
