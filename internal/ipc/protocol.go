package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetMonitors   CommandType = "GET_MONITORS"
	CommandSuspend       CommandType = "SUSPEND"
	CommandResume        CommandType = "RESUME"
	CommandSetOnlyActive CommandType = "SET_ONLY_ACTIVE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS. Visibility is what the
// dock shows, so it reads shown while suspended. OnlyActiveWindow is the
// configured value; RestrictedToActiveWindow is the mode in effect, including
// runtime toggles.
type StatusData struct {
	Visibility               string `json:"visibility"`
	Suspended                bool   `json:"suspended"`
	OnlyActiveWindow         bool   `json:"only_active_window"`
	RestrictedToActiveWindow bool   `json:"restricted_to_active_window"`
	Polling                  bool   `json:"polling"`
	FocusApp                 string `json:"focus_app,omitempty"`
	DockClass                string `json:"dock_class,omitempty"`
	PresenterMode            string `json:"presenter_mode"`
	Recomputes               int    `json:"recomputes"`
	Shows                    int    `json:"shows"`
	Hides                    int    `json:"hides"`
	UptimeSeconds            int64  `json:"uptime_seconds"`
	DaemonRunning            bool   `json:"daemon_running"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// SetOnlyActivePayload represents the payload for SET_ONLY_ACTIVE
type SetOnlyActivePayload struct {
	Active *bool `json:"active"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
