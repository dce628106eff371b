// Package ipc is the line-delimited JSON protocol between the tabmon daemon
// and its clients over a unix socket.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandListWindows  CommandType = "LIST_WINDOWS"
	CommandFocus        CommandType = "FOCUS"
	CommandMinimize     CommandType = "MINIMIZE"
	CommandReorder      CommandType = "REORDER"
	CommandGetOrder     CommandType = "GET_ORDER"
	CommandShouldShow   CommandType = "SHOULD_SHOW"
	CommandFrontmostApp CommandType = "FRONTMOST_APP"
	CommandResize       CommandType = "RESIZE"
	CommandSubscribe    CommandType = "SUBSCRIBE"
	CommandStatus       CommandType = "STATUS"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Error codes carried in error responses.
const (
	CodeManagerUnavailable = "manager_unavailable"
	CodeQueryFailure       = "query_failure"
	CodeNotFound           = "not_found"
	CodePersistenceWrite   = "persistence_write"
	CodeBadRequest         = "bad_request"
	CodeInternal           = "internal"
)

// EventWindowsUpdated is the event type streamed to subscribers.
const EventWindowsUpdated = "windows-updated"

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
	Code   string          `json:"code,omitempty"`
}

// Event is one line of a SUBSCRIBE stream.
type Event struct {
	Type    string                `json:"type"`
	Windows []domain.WindowRecord `json:"windows"`
	At      time.Time             `json:"at"`
}

// IDPayload names one window by stable id.
type IDPayload struct {
	ID string `json:"id"`
}

// ReorderPayload is the complete new tab order.
type ReorderPayload struct {
	IDs []string `json:"ids"`
}

// ResizePayload is the height reserved for the tab bar.
type ResizePayload struct {
	Height float64 `json:"height"`
}

type OrderData struct {
	IDs []string `json:"ids"`
}

type ShouldShowData struct {
	Visible bool `json:"visible"`
}

type FrontmostData struct {
	App string `json:"app"`
}

// StatusData represents the data returned by STATUS
type StatusData struct {
	domain.Status
	PID           int    `json:"pid"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	OrderFile     string `json:"order_file,omitempty"`
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
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message and code
func NewErrorResponse(code, errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
		Code:   code,
	}
}

// ErrorResponseFor maps err to a response code by its sentinel.
func ErrorResponseFor(err error) *Response {
	return NewErrorResponse(CodeFor(err), err.Error())
}

// CodeFor returns the protocol code for err.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrManagerUnavailable):
		return CodeManagerUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrPersistenceWrite):
		return CodePersistenceWrite
	case errors.Is(err, domain.ErrQueryFailure):
		return CodeQueryFailure
	default:
		return CodeInternal
	}
}

// ErrBadRequest is returned by the client for CodeBadRequest responses.
var ErrBadRequest = errors.New("bad request")

// sentinelFor is the inverse of CodeFor.
func sentinelFor(code string) error {
	switch code {
	case CodeManagerUnavailable:
		return domain.ErrManagerUnavailable
	case CodeNotFound:
		return domain.ErrNotFound
	case CodePersistenceWrite:
		return domain.ErrPersistenceWrite
	case CodeQueryFailure:
		return domain.ErrQueryFailure
	case CodeBadRequest:
		return ErrBadRequest
	default:
		return nil
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
