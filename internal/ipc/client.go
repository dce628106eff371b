package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/eliteGoblin/focusd/tab_mon/internal/domain"
)

// ErrDaemonNotRunning means nothing is listening on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    15 * time.Second,
	}
}

// SetTimeout sets the per-request deadline.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v (is the daemon running?)", ErrDaemonNotRunning, err)
	}
	return conn, nil
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(command CommandType, payload interface{}) (*Response, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// Set deadline
	conn.SetDeadline(time.Now().Add(c.timeout))

	reader := bufio.NewReader(conn)
	if err := writeRequest(conn, command, payload); err != nil {
		return nil, err
	}
	return readResponse(reader)
}

func writeRequest(conn net.Conn, command CommandType, payload interface{}) error {
	req := Request{Command: command}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = raw
	}

	reqData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(reqData, '\n')); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

func readResponse(reader *bufio.Reader) (*Response, error) {
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for error response
	if resp.Status == StatusError {
		if sentinel := sentinelFor(resp.Code); sentinel != nil {
			return nil, fmt.Errorf("%w: %s", sentinel, resp.Error)
		}
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func decodeData(resp *Response, v interface{}) error {
	if err := json.Unmarshal(resp.Data, v); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// ListWindows returns the tab-ordered windows.
func (c *Client) ListWindows() ([]domain.WindowRecord, error) {
	resp, err := c.sendRequest(CommandListWindows, nil)
	if err != nil {
		return nil, err
	}
	var windows []domain.WindowRecord
	if err := decodeData(resp, &windows); err != nil {
		return nil, err
	}
	return windows, nil
}

// Focus focuses a window by stable id.
func (c *Client) Focus(id string) error {
	_, err := c.sendRequest(CommandFocus, IDPayload{ID: id})
	return err
}

// Minimize minimizes a window by stable id.
func (c *Client) Minimize(id string) error {
	_, err := c.sendRequest(CommandMinimize, IDPayload{ID: id})
	return err
}

// Reorder replaces the tab order.
func (c *Client) Reorder(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	_, err := c.sendRequest(CommandReorder, ReorderPayload{IDs: ids})
	return err
}

// GetOrder returns the tab order.
func (c *Client) GetOrder() ([]string, error) {
	resp, err := c.sendRequest(CommandGetOrder, nil)
	if err != nil {
		return nil, err
	}
	var data OrderData
	if err := decodeData(resp, &data); err != nil {
		return nil, err
	}
	return data.IDs, nil
}

// ShouldShow reports whether the tab bar should be visible.
func (c *Client) ShouldShow() (bool, error) {
	resp, err := c.sendRequest(CommandShouldShow, nil)
	if err != nil {
		return false, err
	}
	var data ShouldShowData
	if err := decodeData(resp, &data); err != nil {
		return false, err
	}
	return data.Visible, nil
}

// FrontmostApp returns the frontmost application name.
func (c *Client) FrontmostApp() (string, error) {
	resp, err := c.sendRequest(CommandFrontmostApp, nil)
	if err != nil {
		return "", err
	}
	var data FrontmostData
	if err := decodeData(resp, &data); err != nil {
		return "", err
	}
	return data.App, nil
}

// Resize moves windows below a reserved band of height pixels.
func (c *Client) Resize(height float64) ([]domain.ResizeResult, error) {
	resp, err := c.sendRequest(CommandResize, ResizePayload{Height: height})
	if err != nil {
		return nil, err
	}
	var results []domain.ResizeResult
	if err := decodeData(resp, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Status retrieves daemon status
func (c *Client) Status() (*StatusData, error) {
	resp, err := c.sendRequest(CommandStatus, nil)
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := decodeData(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Subscribe calls fn for every windows-updated event until ctx is canceled
// or the daemon closes the stream.
func (c *Client) Subscribe(ctx context.Context, fn func(Event)) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetDeadline(time.Now().Add(c.timeout))
	reader := bufio.NewReader(conn)
	if err := writeRequest(conn, CommandSubscribe, nil); err != nil {
		return err
	}
	if _, err := readResponse(reader); err != nil {
		return err
	}
	conn.SetDeadline(time.Time{})

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("subscription interrupted: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("failed to parse event: %w", err)
		}
		fn(ev)
	}
}
