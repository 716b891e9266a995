package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// RunStart asks the daemon to launch a run from an input spreadsheet.
func (c *Client) RunStart(inputPath string, retailers []string) (*RunStartResponse, error) {
	var resp RunStartResponse
	req := RunStartRequest{InputPath: inputPath, Retailers: retailers}
	if err := c.client.Call("Packshot.RunStart", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunStop requests cancellation of the active run.
func (c *Client) RunStop() (*RunStopResponse, error) {
	var resp RunStopResponse
	if err := c.client.Call("Packshot.RunStop", RunStopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves daemon and run status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Packshot.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EventTail fetches run events past a cursor.
func (c *Client) EventTail(req EventTailRequest) (*EventTailResponse, error) {
	var resp EventTailResponse
	if err := c.client.Call("Packshot.EventTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Packshot.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.client.Call("Packshot.Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
