// Package levelclient talks to the level server.
package levelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/levelstore"
)

// Client implements levelstore.Store over HTTP.
type Client struct {
	base string
	http *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) levelURL(id string) string {
	return c.base + "/level/" + url.PathEscape(id)
}

func (c *Client) Read(ctx context.Context, id string) (levels.Document, error) {
	body, err := c.do(ctx, http.MethodGet, c.levelURL(id), nil, "read", id)
	if err != nil {
		return nil, err
	}
	// Parse already reports a malformed payload as a ValidationError
	return levels.Parse(body)
}

func (c *Client) Write(ctx context.Context, id string, doc levels.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return &levels.StorageError{Op: "write", ID: id, Err: err}
	}
	_, err = c.do(ctx, http.MethodPost, c.levelURL(id), data, "write", id)
	return err
}

func (c *Client) List(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, c.base+"/levels", nil, "list", "")
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, &levels.StorageError{Op: "list", Err: err}
	}
	return ids, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.levelURL(id), nil, "delete", id)
	return err
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, op, id string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &levels.StorageError{Op: op, ID: id, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &levels.StorageError{Op: op, ID: id, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &levels.StorageError{Op: op, ID: id, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &levels.NotFoundError{ID: id}
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &levels.ValidationError{Reason: strings.TrimSpace(string(data))}
	case resp.StatusCode >= 300:
		return nil, &levels.StorageError{Op: op, ID: id, Err: fmt.Errorf("server returned %s", resp.Status)}
	}
	return data, nil
}

// Subscribe dials the change feed. The channel closes when ctx is done or
// the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan levelstore.Change, error) {
	wsURL := "ws" + strings.TrimPrefix(c.base, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("levelclient: dial %s: %w", wsURL, err)
	}

	out := make(chan levelstore.Change, 16)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var change levelstore.Change
			if err := conn.ReadJSON(&change); err != nil {
				return
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

var _ levelstore.Store = (*Client)(nil)
