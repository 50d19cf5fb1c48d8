// Package apiclient HTTP-клиент API Idle Forest, которым агент выполняет вход и регистрацию.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/idleforest/idleforest/internal/models"
)

// Error ответ API с кодом, отличным от 2xx.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент. baseURL включает префикс версии, например http://localhost:8080/api/v1.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if decodeErr != nil {
		return decodeErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Register регистрирует пользователя и возвращает токен сессии.
func (c *Client) Register(ctx context.Context, reqParams models.RegisterRequest) (*models.AuthResult, error) {
	const op = "apiclient.Register"
	return c.auth(ctx, op, "/auth/register", reqParams)
}

// Login выполняет вход и возвращает токен сессии.
func (c *Client) Login(ctx context.Context, reqParams models.LoginRequest) (*models.AuthResult, error) {
	const op = "apiclient.Login"
	return c.auth(ctx, op, "/auth/login", reqParams)
}

func (c *Client) auth(ctx context.Context, op, path string, body any) (*models.AuthResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var res models.AuthResult
	if err = c.do(req, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &res, nil
}
