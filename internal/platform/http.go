package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ebstat/sdkmendixtest/internal/model"
	"github.com/ebstat/sdkmendixtest/internal/telemetry"
)

const (
	// Значения по умолчанию.
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// HTTPClient — REST-клиент репозитория моделей платформы.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Platform = (*HTTPClient)(nil)

// HTTPConfig — конфигурация HTTPClient.
type HTTPConfig struct {
	// BaseURL — адрес API платформы, например "https://models.example.com".
	BaseURL string

	// Token — персональный токен доступа (Authorization: Bearer).
	Token string

	// Timeout — таймаут одного запроса. По умолчанию 30s.
	Timeout time.Duration

	// HTTPClient — собственный http.Client (тесты). Timeout тогда игнорируется.
	HTTPClient *http.Client
}

// NewHTTPClient создаёт клиент платформы.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: client,
	}
}

// createWorkingCopyRequest — тело запроса на создание working copy.
type createWorkingCopyRequest struct {
	Branch string `json:"branch"`
}

// commitRequest — тело запроса на коммит.
type commitRequest struct {
	Message string `json:"message"`
}

// commitResponse — ответ на коммит.
type commitResponse struct {
	Revision string `json:"revision"`
}

// changesRequest — тело запроса на применение изменений.
type changesRequest struct {
	Changes []model.Change `json:"changes"`
}

// errorBody — тело ответа платформы с ошибкой.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateWorkingCopy создаёт working copy ветки приложения.
func (c *HTTPClient) CreateWorkingCopy(ctx context.Context, appID, branch string) (*WorkingCopy, error) {
	var wc WorkingCopy
	path := "/v1/apps/" + url.PathEscape(appID) + "/working-copies"
	if err := c.call(ctx, "create_working_copy", http.MethodPost, path, createWorkingCopyRequest{Branch: branch}, &wc); err != nil {
		return nil, err
	}
	if wc.AppID == "" {
		wc.AppID = appID
	}
	if wc.Branch == "" {
		wc.Branch = branch
	}
	return &wc, nil
}

// LoadModel загружает модель working copy.
func (c *HTTPClient) LoadModel(ctx context.Context, wcID string) (*model.Document, error) {
	var doc model.Document
	path := "/v1/working-copies/" + url.PathEscape(wcID) + "/model"
	if err := c.call(ctx, "load_model", http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadMicroflow загружает полное описание микрофлоу.
func (c *HTTPClient) LoadMicroflow(ctx context.Context, wcID, unitID string) (*model.MicroflowDetailsDoc, error) {
	var details model.MicroflowDetailsDoc
	path := "/v1/working-copies/" + url.PathEscape(wcID) + "/units/" + url.PathEscape(unitID)
	if err := c.call(ctx, "load_unit", http.MethodGet, path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// ApplyChanges применяет изменения к working copy.
func (c *HTTPClient) ApplyChanges(ctx context.Context, wcID string, changes []model.Change) error {
	path := "/v1/working-copies/" + url.PathEscape(wcID) + "/changes"
	return c.call(ctx, "apply_changes", http.MethodPost, path, changesRequest{Changes: changes}, nil)
}

// Commit коммитит working copy в ветку.
func (c *HTTPClient) Commit(ctx context.Context, wcID, message string) (string, error) {
	var resp commitResponse
	path := "/v1/working-copies/" + url.PathEscape(wcID) + "/commit"
	if err := c.call(ctx, "commit", http.MethodPost, path, commitRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Revision, nil
}

// DeleteWorkingCopy удаляет working copy. 404 не считается ошибкой.
func (c *HTTPClient) DeleteWorkingCopy(ctx context.Context, wcID string) error {
	path := "/v1/working-copies/" + url.PathEscape(wcID)
	err := c.call(ctx, "delete_working_copy", http.MethodDelete, path, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// --- HTTP helpers ---

// call выполняет запрос и пишет метрику длительности.
func (c *HTTPClient) call(ctx context.Context, op, method, path string, body, result any) error {
	start := time.Now()
	err := c.do(ctx, method, path, body, result)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	telemetry.PlatformCallDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.Message != "" {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
	}
	return apiErr
}
