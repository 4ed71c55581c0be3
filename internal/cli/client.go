package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из API, CLI не импортирует internal/*) ---

// ModuleResponse — модуль приложения.
type ModuleResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FromAppStore bool   `json:"from_app_store"`
}

// Attribute — атрибут сущности.
type Attribute struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Length       int    `json:"length,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
}

// EntityResponse — сущность доменной модели.
type EntityResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	QualifiedName  string      `json:"qualified_name"`
	Module         string      `json:"module"`
	Persistable    bool        `json:"persistable"`
	Generalization string      `json:"generalization,omitempty"`
	Documentation  string      `json:"documentation,omitempty"`
	Attributes     []Attribute `json:"attributes"`
}

// MicroflowResponse — микрофлоу в списке.
type MicroflowResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	QualifiedName  string `json:"qualified_name,omitempty"`
	Module         string `json:"module"`
	ModuleResolved bool   `json:"module_resolved"`
	ResolvedBy     string `json:"resolved_by,omitempty"`
}

// Parameter — параметр микрофлоу.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Activity — действие микрофлоу.
type Activity struct {
	Type    string `json:"type"`
	Caption string `json:"caption,omitempty"`
}

// MicroflowDetailsResponse — полное описание микрофлоу.
type MicroflowDetailsResponse struct {
	MicroflowResponse
	Documentation string      `json:"documentation,omitempty"`
	Parameters    []Parameter `json:"parameters"`
	ReturnType    string      `json:"return_type"`
	Activities    []Activity  `json:"activities"`
	AllowedRoles  []string    `json:"allowed_roles,omitempty"`
}

// SessionResponse — сессия working copy.
type SessionResponse struct {
	ID            string `json:"id"`
	AppID         string `json:"app_id"`
	Branch        string `json:"branch"`
	WorkingCopyID string `json:"working_copy_id"`
	Operation     string `json:"operation"`
	Status        string `json:"status"`
	Revision      string `json:"revision,omitempty"`
	Error         string `json:"error,omitempty"`
	CreatedAt     string `json:"created_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
}

// ChangeResponse — запись журнала изменений.
type ChangeResponse struct {
	ID            string `json:"id"`
	SessionID     string `json:"session_id"`
	Branch        string `json:"branch"`
	Revision      string `json:"revision"`
	Op            string `json:"op"`
	Kind          string `json:"kind"`
	QualifiedName string `json:"qualified_name"`
	UnitID        string `json:"unit_id"`
	CommittedAt   string `json:"committed_at"`
}

// --- Request types ---

// CreateEntityRequest — создание сущности.
type CreateEntityRequest struct {
	Name           string      `json:"name"`
	Persistable    *bool       `json:"persistable,omitempty"`
	Generalization string      `json:"generalization,omitempty"`
	Documentation  string      `json:"documentation,omitempty"`
	Attributes     []Attribute `json:"attributes,omitempty"`
}

// CreateMicroflowRequest — создание микрофлоу.
type CreateMicroflowRequest struct {
	Name          string      `json:"name"`
	Folder        string      `json:"folder,omitempty"`
	Documentation string      `json:"documentation,omitempty"`
	Parameters    []Parameter `json:"parameters,omitempty"`
	ReturnType    string      `json:"return_type,omitempty"`
}

// ListSessionsOpts — параметры фильтрации сессий.
type ListSessionsOpts struct {
	App    string
	Status string
	Limit  int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrAppRequired — команда работает с моделью, но --app не указан.
var ErrAppRequired = errors.New("--app is required")

// --- Client ---

// Client — HTTP-клиент для modelproxy API.
type Client struct {
	baseURL    string
	app        string
	branch     string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
// app и branch используются командами, работающими с моделью приложения.
func NewClient(baseURL, app, branch string) *Client {
	return &Client{
		baseURL: baseURL,
		app:     app,
		branch:  branch,
		httpClient: &http.Client{
			// Каждый запрос открывает working copy на платформе.
			Timeout: 2 * time.Minute,
		},
	}
}

// --- Modules & entities ---

// ListModules возвращает модули приложения.
func (c *Client) ListModules() ([]ModuleResponse, error) {
	path, params, err := c.appPath("/modules")
	if err != nil {
		return nil, err
	}
	var modules []ModuleResponse
	err = c.list(path, params, &modules)
	return modules, err
}

// ListEntities возвращает сущности модуля.
func (c *Client) ListEntities(module string) ([]EntityResponse, error) {
	path, params, err := c.appPath("/modules/" + url.PathEscape(module) + "/entities")
	if err != nil {
		return nil, err
	}
	var entities []EntityResponse
	err = c.list(path, params, &entities)
	return entities, err
}

// CreateEntity создаёт сущность в модуле.
func (c *Client) CreateEntity(module string, req CreateEntityRequest) (*EntityResponse, error) {
	path, params, err := c.appPath("/modules/" + url.PathEscape(module) + "/entities")
	if err != nil {
		return nil, err
	}
	var entity EntityResponse
	err = c.post(withQuery(path, params), req, &entity)
	return &entity, err
}

// --- Microflows ---

// ListMicroflows возвращает микрофлоу; module — необязательный фильтр.
func (c *Client) ListMicroflows(module string) ([]MicroflowResponse, error) {
	path, params, err := c.appPath("/microflows")
	if err != nil {
		return nil, err
	}
	if module != "" {
		params.Set("module", module)
	}
	var microflows []MicroflowResponse
	err = c.list(path, params, &microflows)
	return microflows, err
}

// GetMicroflow возвращает полное описание микрофлоу.
func (c *Client) GetMicroflow(module, name string) (*MicroflowDetailsResponse, error) {
	path, params, err := c.appPath("/modules/" + url.PathEscape(module) + "/microflows/" + url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	var mf MicroflowDetailsResponse
	err = c.get(withQuery(path, params), &mf)
	return &mf, err
}

// CreateMicroflow создаёт микрофлоу в модуле.
func (c *Client) CreateMicroflow(module string, req CreateMicroflowRequest) (*MicroflowDetailsResponse, error) {
	path, params, err := c.appPath("/modules/" + url.PathEscape(module) + "/microflows")
	if err != nil {
		return nil, err
	}
	var mf MicroflowDetailsResponse
	err = c.post(withQuery(path, params), req, &mf)
	return &mf, err
}

// --- Audit ---

// ListSessions возвращает сессии working copies.
func (c *Client) ListSessions(opts ListSessionsOpts) ([]SessionResponse, error) {
	params := url.Values{}
	if opts.App != "" {
		params.Set("app", opts.App)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var sessions []SessionResponse
	err := c.list("/api/v1/sessions", params, &sessions)
	return sessions, err
}

// ListChanges возвращает журнал изменений приложения.
func (c *Client) ListChanges(limit int) ([]ChangeResponse, error) {
	if c.app == "" {
		return nil, ErrAppRequired
	}
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var changes []ChangeResponse
	err := c.list("/api/v1/apps/"+url.PathEscape(c.app)+"/changes", params, &changes)
	return changes, err
}

// --- HTTP helpers ---

// appPath строит путь /api/v1/apps/{app}{suffix} и параметр branch.
func (c *Client) appPath(suffix string) (string, url.Values, error) {
	if c.app == "" {
		return "", nil, ErrAppRequired
	}
	params := url.Values{}
	if c.branch != "" {
		params.Set("branch", c.branch)
	}
	return "/api/v1/apps/" + url.PathEscape(c.app) + suffix, params, nil
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	resp, err := c.do(http.MethodGet, withQuery(path, params), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
