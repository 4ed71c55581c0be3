package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI отвечает заранее заданными телами и запоминает последний запрос.
type fakeAPI struct {
	t       *testing.T
	status  int
	body    string
	method  string
	path    string
	query   map[string]string
	request map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.method = r.Method
	f.path = r.URL.Path
	f.query = map[string]string{}
	for k := range r.URL.Query() {
		f.query[k] = r.URL.Query().Get(k)
	}
	f.request = nil
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			assert.NoError(f.t, json.Unmarshal(raw, &f.request))
		}
	}

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, f.body)
}

func newTestClient(t *testing.T, api *fakeAPI, app, branch string) *Client {
	t.Helper()
	api.t = t
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, app, branch)
}

func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestClient_ListMicroflows(t *testing.T) {
	api := &fakeAPI{body: `{"data":[{"id":"mf-process","name":"ACT_Process","module":"Sales","module_resolved":true,"resolved_by":"ancestor"}],"total":1}`}
	client := newTestClient(t, api, "sales-app", "develop")

	mfs, err := client.ListMicroflows("Sales")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, api.method)
	assert.Equal(t, "/api/v1/apps/sales-app/microflows", api.path)
	assert.Equal(t, map[string]string{"branch": "develop", "module": "Sales"}, api.query)

	require.Len(t, mfs, 1)
	assert.Equal(t, "Sales", mfs[0].Module)
	assert.Equal(t, "ancestor", mfs[0].ResolvedBy)
}

func TestClient_GetMicroflowEscapesPath(t *testing.T) {
	api := &fakeAPI{body: `{"data":{"id":"mf-1","name":"ACT Go","module":"Sales","return_type":"Void"}}`}
	client := newTestClient(t, api, "sales-app", "")

	mf, err := client.GetMicroflow("Sales", "ACT Go")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/apps/sales-app/modules/Sales/microflows/ACT Go", api.path)
	assert.Empty(t, api.query)
	assert.Equal(t, "Void", mf.ReturnType)
}

func TestClient_CreateEntity(t *testing.T) {
	api := &fakeAPI{
		status: http.StatusCreated,
		body:   `{"data":{"id":"e-1","name":"Shipment","qualified_name":"Sales.Shipment","module":"Sales","persistable":true,"attributes":[]}}`,
	}
	client := newTestClient(t, api, "sales-app", "")

	entity, err := client.CreateEntity("Sales", CreateEntityRequest{
		Name:       "Shipment",
		Attributes: []Attribute{{Name: "Code", Type: "String", Length: 20}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, api.method)
	assert.Equal(t, "/api/v1/apps/sales-app/modules/Sales/entities", api.path)
	assert.Equal(t, "Shipment", api.request["name"])
	assert.NotContains(t, api.request, "persistable")
	assert.Equal(t, "Sales.Shipment", entity.QualifiedName)
}

func TestClient_APIError(t *testing.T) {
	api := &fakeAPI{
		status: http.StatusNotFound,
		body:   `{"error":{"code":"NOT_FOUND","message":"module not found: Nope"}}`,
	}
	client := newTestClient(t, api, "sales-app", "")

	_, err := client.ListEntities("Nope")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "NOT_FOUND: module not found: Nope", err.Error())
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	api := &fakeAPI{status: http.StatusBadGateway, body: "bad gateway"}
	client := newTestClient(t, api, "sales-app", "")

	_, err := client.ListModules()
	assert.EqualError(t, err, "API error: HTTP 502")
}

func TestClient_AppRequired(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "", "")

	_, err := client.ListModules()
	assert.ErrorIs(t, err, ErrAppRequired)

	_, err = client.ListChanges(10)
	assert.ErrorIs(t, err, ErrAppRequired)
}

func TestClient_ListSessions(t *testing.T) {
	api := &fakeAPI{body: `{"data":[{"id":"s-1","app_id":"sales-app","status":"EXPIRED"}],"total":1}`}
	client := newTestClient(t, api, "", "")

	sessions, err := client.ListSessions(ListSessionsOpts{App: "sales-app", Status: "EXPIRED", Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/sessions", api.path)
	assert.Equal(t, map[string]string{"app": "sales-app", "status": "EXPIRED", "limit": "5"}, api.query)
	require.Len(t, sessions, 1)
	assert.Equal(t, "EXPIRED", sessions[0].Status)
}

func TestParseAttribute(t *testing.T) {
	tests := []struct {
		raw     string
		want    Attribute
		wantErr bool
	}{
		{raw: "Code:String", want: Attribute{Name: "Code", Type: "String"}},
		{raw: "Code:String:20", want: Attribute{Name: "Code", Type: "String", Length: 20}},
		{raw: "Code", wantErr: true},
		{raw: ":String", wantErr: true},
		{raw: "Code:String:abc", wantErr: true},
		{raw: "Code:String:-1", wantErr: true},
		{raw: "a:b:c:d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseAttribute(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntityCreateCmd(t *testing.T) {
	api := &fakeAPI{
		status: http.StatusCreated,
		body:   `{"data":{"id":"e-1","name":"Shipment","qualified_name":"Sales.Shipment","module":"Sales","persistable":false,"attributes":[{"name":"Code","type":"String","length":20}]}}`,
	}
	client := newTestClient(t, api, "sales-app", "")
	var stdout, stderr bytes.Buffer
	out := NewOutputTo(false, &stdout, &stderr)

	cmd := NewEntityCmd(func() *Client { return client }, func() *Output { return out })
	err := run(t, cmd, "create", "Sales", "--name", "Shipment", "--attr", "Code:String:20", "--non-persistable")
	require.NoError(t, err)

	assert.Equal(t, false, api.request["persistable"])
	attrs, ok := api.request["attributes"].([]any)
	require.True(t, ok)
	assert.Len(t, attrs, 1)

	assert.Contains(t, stderr.String(), "Entity created: Sales.Shipment")
	assert.Contains(t, stdout.String(), "Shipment")
	assert.Contains(t, stdout.String(), "PERSISTABLE")
}

func TestEntityCreateCmd_BadAttribute(t *testing.T) {
	api := &fakeAPI{}
	client := newTestClient(t, api, "sales-app", "")
	out := NewOutputTo(false, io.Discard, io.Discard)

	cmd := NewEntityCmd(func() *Client { return client }, func() *Output { return out })
	err := run(t, cmd, "create", "Sales", "--name", "Shipment", "--attr", "Code")
	assert.ErrorContains(t, err, "invalid --attr")
	assert.Empty(t, api.method, "request must not be sent")
}

func TestMicroflowShowCmd_JSON(t *testing.T) {
	api := &fakeAPI{body: `{"data":{"id":"mf-1","name":"ACT_Process","qualified_name":"Sales.ACT_Process","module":"Sales","return_type":"Boolean","parameters":[{"name":"Order","type":"Sales.Order"}],"activities":[]}}`}
	client := newTestClient(t, api, "sales-app", "")
	var stdout bytes.Buffer
	out := NewOutputTo(true, &stdout, io.Discard)

	cmd := NewMicroflowCmd(func() *Client { return client }, func() *Output { return out })
	err := run(t, cmd, "show", "Sales", "ACT_Process")
	require.NoError(t, err)

	var got MicroflowDetailsResponse
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "Boolean", got.ReturnType)
	assert.Equal(t, []Parameter{{Name: "Order", Type: "Sales.Order"}}, got.Parameters)
}

func TestMicroflowShowCmd_Fields(t *testing.T) {
	api := &fakeAPI{body: `{"data":{"id":"mf-1","name":"ACT_Process","module":"Sales","return_type":"Void","activities":[{"type":"Retrieve","caption":"Get order"},{"type":"Commit"}]}}`}
	client := newTestClient(t, api, "sales-app", "")
	var stdout bytes.Buffer
	out := NewOutputTo(false, &stdout, io.Discard)

	cmd := NewMicroflowCmd(func() *Client { return client }, func() *Output { return out })
	err := run(t, cmd, "show", "Sales", "ACT_Process")
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Retrieve (Get order), Commit")
	assert.NotContains(t, stdout.String(), "Documentation")
}

func TestMicroflowCreateCmd_Params(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated, body: `{"data":{"id":"mf-9","name":"ACT_New","qualified_name":"Sales.ACT_New","module":"Sales","return_type":"Void"}}`}
	client := newTestClient(t, api, "sales-app", "")
	out := NewOutputTo(false, io.Discard, io.Discard)

	cmd := NewMicroflowCmd(func() *Client { return client }, func() *Output { return out })
	err := run(t, cmd, "create", "Sales", "--name", "ACT_New", "--folder", "Orders/Admin", "--param", "Order:Sales.Order")
	require.NoError(t, err)

	assert.Equal(t, "Orders/Admin", api.request["folder"])
	params, ok := api.request["parameters"].([]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Order", "type": "Sales.Order"}, params[0])

	err = run(t, NewMicroflowCmd(func() *Client { return client }, func() *Output { return out }),
		"create", "Sales", "--name", "ACT_New", "--param", "Order")
	assert.ErrorContains(t, err, "invalid --param")
}

func TestSessionListCmd_UsesAppFlag(t *testing.T) {
	api := &fakeAPI{body: `{"data":[],"total":0}`}
	client := newTestClient(t, api, "sales-app", "")
	out := NewOutputTo(false, io.Discard, io.Discard)

	cmd := NewSessionCmd(func() *Client { return client }, func() *Output { return out })
	err := run(t, cmd, "list", "--status", "OPEN")
	require.NoError(t, err)

	assert.Equal(t, "sales-app", api.query["app"])
	assert.Equal(t, "OPEN", api.query["status"])
}

func TestChangeListCmd(t *testing.T) {
	api := &fakeAPI{body: `{"data":[{"id":"c-1","op":"create","kind":"entity","qualified_name":"Sales.Shipment","branch":"main","revision":"r7","committed_at":"2026-03-01T12:00:00Z"}],"total":1}`}
	client := newTestClient(t, api, "sales-app", "")
	var stdout bytes.Buffer
	out := NewOutputTo(false, &stdout, io.Discard)

	cmd := NewChangeCmd(func() *Client { return client }, func() *Output { return out })
	err := run(t, cmd, "list", "--limit", "10")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/apps/sales-app/changes", api.path)
	assert.Equal(t, "10", api.query["limit"])
	assert.Contains(t, stdout.String(), "Sales.Shipment")
}
