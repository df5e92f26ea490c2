package nbclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocoforge/nocobase-mcp/internal/logger"
)

// fakeNocoBase is a minimal in-memory stand-in for the parts of the
// NocoBase API the client exercises: signIn plus the flowModels CRUD.
type fakeNocoBase struct {
	t *testing.T

	mu          sync.Mutex
	models      map[string]map[string]any
	writeCalls  int
	loginCalls  int
	failWrite   int    // status code to return from flowModels:update, 0 = succeed
	rejectFirst bool   // return 401 once before accepting a request
	lastOptions map[string]any
}

func newFakeNocoBase(t *testing.T) (*fakeNocoBase, *httptest.Server) {
	t.Helper()
	f := &fakeNocoBase{t: t, models: map[string]map[string]any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth:signIn", f.handleSignIn)
	mux.HandleFunc("/api/flowModels:get", f.handleGet)
	mux.HandleFunc("/api/flowModels:update", f.handleUpdate)
	mux.HandleFunc("/api/flowModels:list", f.handleList)
	mux.HandleFunc("/api/flowModels:destroy", f.handleDestroy)
	mux.HandleFunc("/api/flowModels:save", f.handleSave)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeNocoBase) handleSignIn(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.loginCalls++
	f.mu.Unlock()
	writeJSON(w, map[string]any{"data": map[string]any{"token": "test-token"}})
}

func (f *fakeNocoBase) checkAuth(w http.ResponseWriter, r *http.Request) bool {
	f.mu.Lock()
	reject := f.rejectFirst
	f.rejectFirst = false
	f.mu.Unlock()

	if reject || r.Header.Get("Authorization") != "Bearer test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (f *fakeNocoBase) handleGet(w http.ResponseWriter, r *http.Request) {
	if !f.checkAuth(w, r) {
		return
	}
	uid := r.URL.Query().Get("filterByTk")
	f.mu.Lock()
	model, ok := f.models[uid]
	f.mu.Unlock()
	if !ok {
		http.Error(w, `{"errors":[{"message":"not found"}]}`, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"data": model})
}

func (f *fakeNocoBase) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !f.checkAuth(w, r) {
		return
	}
	f.mu.Lock()
	f.writeCalls++
	fail := f.failWrite
	f.mu.Unlock()

	if fail != 0 {
		http.Error(w, `{"errors":[{"message":"rejected"}]}`, fail)
		return
	}

	var body struct {
		Options map[string]any `json:"options"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))

	uid := r.URL.Query().Get("filterByTk")
	f.mu.Lock()
	f.lastOptions = body.Options
	stored := map[string]any{"uid": uid}
	for k, v := range body.Options {
		stored[k] = v
	}
	f.models[uid] = stored
	f.mu.Unlock()

	writeJSON(w, map[string]any{"data": map[string]any{}})
}

func (f *fakeNocoBase) handleList(w http.ResponseWriter, r *http.Request) {
	if !f.checkAuth(w, r) {
		return
	}
	f.mu.Lock()
	list := make([]map[string]any, 0, len(f.models))
	for _, m := range f.models {
		list = append(list, m)
	}
	f.mu.Unlock()
	writeJSON(w, map[string]any{"data": list})
}

func (f *fakeNocoBase) handleDestroy(w http.ResponseWriter, r *http.Request) {
	if !f.checkAuth(w, r) {
		return
	}
	uid := r.URL.Query().Get("filterByTk")
	f.mu.Lock()
	delete(f.models, uid)
	f.mu.Unlock()
	writeJSON(w, map[string]any{"data": true})
}

func (f *fakeNocoBase) handleSave(w http.ResponseWriter, r *http.Request) {
	if !f.checkAuth(w, r) {
		return
	}
	var payload map[string]any
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
	uid, _ := payload["uid"].(string)
	f.mu.Lock()
	f.models[uid] = payload
	f.mu.Unlock()
	writeJSON(w, map[string]any{"data": payload})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Options{
		BaseURL:  srv.URL,
		Account:  "admin@nocobase.com",
		Password: "admin123",
		Timeout:  5 * time.Second,
	}, logger.Nop())
}

// --- Tests ---

func TestClient_LazyLoginAndRetry(t *testing.T) {
	fake, srv := newFakeNocoBase(t)
	fake.models["m1"] = map[string]any{"uid": "m1", "use": "TableBlockModel"}

	c := newTestClient(srv)

	// No Login call issued yet: the first 401 triggers sign-in and a
	// single retry.
	model, err := c.GetFlowModel(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "TableBlockModel", model["use"])
	assert.Equal(t, 1, fake.loginCalls)
}

func TestGetFlowModelRaw(t *testing.T) {
	fake, srv := newFakeNocoBase(t)
	fake.models["m1"] = map[string]any{"uid": "m1", "use": "BlockGridModel"}

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	raw, err := c.GetFlowModelRaw(context.Background(), "m1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"use":"BlockGridModel"`)

	_, err = c.GetFlowModelRaw(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateFlowModel_MergePreservesUntouchedFields(t *testing.T) {
	fake, srv := newFakeNocoBase(t)
	fake.models["m1"] = map[string]any{
		"uid":  "m1",
		"name": "ignored",
		"use":  "FormGridModel",
		"stepParams": map[string]any{
			"gridSettings": map[string]any{
				"grid": map[string]any{
					"rows":  map[string]any{"r1": []any{[]any{"a"}}},
					"sizes": map[string]any{"r1": []any{float64(24)}},
				},
			},
			"cardSettings": map[string]any{
				"titleDescription": map[string]any{"title": "Old"},
			},
		},
	}

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	patch := map[string]any{
		"stepParams": map[string]any{
			"cardSettings": map[string]any{
				"titleDescription": map[string]any{"title": "New"},
			},
		},
	}
	require.NoError(t, c.UpdateFlowModel(context.Background(), "m1", patch))

	opts := fake.lastOptions
	require.NotNil(t, opts)

	// Identity keys stripped before submission.
	assert.NotContains(t, opts, "uid")
	assert.NotContains(t, opts, "name")

	sp := opts["stepParams"].(map[string]any)
	// Patched branch applied.
	title := sp["cardSettings"].(map[string]any)["titleDescription"].(map[string]any)["title"]
	assert.Equal(t, "New", title)
	// Sibling branch absent from the patch survives intact.
	assert.Contains(t, sp, "gridSettings")
}

func TestUpdateFlowModel_SequenceReplacedWholesale(t *testing.T) {
	fake, srv := newFakeNocoBase(t)
	fake.models["m1"] = map[string]any{
		"uid":        "m1",
		"stepParams": map[string]any{"order": []any{"a", "b", "c"}},
	}

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	patch := map[string]any{
		"stepParams": map[string]any{"order": []any{"z"}},
	}
	require.NoError(t, c.UpdateFlowModel(context.Background(), "m1", patch))

	sp := fake.lastOptions["stepParams"].(map[string]any)
	assert.Equal(t, []any{"z"}, sp["order"])
}

func TestUpdateFlowModel_NotFound_NoWriteAttempted(t *testing.T) {
	fake, srv := newFakeNocoBase(t)

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	err := c.UpdateFlowModel(context.Background(), "missing-1", map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, fake.writeCalls)
}

func TestUpdateFlowModel_ConflictSurfaced(t *testing.T) {
	fake, srv := newFakeNocoBase(t)
	fake.models["m1"] = map[string]any{"uid": "m1", "v": float64(1)}
	fake.failWrite = http.StatusConflict

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	err := c.UpdateFlowModel(context.Background(), "m1", map[string]any{"v": 2})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateFlowModel_ValidationSurfacedVerbatim(t *testing.T) {
	fake, srv := newFakeNocoBase(t)
	fake.models["m1"] = map[string]any{"uid": "m1"}
	fake.failWrite = http.StatusBadRequest

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	err := c.UpdateFlowModel(context.Background(), "m1", map[string]any{"v": 2})
	assert.ErrorIs(t, err, ErrValidation)
	// The remote body is carried through untouched.
	assert.Contains(t, err.Error(), "rejected")
}

func TestDestroyTree_DeletesSubtree(t *testing.T) {
	fake, srv := newFakeNocoBase(t)
	fake.models["root"] = map[string]any{"uid": "root"}
	fake.models["c1"] = map[string]any{"uid": "c1", "parentId": "root"}
	fake.models["c2"] = map[string]any{"uid": "c2", "parentId": "c1"}
	fake.models["other"] = map[string]any{"uid": "other"}

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	n, err := c.DestroyTree(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, fake.models, "other")
	assert.NotContains(t, fake.models, "root")
	assert.NotContains(t, fake.models, "c2")
}

func TestCleanTab_KeepsTabNode(t *testing.T) {
	fake, srv := newFakeNocoBase(t)
	fake.models["tab"] = map[string]any{"uid": "tab"}
	fake.models["grid"] = map[string]any{"uid": "grid", "parentId": "tab"}
	fake.models["tbl"] = map[string]any{"uid": "tbl", "parentId": "grid"}

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	n, err := c.CleanTab(context.Background(), "tab")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, fake.models, "tab")
}

func TestSaveFlowModel_GeneratesUID(t *testing.T) {
	fake, srv := newFakeNocoBase(t)

	c := newTestClient(srv)
	require.NoError(t, c.Login(context.Background()))

	uid, err := c.SaveFlowModel(context.Background(), SaveFlowModelRequest{
		Use:      "TableBlockModel",
		ParentID: "grid1",
		SubKey:   "items",
		SubType:  "array",
	})
	require.NoError(t, err)
	assert.Len(t, uid, 11)
	assert.Contains(t, fake.models, uid)
}

func TestNewUID_Format(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		uid := NewUID()
		assert.Len(t, uid, 11)
		for _, r := range uid {
			assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'),
				"unexpected uid char %q", r)
		}
		seen[uid] = true
	}
	// Collisions across 100 draws would indicate a broken generator.
	assert.Greater(t, len(seen), 95)
}
