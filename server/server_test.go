package server

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webdesk/desktop"
	"webdesk/store"
)

type testServer struct {
	*Server
	dir string
}

func newTestServer(t *testing.T, write bool) *testServer {
	t.Helper()
	dir := t.TempDir()
	st, err := store.OpenBolt(filepath.Join(dir, "desk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	session := desktop.NewSession(nil, desktop.Options{})
	srv, err := New(session, st, Config{
		WriteMode: write,
		UploadDir: filepath.Join(dir, "uploads"),
		AuditLog:  filepath.Join(dir, "modifications.jsonl"),
		Version:   "test",
	}, nil)
	require.NoError(t, err)
	return &testServer{Server: srv, dir: dir}
}

func (ts *testServer) do(t *testing.T, method, target string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestTree(t *testing.T) {
	ts := newTestServer(t, false)
	code, body := ts.do(t, http.MethodGet, "/tree", nil)
	assert.Equal(t, http.StatusOK, code)
	tree := body["tree"].(map[string]interface{})
	assert.Equal(t, desktop.RootID, tree["id"])
	assert.Equal(t, "folder", tree["type"])
}

func TestReadOnlyRejectsMutations(t *testing.T) {
	ts := newTestServer(t, false)
	code, body := ts.do(t, http.MethodPost, "/entities", createRequest{Entity: desktop.Entity{Kind: desktop.KindFile}})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "error", body["status"])

	code, _ = ts.do(t, http.MethodPost, "/manage", manageRequest{Action: "delete", IDs: []string{desktop.PicturesID}})
	assert.Equal(t, http.StatusForbidden, code)
	assert.NotNil(t, ts.session.Find(desktop.PicturesID))

	// Selection is view state and stays available.
	code, body = ts.do(t, http.MethodPost, "/select", map[string]interface{}{"ids": []string{desktop.PicturesID}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{desktop.PicturesID}, body["selection"])
}

func TestEntityLifecycle(t *testing.T) {
	ts := newTestServer(t, true)

	code, body := ts.do(t, http.MethodPost, "/entities", createRequest{
		ParentID: desktop.PicturesID,
		Entity:   desktop.Entity{ID: "photo-1", Name: "Photo-1", Kind: desktop.KindImage, Content: "data:image/png;base64,iVBORw0K"},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "photo-1", body["id"])

	code, body = ts.do(t, http.MethodGet, "/entities/photo-1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, desktop.PicturesID, body["parentId"])

	_, body = ts.do(t, http.MethodPost, "/manage", manageRequest{Action: "copy", IDs: []string{"photo-1"}, Dest: desktop.PicturesID})
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, ts.session.Find(desktop.PicturesID).Children, 2)

	_, body = ts.do(t, http.MethodPost, "/rename", map[string]string{"id": "photo-1", "newName": "cat.png"})
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "cat.png", ts.session.Find("photo-1").Name)

	_, body = ts.do(t, http.MethodPost, "/move", map[string]interface{}{"id": "photo-1", "parentId": desktop.RootID, "drop": map[string]int{"x": 20, "y": 700}})
	assert.Equal(t, "ok", body["status"])
	require.NotNil(t, ts.session.Find("photo-1").Position)

	_, body = ts.do(t, http.MethodPost, "/manage", manageRequest{Action: "delete", IDs: []string{desktop.PicturesID}})
	assert.Equal(t, "ok", body["status"])
	assert.Nil(t, ts.session.Find(desktop.PicturesID))
	assert.NotNil(t, ts.session.Find("photo-1"))
}

func TestNoopsAreNotErrors(t *testing.T) {
	ts := newTestServer(t, true)
	tests := []struct {
		method, target string
		body           interface{}
	}{
		{http.MethodPost, "/rename", map[string]string{"id": desktop.RootID, "newName": "Home"}},
		{http.MethodPost, "/rename", map[string]string{"id": "missing", "newName": "x"}},
		{http.MethodPost, "/move", map[string]string{"id": desktop.PicturesID, "parentId": desktop.PicturesID}},
		{http.MethodPost, "/manage", manageRequest{Action: "paste", Dest: desktop.RootID}},
		{http.MethodPost, "/manage", manageRequest{Action: "delete", IDs: []string{desktop.RootID}}},
		{http.MethodPut, "/entities/thispc/content", map[string]string{"content": "x"}},
		{http.MethodPost, "/sort", map[string]string{"folderId": "wordApp"}},
	}
	for _, tc := range tests {
		code, body := ts.do(t, tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusOK, code, tc.target)
		assert.Equal(t, "noop", body["status"], tc.target)
	}

	code, _ := ts.do(t, http.MethodPost, "/manage", manageRequest{Action: "explode"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMenuAndKeys(t *testing.T) {
	ts := newTestServer(t, true)

	_, body := ts.do(t, http.MethodGet, "/menu", nil)
	items := body["items"].([]interface{})
	assert.NotEmpty(t, items)

	code, _ := ts.do(t, http.MethodGet, "/menu?target=missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	_, body = ts.do(t, http.MethodPost, "/menu/newFolder", map[string]string{"name": "Projects"})
	require.Equal(t, "ok", body["status"])
	outcome := body["outcome"].(map[string]interface{})
	id := outcome["ids"].([]interface{})[0].(string)
	assert.Equal(t, "Projects", ts.session.Find(id).Name)

	_, body = ts.do(t, http.MethodPost, "/menu/open", map[string]string{"target": id})
	outcome = body["outcome"].(map[string]interface{})
	assert.Equal(t, "explorer", outcome["open"].(map[string]interface{})["action"])

	ts.do(t, http.MethodPost, "/select", map[string]interface{}{"ids": []string{id}})
	_, body = ts.do(t, http.MethodPost, "/keys", map[string]string{"key": "ctrl+c"})
	assert.Equal(t, "ok", body["status"])
	_, body = ts.do(t, http.MethodGet, "/clipboard", nil)
	assert.Equal(t, "copy", body["mode"])

	_, body = ts.do(t, http.MethodPost, "/keys", map[string]string{"key": "ctrl+v"})
	assert.Equal(t, "ok", body["status"])

	_, body = ts.do(t, http.MethodGet, "/entities/wordApp/open", nil)
	assert.Equal(t, "Word", body["open"].(map[string]interface{})["app"])
}

func TestContentAndZip(t *testing.T) {
	ts := newTestServer(t, true)
	_, err := ts.session.Create(desktop.ThisPCID, desktop.Entity{ID: "note", Name: "note.txt", Kind: desktop.KindFile, Content: "hello"})
	require.NoError(t, err)
	_, err = ts.session.Create(desktop.ThisPCID, desktop.Entity{ID: "sub", Name: "sub", Kind: desktop.KindFolder, Children: []*desktop.Entity{
		{Name: "dot.png", Kind: desktop.KindImage, Content: "data:image/png;base64,AQID"},
	}})
	require.NoError(t, err)

	resp, err := ts.App().Test(httptest.NewRequest(http.MethodGet, "/content/note", nil), -1)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello", string(data))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))

	resp, err = ts.App().Test(httptest.NewRequest(http.MethodGet, "/zip/thispc", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ = io.ReadAll(resp.Body)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := map[string]*zip.File{}
	for _, f := range zr.File {
		files[f.Name] = f
	}
	require.Contains(t, files, "note.txt")
	require.Contains(t, files, "sub/dot.png")
	rc, err := files["sub/dot.png"].Open()
	require.NoError(t, err)
	png, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, []byte{1, 2, 3}, png)

	code, _ := ts.do(t, http.MethodGet, "/zip/note", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t, true)
	_, body := ts.do(t, http.MethodGet, "/settings", nil)
	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, "dark", settings["theme"])

	req := httptest.NewRequest(http.MethodPut, "/settings/theme", strings.NewReader(`"light"`))
	resp, err := ts.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = ts.do(t, http.MethodGet, "/settings", nil)
	assert.Equal(t, "light", body["settings"].(map[string]interface{})["theme"])

	req = httptest.NewRequest(http.MethodPut, "/settings/theme", strings.NewReader(`{broken`))
	resp, err = ts.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditLog(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do(t, http.MethodPost, "/rename", map[string]string{"id": desktop.ThisPCID, "newName": "Computer"})
	ts.do(t, http.MethodPost, "/rename", map[string]string{"id": "missing", "newName": "x"})

	f, err := os.Open(filepath.Join(ts.dir, "modifications.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var entries []ModificationLogEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e ModificationLogEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "ok", entries[0].Result)
	assert.Equal(t, "noop", entries[1].Result)
	assert.Equal(t, []string{"missing"}, entries[1].IDs)
}

func TestIngestUpload(t *testing.T) {
	ts := newTestServer(t, true)
	tmp := filepath.Join(ts.dir, "upload-bin")
	require.NoError(t, os.WriteFile(tmp, []byte{0x89, 'P', 'N', 'G'}, 0644))

	id, err := ts.ingestUpload(tmp, "shot.png", desktop.PicturesID)
	require.NoError(t, err)
	ent := ts.session.Find(id)
	require.NotNil(t, ent)
	assert.Equal(t, desktop.KindImage, ent.Kind)
	assert.True(t, strings.HasPrefix(ent.Content, "data:image/png;base64,"))

	_, err = ts.ingestUpload(tmp, "shot.png", "missing")
	assert.ErrorIs(t, err, desktop.ErrNotFound)
}

func TestListing(t *testing.T) {
	ts := newTestServer(t, true)
	for _, name := range []string{"b.txt", "A.txt", "c.txt"} {
		_, err := ts.session.Create(desktop.ThisPCID, desktop.Entity{Name: name, Kind: desktop.KindFile})
		require.NoError(t, err)
	}
	_, err := ts.session.Create(desktop.ThisPCID, desktop.Entity{Name: "zeta", Kind: desktop.KindFolder})
	require.NoError(t, err)

	items, ok := ts.listing(desktop.ThisPCID, "name", "")
	require.True(t, ok)
	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"zeta", "A.txt", "b.txt", "c.txt"}, names)

	items, _ = ts.listing(desktop.ThisPCID, "name", "desc")
	assert.Equal(t, "c.txt", items[1].Name)

	_, ok = ts.listing("missing", "", "")
	assert.False(t, ok)
}

func TestManageDeleteDoesNotPaste(t *testing.T) {
	ts := newTestServer(t, true)
	_, body := ts.do(t, http.MethodPost, "/manage", manageRequest{Action: "copy", IDs: []string{desktop.PicturesID}})
	require.Equal(t, "ok", body["status"])
	before := desktop.Count(ts.session.Find(desktop.RootID))

	code, _ := ts.do(t, http.MethodPost, "/manage", manageRequest{Action: "delete", IDs: []string{desktop.ThisPCID}, Dest: desktop.RootID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotNil(t, ts.session.Find(desktop.ThisPCID))
	assert.Equal(t, before, desktop.Count(ts.session.Find(desktop.RootID)))

	_, body = ts.do(t, http.MethodPost, "/manage", manageRequest{Action: "delete", IDs: []string{desktop.ThisPCID}})
	assert.Equal(t, "ok", body["status"])
	assert.Nil(t, ts.session.Find(desktop.ThisPCID))
	assert.Equal(t, before-1, desktop.Count(ts.session.Find(desktop.RootID)))
}
