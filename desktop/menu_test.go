package desktop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enabled(items []MenuItem) map[Action]bool {
	m := make(map[Action]bool, len(items))
	for _, it := range items {
		m[it.Action] = it.Enabled
	}
	return m
}

func TestMenuFor(t *testing.T) {
	root := nestedTree()
	var clip Clipboard

	desk := enabled(MenuFor(nil, clip))
	assert.Contains(t, desk, ActionPersonalize)
	assert.False(t, desk[ActionPaste])
	assert.Equal(t, desk, enabled(MenuFor(root, clip)))

	clip.Stage(ClipCopy, []*Entity{Find(root, "d")})
	assert.True(t, enabled(MenuFor(nil, clip))[ActionPaste])

	file := enabled(MenuFor(Find(root, "d"), clip))
	assert.False(t, file[ActionPaste], "cannot paste into a file")
	assert.True(t, file[ActionRename])
	assert.True(t, file[ActionDelete])
	assert.True(t, enabled(MenuFor(Find(root, "a"), clip))[ActionPaste])
}

func TestResolveOpen(t *testing.T) {
	tests := []struct {
		ent  Entity
		want OpenAction
		app  string
	}{
		{Entity{ID: "f", Kind: KindFolder}, OpenExplorer, ""},
		{Entity{ID: "t", Name: "Notes.TXT", Kind: KindFile}, OpenEditor, ""},
		{Entity{ID: "p", Name: "report.pdf", Kind: KindFile}, OpenProperties, ""},
		{Entity{ID: "i", Name: "cat.png", Kind: KindImage}, OpenProperties, ""},
		{Entity{ID: "excelApp", Name: "Excel", Kind: KindApp}, OpenApp, "Excel"},
		{Entity{ID: "otherApp", Name: "Other", Kind: KindApp}, OpenProperties, ""},
	}
	for _, tc := range tests {
		got := ResolveOpen(&tc.ent)
		assert.Equal(t, tc.want, got.Action, tc.ent.ID)
		assert.Equal(t, tc.app, got.App, tc.ent.ID)
		assert.Equal(t, tc.ent.ID, got.ID)
	}
}

func TestInvoke(t *testing.T) {
	s := newTestSession(t, nil)

	out, err := s.Invoke(ActionNewFolder, "", InvokeArgs{})
	require.NoError(t, err)
	require.Len(t, out.IDs, 1)
	folder := s.Find(out.IDs[0])
	require.NotNil(t, folder)
	assert.Equal(t, "NewFolder-1709294400000", folder.Name)

	out, err = s.Invoke(ActionNewFile, out.IDs[0], InvokeArgs{Name: "todo.txt"})
	require.NoError(t, err)
	fileID := out.IDs[0]

	out, err = s.Invoke(ActionOpen, fileID, InvokeArgs{})
	require.NoError(t, err)
	require.NotNil(t, out.Open)
	assert.Equal(t, OpenEditor, out.Open.Action)

	_, err = s.Invoke(ActionRename, fileID, InvokeArgs{Name: "done.txt"})
	require.NoError(t, err)
	assert.Equal(t, "done.txt", s.Find(fileID).Name)

	_, err = s.Invoke(ActionCopy, fileID, InvokeArgs{})
	require.NoError(t, err)
	out, err = s.Invoke(ActionPaste, "", InvokeArgs{})
	require.NoError(t, err)
	assert.Equal(t, "done.txt (copy)", s.Find(out.IDs[0]).Name)

	out, err = s.Invoke(ActionPersonalize, "", InvokeArgs{})
	require.NoError(t, err)
	assert.True(t, out.Personalize)

	_, err = s.Invoke(ActionDelete, fileID, InvokeArgs{})
	require.NoError(t, err)
	assert.Nil(t, s.Find(fileID))

	_, err = s.Invoke(ActionOpen, "missing", InvokeArgs{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Invoke("dance", ThisPCID, InvokeArgs{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHandleKey(t *testing.T) {
	s := newTestSession(t, nil)
	id, err := s.Create(ThisPCID, Entity{Name: "a.txt", Kind: KindFile})
	require.NoError(t, err)

	s.Select(id)
	out, err := s.HandleKey("Ctrl+X")
	require.NoError(t, err)
	assert.Equal(t, ActionCut, out.Action)

	out, err = s.HandleKey("ctrl+v")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, out.IDs)
	p, _ := FindParent(mustSnapshot(s), id)
	assert.Equal(t, RootID, p.ID)
	assert.Empty(t, s.Selection())

	s.Select(id)
	_, err = s.HandleKey("delete")
	require.NoError(t, err)
	assert.Nil(t, s.Find(id))

	_, err = s.HandleKey("delete")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.HandleKey("f5")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
