package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Code  string   `json:"code"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestSaveLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "out.json")
	in := []entry{
		{Code: "FREN 100", Title: "Français <débutant> & plus", Tags: []string{"a"}},
		{Code: "CSCI 100", Title: "Computing", Tags: []string{}},
	}

	require.NoError(t, SaveJSON(path, in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "Français <débutant> & plus")
	require.Contains(t, string(raw), "\n  {\n    \"code\": \"FREN 100\",")

	var out []entry
	require.NoError(t, LoadJSON(path, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestLoadJSONErrors(t *testing.T) {
	dir := t.TempDir()
	var out []entry
	require.ErrorIs(t, LoadJSON(filepath.Join(dir, "missing.json"), &out), os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	require.Error(t, LoadJSON(bad, &out))
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camosun_courses.json")

	got, err := Backup(path)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, os.WriteFile(path, []byte(`[{"code":"old"}]`), 0o644))
	got, err = Backup(path)
	require.NoError(t, err)
	require.Equal(t, path+".bak", got)

	require.NoError(t, SaveJSON(path, []entry{{Code: "new"}}))
	old, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, `[{"code":"old"}]`, string(old))
}
