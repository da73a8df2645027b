package meta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type document struct {
	Name    string                 `json:"name"`
	Retries int                    `json:"retries"`
	Config  map[string]interface{} `json:"config"`
}

func TestService_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.yaml"), []byte("name: ${env.META_TEST_NAME}\nretries: 2\nconfig:\n  url: http://x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.json"), []byte(`{"name":"json","retries":1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	t.Setenv("META_TEST_NAME", "expanded")

	srv := New(afs.New(), dir)
	var doc document
	require.NoError(t, srv.Load(context.Background(), "doc.yaml", &doc))
	assert.Equal(t, document{Name: "expanded", Retries: 2, Config: map[string]interface{}{"url": "http://x"}}, doc)

	var other document
	require.NoError(t, srv.Load(context.Background(), "doc.json", &other))
	assert.Equal(t, "json", other.Name)

	urls, err := srv.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, urls, 2)

	err = srv.Load(context.Background(), "missing.yaml", &doc)
	assert.Error(t, err)
}
