package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingResolver struct{}

func (failingResolver) Resolve(Intent) (string, error) {
	return "", errors.New("no storage")
}

func TestStorage_Dir(t *testing.T) {
	s := &Storage{Fs: afero.NewMemMapFs(), Resolver: DirResolver{Root: "/data/app"}}

	dir, err := s.Dir(Downloads)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/app", "downloads"), dir)

	exists, err := afero.DirExists(s.Fs, dir)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStorage_DirResolverError(t *testing.T) {
	s := &Storage{Fs: afero.NewMemMapFs(), Resolver: failingResolver{}}

	_, err := s.Dir(Downloads)
	assert.Error(t, err)
}

func TestDirResolver_EmptyRoot(t *testing.T) {
	_, err := DirResolver{}.Resolve(Downloads)
	assert.Error(t, err)
}

func TestDefaultResolver(t *testing.T) {
	_, err := DefaultResolver("")
	assert.Error(t, err)

	r, err := DefaultResolver("com.example.app")
	require.NoError(t, err)

	dir, err := r.Resolve(Downloads)
	require.NoError(t, err)
	assert.Equal(t, "downloads", filepath.Base(dir))
	assert.Equal(t, "com.example.app", filepath.Base(filepath.Dir(dir)))
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, CheckDiskSpace(dir, 0))
	assert.NoError(t, CheckDiskSpace(dir, 1))
}

func TestStaticResolver(t *testing.T) {
	dir, err := StaticResolver("/var/lib/app/dl").Resolve(Downloads)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/app/dl", dir)

	_, err = StaticResolver("").Resolve(Downloads)
	assert.Error(t, err)
}
