/*
Copyright 2014 The Perkeep Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tanuki/internal/applog"
	"tanuki/internal/blobstore"
	"tanuki/internal/kvstore"
	"tanuki/internal/repository"
)

func TestRunNoopOnFreshStore(t *testing.T) {
	kv := kvstore.NewMemory()
	blobs, err := blobstore.New(t.TempDir())
	require.NoError(t, err)
	repo := repository.New(kv)
	m := New(kv, blobs, repo, applog.Discard{})

	require.NoError(t, m.Run())
	v, err := m.PersistedVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, v)
}

func TestRunRejectsDowngrade(t *testing.T) {
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Set(versionKey, "99"))
	blobs, err := blobstore.New(t.TempDir())
	require.NoError(t, err)
	repo := repository.New(kv)
	m := New(kv, blobs, repo, applog.Discard{})

	err = m.Run()
	assert.Error(t, err, "a persisted version newer than CurrentVersion should be rejected")
}

func TestMigrateLegacyRecord(t *testing.T) {
	dir := t.TempDir()
	kv := kvstore.NewMemory()
	blobs, err := blobstore.New(dir)
	require.NoError(t, err)
	repo := repository.New(kv)

	legacyID := blobstore.AssetId("bGVnYWN5L3BhdGgvcGhvdG8uanBn") // "legacy/path/photo.jpg"
	p, err := blobs.BlobPath(legacyID)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("fake jpeg bytes"), 0o644))

	raw := `{
		"id": "bGVnYWN5L3BhdGgvcGhvdG8uanBn",
		"file_size": 15,
		"file_name": "photo.jpg",
		"sha256": "deadbeef",
		"media_type": "image/jpeg",
		"tags": ["Cat"],
		"import_date": [2015, 6, 1, 10, 30]
	}`
	require.NoError(t, kv.Set(legacyPrefix+"|bGVnYWN5L3BhdGgvcGhvdG8uanBn", raw))

	m := New(kv, blobs, repo, applog.Discard{})
	require.NoError(t, m.Run())

	assets, err := repo.FetchAssets()
	require.NoError(t, err)
	require.Len(t, assets, 1)

	a := assets[0]
	assert.Equal(t, "sha256-deadbeef", a.Checksum)
	assert.Equal(t, "photo.jpg", a.Filename)
	assert.Equal(t, []string{"cat"}, a.Tags)

	ok, err := blobs.Exists(blobstore.AssetId(a.ID))
	require.NoError(t, err)
	assert.True(t, ok, "blob missing at migrated id %s", a.ID)

	ok, _ = blobs.Exists(legacyID)
	assert.False(t, ok, "legacy blob should be removed after migration")
}
