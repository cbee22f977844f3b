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

package blobstore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Store is the content-addressed blob store of §4.1: it places
// blob bytes under root at the path derived from an asset's id, and
// serves thumbnail rendering read paths with that same layout.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory is created if
// absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: dir}, nil
}

// BlobPath returns the absolute path at which id's blob is, or would
// be, stored. It is pure and performs no I/O.
func (s *Store) BlobPath(id AssetId) (string, error) {
	rel, err := RelPath(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

// Exists reports whether id's blob is present on disk.
func (s *Store) Exists(id AssetId) (bool, error) {
	p, err := s.BlobPath(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// StoreBlob moves (or, across devices, copies) the staged file at
// stagedPath into the store under id's derived path. It is idempotent:
// if the destination already exists, it is left untouched (§4.3
// step 2, "moved into the blob store ... only if absent there").
func (s *Store) StoreBlob(stagedPath string, id AssetId) (err error) {
	dst, err := s.BlobPath(id)
	if err != nil {
		return err
	}
	if exists, err := s.Exists(id); err != nil {
		return err
	} else if exists {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if err := os.Rename(stagedPath, dst); err == nil {
		return nil
	}
	// Cross-device rename failed; copy, fsync, then remove the
	// staged file, cleaning up a partial copy on any failure.
	defer func() {
		if err != nil {
			os.Remove(dst)
		}
	}()
	if err = copyFileSync(stagedPath, dst); err != nil {
		return err
	}
	return os.Remove(stagedPath)
}

func copyFileSync(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		cerr := out.Close()
		if err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// ReplaceBlob atomically swaps the blob at oldID for stagedPath's
// content, placed under newID, then removes oldID's blob. Used by
// Replace (§4.4's sibling use case) to keep an asset's record
// pointed at new bytes without a window where neither path resolves.
func (s *Store) ReplaceBlob(stagedPath string, newID, oldID AssetId) error {
	if err := s.StoreBlob(stagedPath, newID); err != nil {
		return err
	}
	if oldID == newID {
		return nil
	}
	return s.DeleteBlob(oldID)
}

// RenameBlob moves an existing blob from oldID's path to newID's path,
// used by the migrator when re-minting legacy ids (§4.11).
func (s *Store) RenameBlob(oldID, newID AssetId) error {
	oldPath, err := s.BlobPath(oldID)
	if err != nil {
		return err
	}
	newPath, err := s.BlobPath(newID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return err
	}
	if err := os.Rename(oldPath, newPath); err == nil {
		s.pruneEmptyParents(filepath.Dir(oldPath))
		return nil
	}
	if err := copyFileSync(oldPath, newPath); err != nil {
		return err
	}
	if err := os.Remove(oldPath); err != nil {
		return err
	}
	s.pruneEmptyParents(filepath.Dir(oldPath))
	return nil
}

// DeleteBlob removes id's blob and prunes now-empty parent directories
// up to (but not including) the store root.
func (s *Store) DeleteBlob(id AssetId) error {
	p, err := s.BlobPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.pruneEmptyParents(filepath.Dir(p))
	return nil
}

// pruneEmptyParents removes dir, and its parents, while they are empty
// and still lie under the store root. Errors are ignored: pruning is a
// best-effort tidy-up, never load-bearing for correctness.
func (s *Store) pruneEmptyParents(dir string) {
	root := filepath.Clean(s.root)
	for {
		dir = filepath.Clean(dir)
		if dir == root || len(dir) <= len(root) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
