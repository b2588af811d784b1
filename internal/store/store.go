// Package store persists a virtual filesystem as an encrypted vault on
// disk. A store is a directory holding a single encrypted journal
// (Store.void) plus one file per content chunk, named by the zero-padded
// hex of the chunk id. All state lives in the journal; chunk files hold
// only independently-keyed AES-256-GCM ciphertext.
//
// Every mutating operation re-serializes, encrypts and writes the
// journal before returning. A store is single-user and single-process:
// opening the same folder twice is not supported.
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/acristoffers/void/internal/crypto"
	"github.com/acristoffers/void/internal/errs"
	"github.com/acristoffers/void/internal/vfs"
	"github.com/acristoffers/void/internal/vpath"
)

// JournalName is the file inside the store folder that holds the
// encrypted filesystem.
const JournalName = "Store.void"

// ChunkSize is the plaintext size of one content chunk (50 MiB).
const ChunkSize = 52428800

// Store is an open vault.
type Store struct {
	folder     vpath.Path
	key        [crypto.KeySize]byte
	iv         [crypto.NonceSize]byte
	salt       [crypto.NonceSize]byte
	fs         *vfs.Filesystem
	detectMime MimeFunc
	chunkSize  int
}

// storeFile is the journal record. The filesystem ciphertext is
// authenticated by its GCM tag; the keyed hash is carried for forward
// compatibility and not validated on open.
type storeFile struct {
	Fs     []byte                 `json:"fs"`
	FsHash [crypto.KeySize]byte   `json:"fs_hash"`
	IV     [crypto.NonceSize]byte `json:"iv"`
	Salt   [crypto.NonceSize]byte `json:"salt"`
}

// Create initializes a new store directory at path, protected by
// password. The path must not exist yet.
func Create(path, password string) (*Store, error) {
	folder, err := vpath.New(path)
	if err != nil {
		return nil, err
	}
	if folder.Exists() {
		return nil, fmt.Errorf("%s: %w", folder.Path, errs.ErrFileAlreadyExists)
	}
	if err := os.MkdirAll(folder.Path, 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", folder.Path, errs.ErrCannotCreateDirectory)
	}
	journal, err := folder.Join(JournalName)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(journal.Path, nil, 0o600); err != nil {
		return nil, fmt.Errorf("%s: %w", journal.Path, errs.ErrCannotCreateFile)
	}

	salt := crypto.UUID()
	iv := crypto.UUID()
	s := &Store{
		folder:     folder,
		key:        crypto.DeriveKey(password, salt, iv),
		iv:         iv,
		salt:       salt,
		fs:         vfs.New(),
		detectMime: detectMime,
		chunkSize:  ChunkSize,
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads an existing store. A wrong password surfaces as
// ErrCannotDecrypt from the journal's GCM tag validation.
func Open(path, password string) (*Store, error) {
	folder, err := vpath.New(path)
	if err != nil {
		return nil, err
	}
	if !folder.Exists() {
		return nil, fmt.Errorf("%s: %w", folder.Path, errs.ErrFolderDoesNotExist)
	}
	journal, err := folder.Join(JournalName)
	if err != nil {
		return nil, err
	}
	if !journal.Exists() {
		return nil, fmt.Errorf("%s: %w", journal.Path, errs.ErrFileDoesNotExist)
	}

	raw, err := os.ReadFile(journal.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", journal.Path, errs.ErrCannotReadFile)
	}
	var record storeFile
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("journal: %w", errs.ErrCannotDeserialize)
	}

	key := crypto.DeriveKey(password, record.Salt, record.IV)
	plain, err := crypto.Decrypt(record.Fs, key, record.IV)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	filesystem := vfs.New()
	if err := json.Unmarshal(plain, filesystem); err != nil {
		return nil, fmt.Errorf("journal: %w", errs.ErrCannotDeserialize)
	}

	s := &Store{
		folder:     folder,
		key:        key,
		iv:         record.IV,
		salt:       record.Salt,
		fs:         filesystem,
		detectMime: detectMime,
		chunkSize:  ChunkSize,
	}
	s.sweepOrphans()
	return s, nil
}

// save serializes, encrypts and writes the journal. The journal file
// must already exist; Create puts it in place.
func (s *Store) save() error {
	journal, err := s.folder.Join(JournalName)
	if err != nil {
		return err
	}
	if !journal.Exists() {
		return fmt.Errorf("%s: %w", journal.Path, errs.ErrFileDoesNotExist)
	}

	s.fs.Sort()
	payload, err := json.Marshal(s.fs)
	if err != nil {
		return fmt.Errorf("filesystem: %w", errs.ErrCannotSerialize)
	}
	ct, err := crypto.Encrypt(payload, s.key, s.iv)
	if err != nil {
		return err
	}
	record := storeFile{
		Fs:     ct,
		FsHash: crypto.Hash(ct, s.salt),
		IV:     s.iv,
		Salt:   s.salt,
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("journal: %w", errs.ErrCannotSerialize)
	}
	if err := os.WriteFile(journal.Path, raw, 0o600); err != nil {
		return fmt.Errorf("%s: %w", journal.Path, errs.ErrCannotWriteFile)
	}
	return nil
}

// sweepOrphans removes chunk files that no node references. Such files
// are left behind when a save fails mid-add or the process dies between
// a chunk write and the journal write. Best-effort.
func (s *Store) sweepOrphans() {
	entries, err := os.ReadDir(s.folder.Path)
	if err != nil {
		return
	}
	referenced := map[uint64]bool{}
	for _, id := range s.fs.ChunkIDs() {
		referenced[id] = true
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := parseChunkName(entry.Name())
		if !ok || referenced[id] {
			continue
		}
		if p, err := s.folder.Join(entry.Name()); err == nil {
			os.Remove(p.Path)
		}
	}
}

// Remove deletes the node at path, all nodes below it, and the on-disk
// files of every chunk that became unreachable.
func (s *Store) Remove(path string) error {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return err
	}
	chunks, err := s.fs.Rm(id)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		s.removeChunkFile(chunk.ID)
	}
	return s.save()
}

// Mv relocates the node at src under the parent directory of dst,
// creating that directory if needed.
func (s *Store) Mv(src, dst string) error {
	srcID, err := s.fs.NodeID(src)
	if err != nil {
		return err
	}
	dstPath, err := vpath.New(dst)
	if err != nil {
		return err
	}
	parentID, err := s.fs.Mkdirp(dstPath.Parent)
	if err != nil {
		return err
	}
	if err := s.fs.Mv(srcID, parentID); err != nil {
		return err
	}
	return s.save()
}

// List returns the entries at path. The special path "*" lists every
// node with full paths as names; a file path lists just that file; a
// directory lists its direct children.
func (s *Store) List(path string) ([]vfs.File, error) {
	if path == "*" {
		return s.fs.LsAll(), nil
	}
	id, err := s.fs.NodeID(path)
	if err != nil {
		return nil, err
	}
	file, err := s.fs.Get(id)
	if err != nil {
		return nil, err
	}
	if file.IsFile {
		return []vfs.File{file}, nil
	}
	return s.fs.Ls(id), nil
}

// MetadataSet sets a metadata key on the node at path.
func (s *Store) MetadataSet(path, key, value string) error {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return err
	}
	if err := s.fs.SetMetadata(id, key, value); err != nil {
		return err
	}
	return s.save()
}

// MetadataGet returns the value of a metadata key on the node at path.
func (s *Store) MetadataGet(path, key string) (string, error) {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return "", err
	}
	return s.fs.GetMetadata(id, key)
}

// MetadataList returns all metadata of the node at path.
func (s *Store) MetadataList(path string) (map[string]string, error) {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return nil, err
	}
	return s.fs.MetadataList(id)
}

// MetadataRemove removes a metadata key from the node at path.
func (s *Store) MetadataRemove(path, key string) error {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return err
	}
	if err := s.fs.RmMetadata(id, key); err != nil {
		return err
	}
	return s.save()
}

// TagAdd attaches tags to the node at path. Present tags are skipped.
func (s *Store) TagAdd(path string, tags ...string) error {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err := s.fs.AddTag(id, tag); err != nil {
			return err
		}
	}
	return s.save()
}

// TagRemove detaches tags from the node at path. Absent tags are
// tolerated.
func (s *Store) TagRemove(path string, tags ...string) error {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err := s.fs.RmTag(id, tag); err != nil {
			return err
		}
	}
	return s.save()
}

// TagGet returns the tags of the node at path.
func (s *Store) TagGet(path string) ([]string, error) {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return nil, err
	}
	file, err := s.fs.Get(id)
	if err != nil {
		return nil, err
	}
	return file.Tags, nil
}

// TagClear removes all tags from the node at path.
func (s *Store) TagClear(path string) error {
	id, err := s.fs.NodeID(path)
	if err != nil {
		return err
	}
	if err := s.fs.ClearTag(id); err != nil {
		return err
	}
	return s.save()
}

// TagList returns every tag in the store.
func (s *Store) TagList() []string {
	return s.fs.ListTag()
}

// TagSearch returns the files matching the tag queries; a leading '!'
// excludes a tag. Result names are full paths.
func (s *Store) TagSearch(queries []string) []vfs.File {
	return s.fs.SearchTag(queries)
}
