package store

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/acristoffers/void/internal/crypto"
	"github.com/acristoffers/void/internal/errs"
	"github.com/acristoffers/void/internal/vfs"
	"github.com/acristoffers/void/internal/vpath"
)

// Add encrypts an OS file or directory tree into the store.
//
// Placement follows the rsync convention on the source: a trailing '/'
// on a directory source copies its contents into storePath, otherwise
// the directory itself (name included) lands there. A trailing '/' on
// storePath marks the destination as a container even when it does not
// exist yet.
func (s *Store) Add(sourcePath, storePath string) error {
	contentsCopy := strings.HasSuffix(sourcePath, "/")
	dstContainer := strings.HasSuffix(storePath, "/")

	source, err := vpath.New(sourcePath)
	if err != nil {
		return err
	}
	dst, err := vpath.New(storePath)
	if err != nil {
		return err
	}
	if !source.Exists() {
		return fmt.Errorf("%s: %w", source.Path, errs.ErrFileDoesNotExist)
	}
	if source.IsDir() {
		return s.addDir(source, dst, contentsCopy, dstContainer)
	}
	return s.addFile(source.Path, dst.Path, dstContainer)
}

// addDir walks the source tree and adds every entry, rewriting each OS
// path into a store path. The rewrite root decides whether the source
// directory's own name is kept: rewriting from the source itself drops
// it (contents copy or rename onto a fresh path), rewriting from the
// source's parent carries it into the destination.
func (s *Store) addDir(source, dst vpath.Path, contentsCopy, dstContainer bool) error {
	if exists, err := s.fs.Exists(dst.Path); err != nil {
		return err
	} else if exists {
		id, err := s.fs.NodeID(dst.Path)
		if err != nil {
			return err
		}
		node, err := s.fs.Get(id)
		if err != nil {
			return err
		}
		if node.IsFile {
			return fmt.Errorf("%s is a file: %w", dst.Path, errs.ErrCannotCreateDirectory)
		}
		dstContainer = true
	}

	rewriteRoot := source.Path
	if !contentsCopy && dstContainer {
		rewriteRoot = source.Parent
	}

	err := walk(source.Path, func(entry string, isDir bool) error {
		entryPath, err := vpath.New(entry)
		if err != nil {
			return err
		}
		target, ok := entryPath.WithRoot(rewriteRoot, dst.Path)
		if !ok {
			return fmt.Errorf("%s outside %s: %w", entry, rewriteRoot, errs.ErrCannotParse)
		}
		if isDir {
			_, err := s.fs.Mkdirp(target.Path)
			return err
		}
		return s.addFile(entry, target.Path, false)
	})
	if err != nil {
		return err
	}
	return s.save()
}

// addFile streams one OS file into the store under vfsPath. An existing
// directory at vfsPath (or a trailing-slash destination) receives the
// file under its own name; an existing file is never clobbered; a fresh
// path renames the file on the way in.
func (s *Store) addFile(osPath, vfsPath string, container bool) error {
	dest := vfsPath
	exists, err := s.fs.Exists(vfsPath)
	if err != nil {
		return err
	}
	if exists {
		id, err := s.fs.NodeID(vfsPath)
		if err != nil {
			return err
		}
		node, err := s.fs.Get(id)
		if err != nil {
			return err
		}
		if node.IsFile {
			return fmt.Errorf("%s: %w", vfsPath, errs.ErrFileAlreadyExists)
		}
		container = true
	}
	if container {
		nested, err := vpath.New(vfsPath + "/" + filepath.Base(osPath))
		if err != nil {
			return err
		}
		dest = nested.Path
		if exists, err := s.fs.Exists(dest); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("%s: %w", dest, errs.ErrFileAlreadyExists)
		}
	}

	handle, err := os.Open(osPath)
	if err != nil {
		return fmt.Errorf("%s: %w", osPath, errs.ErrCannotReadFile)
	}
	defer handle.Close()
	info, err := handle.Stat()
	if err != nil {
		return fmt.Errorf("%s: %w", osPath, errs.ErrCannotReadFile)
	}

	id, err := s.fs.Touch(dest)
	if err != nil {
		return err
	}
	if err := s.fs.SetMetadata(id, "mimetype", s.detectMime(osPath)); err != nil {
		return err
	}
	if err := s.fs.SetSize(id, uint64(info.Size())); err != nil {
		return err
	}
	if err := s.writeChunks(handle, id); err != nil {
		return err
	}
	return s.save()
}

// writeChunks reads the source in chunkSize blocks, encrypts each block
// under fresh key material and writes it to its own file in the store
// folder. Any read or write failure unwinds the node and every chunk
// file written so far.
func (s *Store) writeChunks(r io.Reader, id uint64) error {
	buf := make([]byte, s.chunkSize)
	for {
		n, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return nil
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			s.rollback(id)
			return fmt.Errorf("reading source: %w", errs.ErrCannotReadFile)
		}

		salt := crypto.UUID()
		iv := crypto.UUID()
		pswd := crypto.UUID()
		key := crypto.DeriveKey(hex.EncodeToString(pswd[:]), salt, iv)

		file, appendErr := s.fs.Append(id, vfs.Chunk{Key: key, IV: iv, Salt: salt})
		if appendErr != nil {
			s.rollback(id)
			return appendErr
		}
		chunkID := file.Chunks[len(file.Chunks)-1].ID

		ct, encErr := crypto.Encrypt(buf[:n], key, iv)
		if encErr != nil {
			s.rollback(id)
			return encErr
		}
		chunkPath, pathErr := s.folder.Join(chunkFileName(chunkID))
		if pathErr != nil {
			s.rollback(id)
			return pathErr
		}
		if writeErr := os.WriteFile(chunkPath.Path, ct, 0o600); writeErr != nil {
			s.rollback(id)
			return fmt.Errorf("%s: %w", chunkPath.Path, errs.ErrCannotWriteFile)
		}

		if err == io.ErrUnexpectedEOF {
			return nil
		}
	}
}

// rollback drops the node and unlinks the chunk files it accumulated.
func (s *Store) rollback(id uint64) {
	chunks, err := s.fs.Rm(id)
	if err != nil {
		return
	}
	for _, chunk := range chunks {
		s.removeChunkFile(chunk.ID)
	}
}
