package store

import (
	"fmt"
	"os"

	"github.com/acristoffers/void/internal/crypto"
	"github.com/acristoffers/void/internal/errs"
	"github.com/acristoffers/void/internal/vpath"
)

// Get decrypts the node at storePath to externalPath on the OS
// filesystem. Files are reassembled chunk by chunk; directories are
// recreated recursively. The destination must not exist.
func (s *Store) Get(storePath, externalPath string) error {
	external, err := vpath.New(externalPath)
	if err != nil {
		return err
	}
	if external.Exists() {
		return fmt.Errorf("%s: %w", external.Path, errs.ErrFileAlreadyExists)
	}
	id, err := s.fs.NodeID(storePath)
	if err != nil {
		return err
	}
	return s.getNode(id, external)
}

func (s *Store) getNode(id uint64, external vpath.Path) error {
	node, err := s.fs.Get(id)
	if err != nil {
		return err
	}

	if !node.IsFile {
		if err := os.MkdirAll(external.Path, 0o700); err != nil {
			return fmt.Errorf("%s: %w", external.Path, errs.ErrCannotCreateDirectory)
		}
		for _, child := range s.fs.Ls(id) {
			childPath, err := external.Join(child.Name)
			if err != nil {
				return err
			}
			if err := s.getNode(child.ID, childPath); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(external.Parent, 0o700); err != nil {
		return fmt.Errorf("%s: %w", external.Parent, errs.ErrCannotCreateDirectory)
	}
	out, err := os.Create(external.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", external.Path, errs.ErrCannotCreateFile)
	}
	defer out.Close()

	for _, chunk := range node.Chunks {
		chunkPath, err := s.folder.Join(chunkFileName(chunk.ID))
		if err != nil {
			return err
		}
		ct, err := os.ReadFile(chunkPath.Path)
		if err != nil {
			return fmt.Errorf("%s: %w", chunkPath.Path, errs.ErrCannotReadFile)
		}
		plain, err := crypto.Decrypt(ct, chunk.Key, chunk.IV)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", chunk.ID, err)
		}
		if _, err := out.Write(plain); err != nil {
			return fmt.Errorf("%s: %w", external.Path, errs.ErrCannotWriteFile)
		}
	}
	return nil
}
