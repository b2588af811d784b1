// Package errs defines the closed set of errors shared by the vault core.
//
// Every failure that crosses a package boundary is one of these sentinels,
// usually wrapped with call-site context via fmt.Errorf("...: %w", err).
// Callers match with errors.Is.
package errs

import "errors"

var (
	ErrFolderDoesNotExist     = errors.New("folder does not exist")
	ErrFileDoesNotExist       = errors.New("file does not exist")
	ErrFileAlreadyExists      = errors.New("file already exists")
	ErrStoreFileAlreadyExists = errors.New("store file already exists")
	ErrCannotCreateDirectory  = errors.New("cannot create directory")
	ErrCannotCreateFile       = errors.New("cannot create file")
	ErrCannotWriteFile        = errors.New("cannot write file")
	ErrCannotReadFile         = errors.New("cannot read file")
	ErrCannotSerialize        = errors.New("cannot serialize")
	ErrCannotDeserialize      = errors.New("cannot deserialize")
	ErrCannotEncrypt          = errors.New("cannot encrypt")
	ErrCannotDecrypt          = errors.New("cannot decrypt")
	ErrCannotParse            = errors.New("cannot parse path")
	ErrNoSuchMetadataKey      = errors.New("no such metadata key")
	ErrInternalStructure      = errors.New("internal structure error")
)
