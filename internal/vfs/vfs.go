// Package vfs implements the vault's virtual filesystem: an in-memory
// graph of file and directory nodes with metadata, tags and per-chunk
// key material.
//
// Nodes are identified by uint64 ids. The root is implicit: it has id 0,
// is never stored, and owns the top-level entries through the graph. The
// graph maps a parent id to the ordered list of its children ids. Freed
// ids are recycled: allocation always returns the smallest positive id
// not in use.
package vfs

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/acristoffers/void/internal/crypto"
	"github.com/acristoffers/void/internal/errs"
	"github.com/acristoffers/void/internal/vpath"
)

// Chunk holds the key material of one encrypted content chunk. The key,
// iv and salt are unique per chunk and live only inside the filesystem.
type Chunk struct {
	ID   uint64                 `json:"id"`
	Key  [crypto.KeySize]byte   `json:"key"`
	IV   [crypto.NonceSize]byte `json:"iv"`
	Salt [crypto.NonceSize]byte `json:"salt"`
}

type node struct {
	ID       uint64            `json:"id"`
	Name     string            `json:"name"`
	Size     uint64            `json:"size"`
	IsFile   bool              `json:"is_file"`
	Metadata map[string]string `json:"metadata"`
	Data     []uint64          `json:"data"`
	Tags     []string          `json:"tags"`
}

// File is a detached view of a node, with chunk descriptors resolved.
type File struct {
	ID       uint64
	Name     string
	Size     uint64
	IsFile   bool
	Metadata map[string]string
	Tags     []string
	Chunks   []Chunk
}

// Filesystem is the complete node graph. The zero value is not usable;
// construct with New.
type Filesystem struct {
	chunks []Chunk
	nodes  []node
	graph  map[uint64][]uint64
}

// New returns an empty filesystem.
func New() *Filesystem {
	return &Filesystem{graph: map[uint64][]uint64{}}
}

// nextNodeID returns the smallest positive id absent from the node table.
func (fs *Filesystem) nextNodeID() uint64 {
	ids := make([]uint64, 0, len(fs.nodes))
	for _, n := range fs.nodes {
		ids = append(ids, n.ID)
	}
	return smallestHole(ids)
}

// nextChunkID returns the smallest positive id absent from the chunk table.
func (fs *Filesystem) nextChunkID() uint64 {
	ids := make([]uint64, 0, len(fs.chunks))
	for _, c := range fs.chunks {
		ids = append(ids, c.ID)
	}
	return smallestHole(ids)
}

func smallestHole(ids []uint64) uint64 {
	slices.Sort(ids)
	next := uint64(1)
	for _, id := range ids {
		if id != next {
			return next
		}
		next++
	}
	return next
}

func (fs *Filesystem) node(id uint64) *node {
	for i := range fs.nodes {
		if fs.nodes[i].ID == id {
			return &fs.nodes[i]
		}
	}
	return nil
}

// childByName finds a direct child of parent with the given name.
func (fs *Filesystem) childByName(parent uint64, name string) *node {
	for _, id := range fs.graph[parent] {
		if n := fs.node(id); n != nil && n.Name == name {
			return n
		}
	}
	return nil
}

// parentOf returns the id of the node's parent via the inverse graph
// lookup, or false if the node hangs nowhere.
func (fs *Filesystem) parentOf(id uint64) (uint64, bool) {
	for parent, children := range fs.graph {
		if slices.Contains(children, id) {
			return parent, true
		}
	}
	return 0, false
}

// NodeID resolves a path to a node id by walking the graph from the root.
func (fs *Filesystem) NodeID(path string) (uint64, error) {
	p, err := vpath.New(path)
	if err != nil {
		return 0, err
	}
	var id uint64
	for _, component := range p.Components() {
		if component == "/" {
			continue
		}
		child := fs.childByName(id, component)
		if child == nil {
			return 0, fmt.Errorf("%s: %w", p.Path, errs.ErrFileDoesNotExist)
		}
		id = child.ID
	}
	return id, nil
}

// Exists reports whether a path resolves to a node.
func (fs *Filesystem) Exists(path string) (bool, error) {
	_, err := vpath.New(path)
	if err != nil {
		return false, err
	}
	if _, err := fs.NodeID(path); err != nil {
		return false, nil
	}
	return true, nil
}

// Mkdirp creates a directory and any missing intermediates, like
// mkdir -p. Idempotent. Returns the id of the innermost directory.
// Fails if any component on the way resolves to an existing file.
func (fs *Filesystem) Mkdirp(path string) (uint64, error) {
	p, err := vpath.New(path)
	if err != nil {
		return 0, err
	}
	var id uint64
	for _, component := range p.Components() {
		if component == "/" {
			continue
		}
		if child := fs.childByName(id, component); child != nil {
			if child.IsFile {
				return 0, fmt.Errorf("%s is a file: %w", p.Path, errs.ErrCannotCreateDirectory)
			}
			id = child.ID
			continue
		}
		n := node{
			ID:       fs.nextNodeID(),
			Name:     component,
			Metadata: map[string]string{},
		}
		children := append([]uint64{n.ID}, fs.graph[id]...)
		slices.Sort(children)
		fs.graph[id] = children
		fs.nodes = append(fs.nodes, n)
		id = n.ID
	}
	return id, nil
}

// Touch creates a file node, creating parent directories as needed.
// Returns the id of the existing child when the path is already taken.
// The root resolves to id 0.
func (fs *Filesystem) Touch(path string) (uint64, error) {
	if path == "/" {
		return 0, nil
	}
	p, err := vpath.New(path)
	if err != nil {
		return 0, err
	}
	parent, err := fs.Mkdirp(p.Parent)
	if err != nil {
		return 0, err
	}
	if child := fs.childByName(parent, p.Name); child != nil {
		return child.ID, nil
	}
	n := node{
		ID:       fs.nextNodeID(),
		Name:     p.Name,
		IsFile:   true,
		Metadata: map[string]string{},
	}
	fs.graph[parent] = append([]uint64{n.ID}, fs.graph[parent]...)
	fs.nodes = append(fs.nodes, n)
	return n.ID, nil
}

// Get returns a detached File view of a node, with its chunk descriptors
// resolved from the chunk table. Id 0 synthesizes the root directory.
func (fs *Filesystem) Get(id uint64) (File, error) {
	if id == 0 {
		return File{Name: "/", Metadata: map[string]string{}}, nil
	}
	n := fs.node(id)
	if n == nil {
		return File{}, fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	file := File{
		ID:       n.ID,
		Name:     n.Name,
		Size:     n.Size,
		IsFile:   n.IsFile,
		Metadata: map[string]string{},
		Tags:     slices.Clone(n.Tags),
	}
	for k, v := range n.Metadata {
		file.Metadata[k] = v
	}
	for _, chunkID := range n.Data {
		for _, c := range fs.chunks {
			if c.ID == chunkID {
				file.Chunks = append(file.Chunks, c)
			}
		}
	}
	return file, nil
}

// SetSize records the size of a file node.
func (fs *Filesystem) SetSize(id, size uint64) error {
	n := fs.node(id)
	if n == nil || !n.IsFile {
		return fmt.Errorf("node %d is not a file: %w", id, errs.ErrInternalStructure)
	}
	n.Size = size
	return nil
}

// Ls returns the direct children of a directory. An unknown id yields an
// empty list.
func (fs *Filesystem) Ls(id uint64) []File {
	var children []File
	for _, childID := range fs.graph[id] {
		if file, err := fs.Get(childID); err == nil {
			children = append(children, file)
		}
	}
	return children
}

// Mv detaches a node from its current parent and prepends it to the
// children of newParent.
func (fs *Filesystem) Mv(id, newParent uint64) error {
	if fs.node(id) == nil {
		return fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	if newParent != 0 && fs.node(newParent) == nil {
		return fmt.Errorf("node %d: %w", newParent, errs.ErrFolderDoesNotExist)
	}
	oldParent, ok := fs.parentOf(id)
	if !ok {
		return fmt.Errorf("node %d hangs nowhere: %w", id, errs.ErrInternalStructure)
	}
	children := fs.graph[oldParent]
	children = slices.DeleteFunc(slices.Clone(children), func(c uint64) bool { return c == id })
	fs.graph[oldParent] = children
	fs.graph[newParent] = append([]uint64{id}, fs.graph[newParent]...)
	return nil
}

// Rm removes a node and everything below it, then garbage-collects.
// Rm(0) wipes the whole filesystem. Returns the chunks that became
// unreachable so the caller can delete their on-disk files.
func (fs *Filesystem) Rm(id uint64) ([]Chunk, error) {
	if id == 0 {
		removed := fs.chunks
		fs.chunks = nil
		fs.nodes = nil
		fs.graph = map[uint64][]uint64{}
		return removed, nil
	}
	parent, ok := fs.parentOf(id)
	if !ok {
		return nil, fmt.Errorf("node %d hangs nowhere: %w", id, errs.ErrInternalStructure)
	}
	children := slices.DeleteFunc(slices.Clone(fs.graph[parent]), func(c uint64) bool { return c == id })
	fs.graph[parent] = children
	return fs.Clean(), nil
}

// Clean removes nodes not reachable from the root and chunks not
// referenced by any surviving file. Ids are not renumbered. Returns the
// dropped chunks.
func (fs *Filesystem) Clean() []Chunk {
	// Drop graph entries whose key is no longer anyone's child, until a
	// fixed point is reached.
	for {
		referenced := map[uint64]bool{0: true}
		for _, children := range fs.graph {
			for _, id := range children {
				referenced[id] = true
			}
		}
		before := len(fs.graph)
		for key := range fs.graph {
			if !referenced[key] {
				delete(fs.graph, key)
			}
		}
		if len(fs.graph) == before {
			break
		}
	}

	keep := map[uint64]bool{}
	for _, children := range fs.graph {
		for _, id := range children {
			keep[id] = true
		}
	}
	fs.nodes = slices.DeleteFunc(fs.nodes, func(n node) bool { return !keep[n.ID] })

	keepChunks := map[uint64]bool{}
	for _, n := range fs.nodes {
		for _, id := range n.Data {
			keepChunks[id] = true
		}
	}
	var removed []Chunk
	fs.chunks = slices.DeleteFunc(fs.chunks, func(c Chunk) bool {
		if keepChunks[c.ID] {
			return false
		}
		removed = append(removed, c)
		return true
	})
	return removed
}

// Append assigns a fresh id to the chunk, stores it and appends it to
// the file's content. Returns the refreshed File view.
func (fs *Filesystem) Append(id uint64, chunk Chunk) (File, error) {
	next := fs.nextChunkID()
	n := fs.node(id)
	if n == nil || !n.IsFile {
		return File{}, fmt.Errorf("node %d is not a file: %w", id, errs.ErrFileDoesNotExist)
	}
	chunk.ID = next
	n.Data = append(n.Data, chunk.ID)
	fs.chunks = append(fs.chunks, chunk)
	return fs.Get(id)
}

// Truncate drops all chunks of a file. On-disk chunk files are the
// store's responsibility.
func (fs *Filesystem) Truncate(id uint64) error {
	n := fs.node(id)
	if n == nil || !n.IsFile {
		return fmt.Errorf("node %d is not a file: %w", id, errs.ErrFileDoesNotExist)
	}
	drop := map[uint64]bool{}
	for _, chunkID := range n.Data {
		drop[chunkID] = true
	}
	fs.chunks = slices.DeleteFunc(fs.chunks, func(c Chunk) bool { return drop[c.ID] })
	n.Data = nil
	return nil
}

// ChunkIDs returns the ids of every chunk in the chunk table.
func (fs *Filesystem) ChunkIDs() []uint64 {
	ids := make([]uint64, 0, len(fs.chunks))
	for _, c := range fs.chunks {
		ids = append(ids, c.ID)
	}
	return ids
}

// Sort orders nodes and chunks by id so serialization is stable.
func (fs *Filesystem) Sort() {
	slices.SortFunc(fs.nodes, func(a, b node) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(fs.chunks, func(a, b Chunk) int { return cmp.Compare(a.ID, b.ID) })
}

// SetMetadata sets a metadata key on a node.
func (fs *Filesystem) SetMetadata(id uint64, key, value string) error {
	n := fs.node(id)
	if n == nil {
		return fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	n.Metadata[key] = value
	return nil
}

// GetMetadata returns the value of a metadata key.
func (fs *Filesystem) GetMetadata(id uint64, key string) (string, error) {
	n := fs.node(id)
	if n == nil {
		return "", fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	value, ok := n.Metadata[key]
	if !ok {
		return "", fmt.Errorf("%q: %w", key, errs.ErrNoSuchMetadataKey)
	}
	return value, nil
}

// RmMetadata removes a metadata key.
func (fs *Filesystem) RmMetadata(id uint64, key string) error {
	n := fs.node(id)
	if n == nil {
		return fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	if _, ok := n.Metadata[key]; !ok {
		return fmt.Errorf("%q: %w", key, errs.ErrNoSuchMetadataKey)
	}
	delete(n.Metadata, key)
	return nil
}

// MetadataList returns a copy of the node's metadata map.
func (fs *Filesystem) MetadataList(id uint64) (map[string]string, error) {
	n := fs.node(id)
	if n == nil {
		return nil, fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	metadata := make(map[string]string, len(n.Metadata))
	for k, v := range n.Metadata {
		metadata[k] = v
	}
	return metadata, nil
}

// Path returns the absolute path of a node, computed by walking parents
// up to the root.
func (fs *Filesystem) Path(id uint64) (string, error) {
	var names []string
	for id != 0 {
		n := fs.node(id)
		if n == nil {
			return "", fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
		}
		names = append(names, n.Name)
		parent, ok := fs.parentOf(id)
		if !ok {
			return "", fmt.Errorf("node %d hangs nowhere: %w", id, errs.ErrFileDoesNotExist)
		}
		id = parent
	}
	slices.Reverse(names)
	return "/" + strings.Join(names, "/"), nil
}

// LsAll returns every node in the filesystem, with the name replaced by
// the node's full path.
func (fs *Filesystem) LsAll() []File {
	var files []File
	for _, n := range fs.nodes {
		file, err := fs.Get(n.ID)
		if err != nil {
			continue
		}
		if path, err := fs.Path(n.ID); err == nil {
			file.Name = path
		}
		files = append(files, file)
	}
	return files
}

// AddTag adds a tag to a node. No-op if the tag is already present.
func (fs *Filesystem) AddTag(id uint64, tag string) error {
	n := fs.node(id)
	if n == nil {
		return fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	if !slices.Contains(n.Tags, tag) {
		n.Tags = append(n.Tags, tag)
	}
	return nil
}

// RmTag removes a tag from a node. A missing tag is tolerated.
func (fs *Filesystem) RmTag(id uint64, tag string) error {
	n := fs.node(id)
	if n == nil {
		return fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	n.Tags = slices.DeleteFunc(n.Tags, func(t string) bool { return t == tag })
	return nil
}

// ClearTag removes all tags from a node.
func (fs *Filesystem) ClearTag(id uint64) error {
	n := fs.node(id)
	if n == nil {
		return fmt.Errorf("node %d: %w", id, errs.ErrFileDoesNotExist)
	}
	n.Tags = nil
	return nil
}

// ListTag returns the union of all tags in the filesystem.
func (fs *Filesystem) ListTag() []string {
	seen := map[string]bool{}
	var tags []string
	for _, n := range fs.nodes {
		for _, tag := range n.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// SearchTag returns the files matching a tag query. A node matches when
// it carries every include tag and none of the exclude tags; exclude
// tags are marked by a leading '!'. Names in the result are replaced by
// full paths.
func (fs *Filesystem) SearchTag(queries []string) []File {
	var include, exclude []string
	for _, q := range queries {
		if strings.HasPrefix(q, "!") {
			exclude = append(exclude, strings.TrimPrefix(q, "!"))
		} else {
			include = append(include, q)
		}
	}
	var files []File
	for _, n := range fs.nodes {
		matches := true
		for _, tag := range include {
			if !slices.Contains(n.Tags, tag) {
				matches = false
				break
			}
		}
		for _, tag := range exclude {
			if slices.Contains(n.Tags, tag) {
				matches = false
				break
			}
		}
		if !matches {
			continue
		}
		file, err := fs.Get(n.ID)
		if err != nil {
			continue
		}
		if path, err := fs.Path(n.ID); err == nil {
			file.Name = path
		}
		files = append(files, file)
	}
	return files
}
