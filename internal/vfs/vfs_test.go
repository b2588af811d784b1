package vfs

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/acristoffers/void/internal/crypto"
	"github.com/acristoffers/void/internal/errs"
)

func testChunk() Chunk {
	salt := crypto.UUID()
	iv := crypto.UUID()
	return Chunk{
		Key:  crypto.DeriveKey("pswd", salt, iv),
		IV:   iv,
		Salt: salt,
	}
}

func TestNextNodeIDSmallestHole(t *testing.T) {
	fs := New()
	if id := fs.nextNodeID(); id != 1 {
		t.Errorf("nextNodeID = %d, want 1", id)
	}
	fs.nodes = append(fs.nodes, node{ID: 1}, node{ID: 2})
	if id := fs.nextNodeID(); id != 3 {
		t.Errorf("nextNodeID = %d, want 3", id)
	}
	fs.nodes = append(fs.nodes, node{ID: 5})
	if id := fs.nextNodeID(); id != 3 {
		t.Errorf("nextNodeID with hole = %d, want 3", id)
	}
}

func TestNextChunkIDSmallestHole(t *testing.T) {
	fs := New()
	if id := fs.nextChunkID(); id != 1 {
		t.Errorf("nextChunkID = %d, want 1", id)
	}
	fs.chunks = append(fs.chunks, Chunk{ID: 1}, Chunk{ID: 2})
	if id := fs.nextChunkID(); id != 3 {
		t.Errorf("nextChunkID = %d, want 3", id)
	}
	fs.chunks = append(fs.chunks, Chunk{ID: 5})
	if id := fs.nextChunkID(); id != 3 {
		t.Errorf("nextChunkID with hole = %d, want 3", id)
	}
}

func TestExists(t *testing.T) {
	fs := New()
	if _, err := fs.Mkdirp("/f1/f2/f3"); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		path string
		want bool
	}{
		{"/f1/f2/f3", true},
		{"/f1/f2", true},
		{"/f1/f3/f2", false},
		{"/", true},
	} {
		got, err := fs.Exists(tc.path)
		if err != nil {
			t.Fatalf("Exists(%q) failed: %v", tc.path, err)
		}
		if got != tc.want {
			t.Errorf("Exists(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestMkdirp(t *testing.T) {
	fs := New()
	if _, err := fs.Mkdirp("/f1/f2/f3"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := fs.Exists("/f1/f2/f3"); !ok {
		t.Error("/f1/f2/f3 should exist")
	}
	// Idempotent, extends in place.
	if _, err := fs.Mkdirp("/f1/f2/f3/f4"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := fs.Exists("/f1/f2/f3/f4"); !ok {
		t.Error("/f1/f2/f3/f4 should exist")
	}
	// A file on the way is an error.
	if _, err := fs.Touch("/f5"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Mkdirp("/f5/f6"); !errors.Is(err, errs.ErrCannotCreateDirectory) {
		t.Errorf("Mkdirp through a file: err = %v, want ErrCannotCreateDirectory", err)
	}
}

func TestTouch(t *testing.T) {
	fs := New()
	id, err := fs.Touch("/a/b/c")
	if err != nil {
		t.Fatal(err)
	}
	if id != 3 {
		t.Errorf("Touch = %d, want 3", id)
	}
	if ok, _ := fs.Exists("/a/b/c"); !ok {
		t.Error("/a/b/c should exist")
	}
	// Touching again returns the same id.
	again, err := fs.Touch("/a/b/c")
	if err != nil {
		t.Fatal(err)
	}
	if again != id {
		t.Errorf("second Touch = %d, want %d", again, id)
	}
	// Touching below a file fails.
	if _, err := fs.Touch("/a/b/c/d"); !errors.Is(err, errs.ErrCannotCreateDirectory) {
		t.Errorf("Touch below file: err = %v, want ErrCannotCreateDirectory", err)
	}
	// Root is the implicit node 0.
	if id, err := fs.Touch("/"); err != nil || id != 0 {
		t.Errorf("Touch(/) = %d, %v, want 0, nil", id, err)
	}
	file, err := fs.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !file.IsFile {
		t.Error("touched node should be a file")
	}
}

func TestGet(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a/b/c")
	file, err := fs.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if file.ID != id || !file.IsFile || file.Name != "c" {
		t.Errorf("Get(%d) = %+v", id, file)
	}
	folder, err := fs.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if folder.IsFile || folder.Name != "a" {
		t.Errorf("Get(1) = %+v, want directory a", folder)
	}
	root, err := fs.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if root.Name != "/" || root.IsFile {
		t.Errorf("Get(0) = %+v, want the root directory", root)
	}
	if _, err := fs.Get(99); !errors.Is(err, errs.ErrFileDoesNotExist) {
		t.Errorf("Get(99): err = %v, want ErrFileDoesNotExist", err)
	}
}

func TestSetSize(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a/b/c")
	if err := fs.SetSize(id, 50); err != nil {
		t.Fatal(err)
	}
	file, _ := fs.Get(id)
	if file.Size != 50 {
		t.Errorf("Size = %d, want 50", file.Size)
	}
	dir, _ := fs.Mkdirp("/dir")
	if err := fs.SetSize(dir, 1); !errors.Is(err, errs.ErrInternalStructure) {
		t.Errorf("SetSize on dir: err = %v, want ErrInternalStructure", err)
	}
}

func TestLs(t *testing.T) {
	fs := New()
	for _, p := range []string{"/a/a1", "/a/a2", "/a/a3", "/a/a4", "/a/a5"} {
		if _, err := fs.Touch(p); err != nil {
			t.Fatal(err)
		}
	}
	children := fs.Ls(1)
	if len(children) != 5 {
		t.Fatalf("Ls(1) returned %d entries, want 5", len(children))
	}
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name
	}
	slices.Sort(names)
	want := []string{"a1", "a2", "a3", "a4", "a5"}
	if !slices.Equal(names, want) {
		t.Errorf("Ls names = %v, want %v", names, want)
	}
	if got := fs.Ls(99); len(got) != 0 {
		t.Errorf("Ls of unknown id = %v, want empty", got)
	}
}

func TestMv(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a/b")
	parent, _ := fs.Mkdirp("/c")
	if err := fs.Mv(id, parent); err != nil {
		t.Fatal(err)
	}
	if got := fs.Ls(1); len(got) != 0 {
		t.Errorf("old parent still has %d children", len(got))
	}
	if got := fs.Ls(parent); len(got) != 1 {
		t.Errorf("new parent has %d children, want 1", len(got))
	}
	// Moving to the root works: the root is implicit.
	if err := fs.Mv(id, 0); err != nil {
		t.Fatalf("Mv to root failed: %v", err)
	}
	if err := fs.Mv(99, parent); !errors.Is(err, errs.ErrFileDoesNotExist) {
		t.Errorf("Mv of unknown node: err = %v", err)
	}
	if err := fs.Mv(id, 99); !errors.Is(err, errs.ErrFolderDoesNotExist) {
		t.Errorf("Mv to unknown parent: err = %v", err)
	}
}

func TestRm(t *testing.T) {
	fs := New()
	fs.Touch("/a/b")
	fs.Touch("/a/c")
	id, _ := fs.Touch("/a/d")
	if _, err := fs.Append(id, testChunk()); err != nil {
		t.Fatal(err)
	}
	removed, err := fs.Rm(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 {
		t.Errorf("Rm returned %d chunks, want 1", len(removed))
	}
	if len(fs.nodes) != 0 || len(fs.chunks) != 0 {
		t.Errorf("after Rm: %d nodes, %d chunks, want 0, 0", len(fs.nodes), len(fs.chunks))
	}
}

func TestRmRootWipes(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a/b/file")
	fs.Append(id, testChunk())
	removed, err := fs.Rm(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 {
		t.Errorf("Rm(0) returned %d chunks, want 1", len(removed))
	}
	if len(fs.nodes) != 0 || len(fs.graph) != 0 || len(fs.chunks) != 0 {
		t.Error("Rm(0) did not wipe the filesystem")
	}
	if got := fs.Ls(0); len(got) != 0 {
		t.Errorf("Ls(/) after wipe = %v, want empty", got)
	}
}

func TestIDRecycling(t *testing.T) {
	fs := New()
	fs.Touch("/keep")
	id, _ := fs.Touch("/gone")
	if _, err := fs.Rm(id); err != nil {
		t.Fatal(err)
	}
	reused, _ := fs.Touch("/fresh")
	if reused != id {
		t.Errorf("new node got id %d, want recycled %d", reused, id)
	}
}

func TestClean(t *testing.T) {
	fs := New()
	fs.Touch("/a/b/c/d/e")
	fs.Touch("/b/c/d/e")
	fs.Touch("/c/d/e")
	fs.Touch("/d/e")
	id, _ := fs.Touch("/e")
	fs.Append(id, testChunk())
	// Sever everything below /a/b by rebuilding the graph by hand.
	fs.graph = map[uint64][]uint64{0: {1}, 1: {2}}
	removed := fs.Clean()
	if len(fs.nodes) != 2 {
		t.Errorf("Clean left %d nodes, want 2", len(fs.nodes))
	}
	if len(fs.chunks) != 0 {
		t.Errorf("Clean left %d chunks, want 0", len(fs.chunks))
	}
	if len(removed) != 1 {
		t.Errorf("Clean returned %d chunks, want 1", len(removed))
	}
}

func TestAppend(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/file")
	file, err := fs.Append(id, testChunk())
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Chunks) != 1 || file.Chunks[0].ID != 1 {
		t.Errorf("first append: chunks = %+v", file.Chunks)
	}
	fs.Append(id, testChunk())
	file, err = fs.Append(id, testChunk())
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Chunks) != 3 {
		t.Errorf("after three appends: %d chunks, want 3", len(file.Chunks))
	}
	dir, _ := fs.Mkdirp("/dir")
	if _, err := fs.Append(dir, testChunk()); !errors.Is(err, errs.ErrFileDoesNotExist) {
		t.Errorf("Append to dir: err = %v", err)
	}
}

func TestTruncate(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a")
	fs.Append(id, testChunk())
	if err := fs.Truncate(id); err != nil {
		t.Fatal(err)
	}
	file, _ := fs.Get(id)
	if len(file.Chunks) != 0 {
		t.Errorf("after Truncate: %d chunks, want 0", len(file.Chunks))
	}
	if len(fs.chunks) != 0 {
		t.Errorf("chunk table still holds %d entries", len(fs.chunks))
	}
}

func TestMetadata(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a/b/c/d")
	if err := fs.SetMetadata(id, "a", "b"); err != nil {
		t.Fatal(err)
	}
	val, err := fs.GetMetadata(id, "a")
	if err != nil || val != "b" {
		t.Errorf("GetMetadata = %q, %v, want b, nil", val, err)
	}
	all, err := fs.MetadataList(id)
	if err != nil || len(all) != 1 || all["a"] != "b" {
		t.Errorf("MetadataList = %v, %v", all, err)
	}
	if err := fs.RmMetadata(id, "a"); err != nil {
		t.Fatal(err)
	}
	if err := fs.RmMetadata(id, "a"); !errors.Is(err, errs.ErrNoSuchMetadataKey) {
		t.Errorf("RmMetadata of absent key: err = %v", err)
	}
	if _, err := fs.GetMetadata(id, "a"); !errors.Is(err, errs.ErrNoSuchMetadataKey) {
		t.Errorf("GetMetadata of absent key: err = %v", err)
	}
}

func TestPath(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a/b/c/d")
	path, err := fs.Path(id)
	if err != nil {
		t.Fatal(err)
	}
	if path != "/a/b/c/d" {
		t.Errorf("Path = %q, want /a/b/c/d", path)
	}
	if root, err := fs.Path(0); err != nil || root != "/" {
		t.Errorf("Path(0) = %q, %v, want /", root, err)
	}
}

func TestTags(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a")
	for _, tag := range []string{"tag1", "tag2", "tag3", "tag2"} {
		if err := fs.AddTag(id, tag); err != nil {
			t.Fatal(err)
		}
	}
	file, _ := fs.Get(id)
	if !slices.Equal(file.Tags, []string{"tag1", "tag2", "tag3"}) {
		t.Errorf("Tags = %v, duplicates not collapsed or order lost", file.Tags)
	}
	fs.RmTag(id, "tag2")
	file, _ = fs.Get(id)
	if !slices.Equal(file.Tags, []string{"tag1", "tag3"}) {
		t.Errorf("after RmTag: %v", file.Tags)
	}
	// Removing a missing tag is tolerated.
	if err := fs.RmTag(id, "nope"); err != nil {
		t.Errorf("RmTag of missing tag: %v", err)
	}
	fs.ClearTag(id)
	if tags := fs.ListTag(); len(tags) != 0 {
		t.Errorf("after ClearTag, ListTag = %v", tags)
	}
}

func TestListTag(t *testing.T) {
	fs := New()
	a, _ := fs.Touch("/a")
	fs.AddTag(a, "tag1")
	fs.AddTag(a, "tag2")
	b, _ := fs.Touch("/b")
	fs.AddTag(b, "tag3")
	fs.AddTag(b, "tag1")
	tags := fs.ListTag()
	slices.Sort(tags)
	if !slices.Equal(tags, []string{"tag1", "tag2", "tag3"}) {
		t.Errorf("ListTag = %v", tags)
	}
}

func TestSearchTag(t *testing.T) {
	fs := New()
	a, _ := fs.Touch("/dir/a")
	fs.AddTag(a, "music")
	fs.AddTag(a, "flac")
	b, _ := fs.Touch("/dir/b")
	fs.AddTag(b, "music")

	files := fs.SearchTag([]string{"music", "!flac"})
	if len(files) != 1 || files[0].Name != "/dir/b" {
		t.Errorf("SearchTag(music, !flac) = %+v, want /dir/b", files)
	}
	files = fs.SearchTag([]string{"music"})
	if len(files) != 2 {
		t.Errorf("SearchTag(music) returned %d files, want 2", len(files))
	}
	if files := fs.SearchTag([]string{"video"}); len(files) != 0 {
		t.Errorf("SearchTag(video) = %+v, want empty", files)
	}
}

func TestLsAll(t *testing.T) {
	fs := New()
	fs.Touch("/a/b")
	fs.Touch("/c")
	files := fs.LsAll()
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	slices.Sort(names)
	want := []string{"/a", "/a/b", "/c"}
	if !slices.Equal(names, want) {
		t.Errorf("LsAll names = %v, want %v", names, want)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	fs := New()
	id, _ := fs.Touch("/a/b/file")
	fs.SetSize(id, 512)
	fs.SetMetadata(id, "mimetype", "text/plain")
	fs.AddTag(id, "doc")
	fs.Append(id, testChunk())
	fs.Sort()

	encoded, err := json.Marshal(fs)
	if err != nil {
		t.Fatal(err)
	}

	decoded := New()
	if err := json.Unmarshal(encoded, decoded); err != nil {
		t.Fatal(err)
	}

	if len(decoded.nodes) != len(fs.nodes) || len(decoded.chunks) != len(fs.chunks) {
		t.Fatalf("roundtrip lost entries: %d/%d nodes, %d/%d chunks",
			len(decoded.nodes), len(fs.nodes), len(decoded.chunks), len(fs.chunks))
	}
	got, err := decoded.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Size != 512 || got.Metadata["mimetype"] != "text/plain" || len(got.Chunks) != 1 {
		t.Errorf("roundtrip node = %+v", got)
	}
	if got.Chunks[0] != fs.chunks[0] {
		t.Error("chunk key material did not survive the roundtrip")
	}
	if path, _ := decoded.Path(id); path != "/a/b/file" {
		t.Errorf("roundtrip path = %q", path)
	}

	// Deterministic after Sort.
	again, err := json.Marshal(fs)
	if err != nil {
		t.Fatal(err)
	}
	if string(encoded) != string(again) {
		t.Error("serialization is not deterministic")
	}
}
