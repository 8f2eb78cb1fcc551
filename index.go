package vaultkeep

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// NodeKind tags an IndexNode as a Folder or a File. The distinction is a
// tagged variant, not a type hierarchy: tree visitors switch on Kind
// rather than dispatching through an interface method.
type NodeKind uint8

const (
	NodeFolder NodeKind = iota
	NodeFile
)

// IndexNode is one entry in the Index tree: either a Folder (ordered
// children by name) or a File (a FileIdentifier and the content hash
// recorded at its last encryption).
type IndexNode struct {
	Kind NodeKind
	Name string // empty for the root Folder

	// Folder fields
	Children []*IndexNode

	// File fields
	FileID      FileIdentifier
	ContentHash [32]byte
}

// Index is the in-memory representation of a vault's tree of folders and
// files: a root Folder plus a flat reverse map from FileIdentifier to its
// File node for O(1) lookup. A single session owns an Index; there is no
// in-process sharing.
type Index struct {
	Root    *IndexNode
	ByFileID map[FileIdentifier]*IndexNode
}

// NewIndex builds an empty Index whose root Folder is named rootName
// (spec.md §4.7: the vault_name supplied at creation).
func NewIndex(rootName string) *Index {
	return &Index{
		Root:     &IndexNode{Kind: NodeFolder, Name: rootName},
		ByFileID: make(map[FileIdentifier]*IndexNode),
	}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// FindByPath traverses from root using forward-slash POSIX-relative path
// components; an empty path resolves to the root. Names are compared
// byte-exactly (case-sensitive).
func (idx *Index) FindByPath(path string) (*IndexNode, error) {
	parts := splitPath(path)
	node := idx.Root
	for _, part := range parts {
		if node.Kind != NodeFolder {
			return nil, NewInvalidInput("path traverses through a file: " + path)
		}
		next := findChild(node, part)
		if next == nil {
			return nil, NewInvalidInput("path not found: " + path)
		}
		node = next
	}
	return node, nil
}

func findChild(folder *IndexNode, name string) *IndexNode {
	for _, c := range folder.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddFolder adds a new, empty Folder named name under parentPath.
// Returns Exists if a sibling with the same name already exists.
func (idx *Index) AddFolder(parentPath, name string) (*IndexNode, error) {
	parent, err := idx.FindByPath(parentPath)
	if err != nil {
		return nil, err
	}
	if parent.Kind != NodeFolder {
		return nil, NewInvalidInput("parent is not a folder: " + parentPath)
	}
	if findChild(parent, name) != nil {
		return nil, NewExists(parentPath + "/" + name)
	}
	node := &IndexNode{Kind: NodeFolder, Name: name}
	parent.Children = append(parent.Children, node)
	return node, nil
}

// AddFile adds a new File node named name under parentPath, carrying
// fileID and contentHash. Returns Exists if a sibling with the same name
// already exists.
func (idx *Index) AddFile(parentPath, name string, fileID FileIdentifier, contentHash [32]byte) (*IndexNode, error) {
	parent, err := idx.FindByPath(parentPath)
	if err != nil {
		return nil, err
	}
	if parent.Kind != NodeFolder {
		return nil, NewInvalidInput("parent is not a folder: " + parentPath)
	}
	if findChild(parent, name) != nil {
		return nil, NewExists(parentPath + "/" + name)
	}
	node := &IndexNode{Kind: NodeFile, Name: name, FileID: fileID, ContentHash: contentHash}
	parent.Children = append(parent.Children, node)
	idx.ByFileID[fileID] = node
	return node, nil
}

// EnsureFolderPath walks path component by component, creating any
// missing Folder nodes along the way, and returns the final Folder. Used
// by Lock's Phase C when a created file's parent directories do not yet
// exist in the index.
func (idx *Index) EnsureFolderPath(path string) (*IndexNode, error) {
	parts := splitPath(path)
	node := idx.Root
	walked := ""
	for _, part := range parts {
		if node.Kind != NodeFolder {
			return nil, NewInvalidInput("path traverses through a file: " + path)
		}
		next := findChild(node, part)
		if next == nil {
			child := &IndexNode{Kind: NodeFolder, Name: part}
			node.Children = append(node.Children, child)
			next = child
		}
		node = next
		if walked == "" {
			walked = part
		} else {
			walked = walked + "/" + part
		}
	}
	return node, nil
}

// Remove removes the node at path. For a Folder it also removes every
// descendant from the reverse map, and returns the FileIdentifiers that
// became unreferenced — the caller is responsible for deleting their
// ciphertext blobs.
func (idx *Index) Remove(path string) ([]FileIdentifier, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, NewInvalidInput("cannot remove the root")
	}
	parentPath := strings.Join(parts[:len(parts)-1], "/")
	name := parts[len(parts)-1]

	parent, err := idx.FindByPath(parentPath)
	if err != nil {
		return nil, err
	}
	var removed *IndexNode
	var idxPos = -1
	for i, c := range parent.Children {
		if c.Name == name {
			removed = c
			idxPos = i
			break
		}
	}
	if removed == nil {
		return nil, NewInvalidInput("path not found: " + path)
	}

	var orphaned []FileIdentifier
	collectFileIDs(removed, &orphaned)
	for _, id := range orphaned {
		delete(idx.ByFileID, id)
	}

	parent.Children = append(parent.Children[:idxPos], parent.Children[idxPos+1:]...)
	return orphaned, nil
}

func collectFileIDs(node *IndexNode, out *[]FileIdentifier) {
	if node.Kind == NodeFile {
		*out = append(*out, node.FileID)
		return
	}
	for _, c := range node.Children {
		collectFileIDs(c, out)
	}
}

// Rename changes the name of the node at path to newName, without
// touching ciphertext: the on-disk blob is keyed by FileIdentifier, never
// by name, so no rewrite is needed. Fails with Exists if a sibling of the
// new name already exists.
func (idx *Index) Rename(path, newName string) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return NewInvalidInput("cannot rename the root")
	}
	parentPath := strings.Join(parts[:len(parts)-1], "/")
	name := parts[len(parts)-1]

	parent, err := idx.FindByPath(parentPath)
	if err != nil {
		return err
	}
	node := findChild(parent, name)
	if node == nil {
		return NewInvalidInput("path not found: " + path)
	}
	if newName != name && findChild(parent, newName) != nil {
		return NewExists(parentPath + "/" + newName)
	}
	node.Name = newName
	return nil
}

// --- Serialization (spec.md §4.6) ---

type indexNodeJSON struct {
	Kind        string           `json:"kind"`
	Name        string           `json:"name"`
	Children    []*indexNodeJSON `json:"children,omitempty"`
	FileID      string           `json:"file_id,omitempty"`      // base64
	ContentHash string           `json:"content_hash,omitempty"` // base64
}

func nodeToJSON(n *IndexNode) *indexNodeJSON {
	out := &indexNodeJSON{Name: n.Name}
	switch n.Kind {
	case NodeFolder:
		out.Kind = "folder"
		for _, c := range n.Children {
			out.Children = append(out.Children, nodeToJSON(c))
		}
	case NodeFile:
		out.Kind = "file"
		out.FileID = base64.StdEncoding.EncodeToString(n.FileID[:])
		out.ContentHash = base64.StdEncoding.EncodeToString(n.ContentHash[:])
	}
	return out
}

func nodeFromJSON(j *indexNodeJSON, byFileID map[FileIdentifier]*IndexNode) (*IndexNode, error) {
	n := &IndexNode{Name: j.Name}
	switch j.Kind {
	case "folder":
		n.Kind = NodeFolder
		for _, cj := range j.Children {
			c, err := nodeFromJSON(cj, byFileID)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, c)
		}
	case "file":
		n.Kind = NodeFile
		idBytes, err := base64.StdEncoding.DecodeString(j.FileID)
		if err != nil || len(idBytes) != idSize {
			return nil, NewDecryptFailure("index", nil)
		}
		copy(n.FileID[:], idBytes)
		hashBytes, err := base64.StdEncoding.DecodeString(j.ContentHash)
		if err != nil || len(hashBytes) != 32 {
			return nil, NewDecryptFailure("index", nil)
		}
		copy(n.ContentHash[:], hashBytes)
		byFileID[n.FileID] = n
	default:
		return nil, NewDecryptFailure("index", nil)
	}
	return n, nil
}

// indexDocument is the plaintext JSON structure stored inside index.enc:
// {version, salt, tree}, per spec.md §4.5/§4.6.
type indexDocument struct {
	Version int            `json:"version"`
	Salt    string         `json:"salt"` // base64
	Tree    *indexNodeJSON `json:"tree"`
}

// marshalIndex serializes the tree into the stable JSON document form
// that becomes the plaintext of the encrypted index blob.
func marshalIndex(idx *Index, salt Salt) ([]byte, error) {
	doc := indexDocument{
		Version: blobVersion,
		Salt:    base64.StdEncoding.EncodeToString(salt[:]),
		Tree:    nodeToJSON(idx.Root),
	}
	return json.Marshal(doc)
}

// unmarshalIndex parses the plaintext document back into an Index and
// returns the embedded salt, which LoadIndex compares against the
// unencrypted salt prefix of index.enc.
func unmarshalIndex(data []byte) (*Index, Salt, error) {
	var doc indexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Salt{}, NewDecryptFailure("index", err)
	}
	saltBytes, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil || len(saltBytes) != saltSize {
		return nil, Salt{}, NewDecryptFailure("index", nil)
	}
	var salt Salt
	copy(salt[:], saltBytes)

	byFileID := make(map[FileIdentifier]*IndexNode)
	root, err := nodeFromJSON(doc.Tree, byFileID)
	if err != nil {
		return nil, Salt{}, err
	}
	return &Index{Root: root, ByFileID: byFileID}, salt, nil
}
