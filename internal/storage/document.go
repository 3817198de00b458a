package storage

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Blob is the on-disk form of an encrypted secret version: base64-text
// ciphertext (AEAD tag included) and nonce.
type Blob struct {
	Ciphertext string `yaml:"ciphertext"`
	Nonce      string `yaml:"nonce"`
}

// Version is one historical snapshot of a key's encrypted value.
type Version struct {
	Version   uint32         `yaml:"version"`
	Encrypted Blob           `yaml:"encrypted_value"`
	Timestamp string         `yaml:"timestamp"`
	Metadata  map[string]any `yaml:"metadata"`
}

// KeyEntry is one named secret's full version history.
type KeyEntry struct {
	Name           string
	CurrentVersion uint32
	Versions       []Version
}

// yamlKeyBody is the YAML shape of a KeyEntry's value (the Name lives in
// the enclosing mapping key, not in the body).
type yamlKeyBody struct {
	CurrentVersion uint32    `yaml:"current_version"`
	Versions       []Version `yaml:"versions"`
}

// Document is the in-memory form of the vault file: a mapping from key
// name to KeyEntry that preserves insertion order across a save/load
// round trip, since a bare Go map does not.
type Document struct {
	entries []*KeyEntry
	index   map[string]int
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// Get returns the entry for name, if present.
func (d *Document) Get(name string) (*KeyEntry, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.entries[i], true
}

// Put inserts or replaces the entry for entry.Name. A new name is
// appended after the existing entries, preserving insertion order.
func (d *Document) Put(entry *KeyEntry) {
	if i, ok := d.index[entry.Name]; ok {
		d.entries[i] = entry
		return
	}
	d.index[entry.Name] = len(d.entries)
	d.entries = append(d.entries, entry)
}

// Delete removes the entry for name. Reports whether it existed.
func (d *Document) Delete(name string) bool {
	i, ok := d.index[name]
	if !ok {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, name)
	for n, idx := range d.index {
		if idx > i {
			d.index[n] = idx - 1
		}
	}
	return true
}

// Keys returns key names in insertion order.
func (d *Document) Keys() []string {
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.Name
	}
	return names
}

// Len reports the number of keys in the document.
func (d *Document) Len() int {
	return len(d.entries)
}

// MarshalYAML renders the document as an ordered YAML mapping node,
// rather than letting yaml.v3 marshal a Go map (which sorts keys
// alphabetically and would discard insertion order).
func (d *Document) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range d.entries {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(e.Name); err != nil {
			return nil, fmt.Errorf("encode key %q: %w", e.Name, err)
		}
		valNode := &yaml.Node{}
		body := yamlKeyBody{CurrentVersion: e.CurrentVersion, Versions: e.Versions}
		if err := valNode.Encode(body); err != nil {
			return nil, fmt.Errorf("encode entry %q: %w", e.Name, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML decodes an ordered mapping node back into a Document,
// walking Content pairs in file order rather than via a Go map.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	doc := NewDocument()
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("vault document: expected a mapping at the top level")
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("vault document: invalid key: %w", err)
		}
		var body yamlKeyBody
		if err := value.Content[i+1].Decode(&body); err != nil {
			return fmt.Errorf("vault document: invalid entry %q: %w", name, err)
		}
		doc.Put(&KeyEntry{Name: name, CurrentVersion: body.CurrentVersion, Versions: body.Versions})
	}
	*d = *doc
	return nil
}

// ToYAML serializes the document to its stable on-disk text form.
func (d *Document) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// DocumentFromYAML parses the on-disk text form. Empty input yields an
// empty document rather than an error.
func DocumentFromYAML(data []byte) (*Document, error) {
	if len(data) == 0 {
		return NewDocument(), nil
	}
	doc := NewDocument()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
