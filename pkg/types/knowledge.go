// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Note is a short piece of domain context stored in the knowledge base and
// surfaced to the decomposer as a context hint.
type Note struct {
	// ID is a stable identifier, unique within the knowledge base.
	ID string `json:"id" yaml:"id"`

	// Topic is a short heading for the note.
	Topic string `json:"topic" yaml:"topic"`

	// Content is the note body. Hints are drawn from it.
	Content string `json:"content" yaml:"content"`

	// Tags are lowercase, hyphenated labels.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// NoteFile is the on-disk layout of a notes YAML file.
type NoteFile struct {
	Notes []Note `json:"notes" yaml:"notes"`
}
