package models

import (
	"strings"
	"time"
)

// Key identifies a comment within a discussion ("author/permlink").
type Key struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
}

func (k Key) String() string {
	return k.Author + "/" + k.Permlink
}

func (k Key) IsZero() bool {
	return k.Author == "" && k.Permlink == ""
}

// ParseKey splits "author/permlink". A leading "@" on the author is dropped.
func ParseKey(s string) (Key, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	author, permlink, ok := strings.Cut(s, "/")
	if !ok || author == "" || permlink == "" {
		return Key{}, false
	}
	return Key{Author: author, Permlink: permlink}, true
}

// RawRecord is one decoded wire record before normalization.
type RawRecord map[string]any

// Comment is the canonical, normalized form of a discussion record.
type Comment struct {
	Author         string       `json:"author"`
	Permlink       string       `json:"permlink"`
	ParentAuthor   string       `json:"parent_author"`
	ParentPermlink string       `json:"parent_permlink"`
	Depth          int          `json:"depth"`
	HasDepth       bool         `json:"-"` // source carried a usable numeric depth
	Created        time.Time    `json:"created"`
	Body           string       `json:"body"`
	VoteCount      int          `json:"vote_count"`
	ActiveVoters   []ActiveVote `json:"active_votes"`
	ReplyKeys      []string     `json:"replies,omitempty"`  // nil when the source sent none
	Metadata       any          `json:"metadata,omitempty"` // nil when absent or unparseable
}

func (c Comment) Key() Key {
	return Key{Author: c.Author, Permlink: c.Permlink}
}

func (c Comment) ParentKey() Key {
	return Key{Author: c.ParentAuthor, Permlink: c.ParentPermlink}
}

// IsRoot reports whether the record declares no parent.
func (c Comment) IsRoot() bool {
	return c.ParentAuthor == "" && c.ParentPermlink == ""
}

// Tags returns the "tags" array from metadata, if any.
func (c Comment) Tags() []string {
	m, ok := c.Metadata.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["tags"].([]any)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if s, ok := t.(string); ok && s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}
