package services

import (
	"testing"
	"time"

	"threadkit/internal/discussion"
	"threadkit/internal/models"
)

func TestMirrorRecordNormalizes(t *testing.T) {
	row := models.MirrorComment{
		Author:         "bob",
		Permlink:       "c1",
		ParentAuthor:   "alice",
		ParentPermlink: "post1",
		Depth:          "1",
		Body:           "hello",
		JSONMetadata:   "[object Object]",
		NetVotes:       3,
		Replies:        "carol/c2, dave/c3",
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	c, err := discussion.Normalize(mirrorRecord(row), nil)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if c.Depth != 1 || !c.HasDepth {
		t.Errorf("depth = %d", c.Depth)
	}
	if c.Metadata != nil {
		t.Errorf("display-string metadata should be dropped, got %v", c.Metadata)
	}
	if c.VoteCount != 3 {
		t.Errorf("vote count = %d", c.VoteCount)
	}
	if len(c.ReplyKeys) != 2 || c.ReplyKeys[1] != "dave/c3" {
		t.Errorf("reply keys = %v", c.ReplyKeys)
	}
	if !c.Created.Equal(row.CreatedAt) {
		t.Errorf("created = %v", c.Created)
	}
}

func TestMirrorRecordWithoutDepth(t *testing.T) {
	c, err := discussion.Normalize(mirrorRecord(models.MirrorComment{Author: "bob", Permlink: "c1"}), nil)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if c.HasDepth || c.ReplyKeys != nil {
		t.Errorf("unexpected %+v", c)
	}
}
