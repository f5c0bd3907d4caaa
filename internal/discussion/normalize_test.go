package discussion

import (
	"math"
	"testing"
	"time"

	"threadkit/internal/models"
)

func TestNormalizeDepthCoercion(t *testing.T) {
	prev := &models.Comment{Author: "bob", Permlink: "c1", Depth: 2, HasDepth: true}
	cases := []struct {
		name     string
		depth    any
		prev     *models.Comment
		want     int
		wantHas  bool
		setDepth bool
	}{
		{"text", "3", nil, 3, true, true},
		{"number", float64(3), nil, 3, true, true},
		{"nan keeps previous", math.NaN(), prev, 2, true, true},
		{"nan defaults to zero", math.NaN(), nil, 0, false, true},
		{"absent keeps previous", nil, prev, 2, true, false},
		{"absent defaults to zero", nil, nil, 0, false, false},
		{"garbage text", "deep", nil, 0, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := models.RawRecord{"author": "bob", "permlink": "c1"}
			if tc.setDepth {
				raw["depth"] = tc.depth
			}
			c, err := Normalize(raw, tc.prev)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if c.Depth != tc.want || c.HasDepth != tc.wantHas {
				t.Errorf("depth = %d (known %v), want %d (known %v)", c.Depth, c.HasDepth, tc.want, tc.wantHas)
			}
		})
	}
}

func TestNormalizeMetadata(t *testing.T) {
	cases := []struct {
		name    string
		meta    any
		present bool
	}{
		{"object text", `{"tags":["hive","video"]}`, true},
		{"array text", `["a","b"]`, true},
		{"structured", map[string]any{"app": "3speak"}, true},
		{"display string fallback", "[object Object]", false},
		{"plain text", "hello", false},
		{"broken json", `{"tags":`, false},
		{"absent", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := models.RawRecord{"author": "bob", "permlink": "c1", "json_metadata": tc.meta}
			c, err := Normalize(raw, nil)
			if err != nil {
				t.Fatalf("metadata must never fail normalization: %v", err)
			}
			if (c.Metadata != nil) != tc.present {
				t.Errorf("metadata present = %v, want %v", c.Metadata != nil, tc.present)
			}
		})
	}
}

func TestNormalizeFields(t *testing.T) {
	raw := models.RawRecord{
		"author":          "bob",
		"permlink":        "c1",
		"parent_author":   "alice",
		"parent_permlink": "post1",
		"depth":           "1",
		"created":         "2024-03-01T10:00:00",
		"body":            "Nice one #hive here\n\n#hive #3speak",
		"net_votes":       float64(-2),
		"active_votes": []any{
			map[string]any{"voter": "carol", "percent": "5000", "time": "2024-03-01T10:05:00"},
			map[string]any{"voter": "dave", "percent": float64(10000)},
			"junk",
		},
		"replies":       []any{"carol/c2", "nonsense"},
		"json_metadata": `{"tags":["hive"]}`,
	}
	c, err := Normalize(raw, nil)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if c.ParentAuthor != "alice" || c.ParentPermlink != "post1" {
		t.Errorf("parent = %s/%s", c.ParentAuthor, c.ParentPermlink)
	}
	if want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC); !c.Created.Equal(want) {
		t.Errorf("created = %v, want %v", c.Created, want)
	}
	if c.Body != "Nice one #hive here" {
		t.Errorf("body = %q", c.Body)
	}
	if c.VoteCount != 0 {
		t.Errorf("negative vote count must clamp to 0, got %d", c.VoteCount)
	}
	if len(c.ActiveVoters) != 2 || c.ActiveVoters[0].Voter != "carol" || c.ActiveVoters[0].Percent != 5000 {
		t.Errorf("active voters = %+v", c.ActiveVoters)
	}
	if len(c.ReplyKeys) != 1 || c.ReplyKeys[0] != "carol/c2" {
		t.Errorf("reply keys = %v", c.ReplyKeys)
	}
	if tags := c.Tags(); len(tags) != 1 || tags[0] != "hive" {
		t.Errorf("tags = %v", tags)
	}
}

func TestNormalizeVoteCountFallsBackToVoters(t *testing.T) {
	raw := models.RawRecord{
		"author":       "bob",
		"permlink":     "c1",
		"active_votes": []any{map[string]any{"voter": "a"}, map[string]any{"voter": "b"}},
	}
	c, _ := Normalize(raw, nil)
	if c.VoteCount != 2 {
		t.Errorf("vote count = %d, want 2", c.VoteCount)
	}
	if c.ReplyKeys != nil {
		t.Errorf("reply keys should be absent, got %v", c.ReplyKeys)
	}
}

func TestNormalizeAllSkipsMalformedAndDedupes(t *testing.T) {
	raws := []models.RawRecord{
		{"author": "alice", "permlink": "post1", "depth": 0},
		{"permlink": "no-author"},
		{"author": "bob", "permlink": "c1", "depth": "1", "body": "first"},
		{"author": "carol", "permlink": "c2", "depth": 2},
		{"author": "bob", "permlink": "c1", "depth": "1", "body": "edited"},
	}
	set := NormalizeAll(raws, nil)
	if len(set) != 3 {
		t.Fatalf("expected 3 records, got %d", len(set))
	}
	if set[1].Author != "bob" || set[1].Body != "edited" {
		t.Errorf("duplicate should keep position and last value, got %+v", set[1])
	}
}

func TestNormalizeAllPreservesPreviousDepth(t *testing.T) {
	previous := map[string]models.Comment{
		"bob/c1": {Author: "bob", Permlink: "c1", Depth: 1, HasDepth: true},
	}
	set := NormalizeAll([]models.RawRecord{{"author": "bob", "permlink": "c1", "depth": "n/a"}}, previous)
	if set[0].Depth != 1 || !set[0].HasDepth {
		t.Errorf("expected previous depth, got %d", set[0].Depth)
	}
}
