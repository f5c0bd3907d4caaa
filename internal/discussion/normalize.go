package discussion

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"threadkit/internal/models"
	"threadkit/internal/utils"
)

// ErrMalformedRecord marks a raw record that cannot become a Comment at all.
var ErrMalformedRecord = errors.New("malformed record")

// Hive returns timestamps without a zone; they are UTC.
const hiveTimeLayout = "2006-01-02T15:04:05"

// Normalize turns one raw record into a canonical Comment. prev is the previously
// normalized value of the same record, if any; its depth survives a record whose
// depth is unusable. Metadata problems are logged and never fail the record.
func Normalize(raw models.RawRecord, prev *models.Comment) (models.Comment, error) {
	c := models.Comment{
		Author:         str(raw, "author"),
		Permlink:       str(raw, "permlink"),
		ParentAuthor:   str(raw, "parent_author", "parentAuthor"),
		ParentPermlink: str(raw, "parent_permlink", "parentPermlink"),
	}
	if c.Author == "" || c.Permlink == "" {
		return models.Comment{}, fmt.Errorf("%w: missing author or permlink", ErrMalformedRecord)
	}

	if d, ok := utils.ToInt(field(raw, "depth")); ok && d >= 0 {
		c.Depth, c.HasDepth = d, true
	} else if prev != nil {
		c.Depth, c.HasDepth = prev.Depth, prev.HasDepth
	}

	c.Created = parseTime(field(raw, "created", "created_at"))
	c.Body = utils.StripTagFooter(str(raw, "body"))
	c.ActiveVoters = parseVotes(field(raw, "active_votes", "activeVoters"))
	c.VoteCount = len(c.ActiveVoters)
	if n, ok := utils.ToInt(field(raw, "vote_count", "net_votes", "children_votes")); ok {
		c.VoteCount = max(n, 0)
	}
	c.ReplyKeys = parseReplyKeys(field(raw, "replies", "replyKeys"))

	meta, err := parseMetadata(field(raw, "json_metadata", "metadata", "json_metadata_parsed"))
	if err != nil {
		log.Printf("[normalize] %s/%s: metadata dropped: %v", c.Author, c.Permlink, err)
	}
	c.Metadata = meta

	return c, nil
}

// NormalizeAll normalizes a fetched batch. Records that fail are logged and skipped;
// duplicates keep their first position and the last value. previous maps
// "author/permlink" to the prior normalized record.
func NormalizeAll(raws []models.RawRecord, previous map[string]models.Comment) []models.Comment {
	out := make([]models.Comment, 0, len(raws))
	index := make(map[string]int, len(raws))
	for i, raw := range raws {
		var prev *models.Comment
		if p, ok := previous[rawKey(raw)]; ok {
			prev = &p
		}
		c, err := Normalize(raw, prev)
		if err != nil {
			log.Printf("[normalize] record %d skipped: %v", i, err)
			continue
		}
		k := c.Key().String()
		if at, dup := index[k]; dup {
			out[at] = c
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	return out
}

func rawKey(raw models.RawRecord) string {
	return str(raw, "author") + "/" + str(raw, "permlink")
}

func field(raw models.RawRecord, names ...string) any {
	for _, n := range names {
		if v, ok := raw[n]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(raw models.RawRecord, names ...string) string {
	switch v := field(raw, names...).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		s := strings.TrimSpace(t)
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts.UTC()
		}
		if ts, err := time.ParseInLocation(hiveTimeLayout, s, time.UTC); err == nil {
			return ts
		}
	default:
		if secs, ok := utils.ToInt(v); ok && secs > 0 {
			return time.Unix(int64(secs), 0).UTC()
		}
	}
	return time.Time{}
}

func parseVotes(v any) []models.ActiveVote {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	votes := make([]models.ActiveVote, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		vote := models.ActiveVote{Voter: str(m, "voter")}
		if vote.Voter == "" {
			continue
		}
		if p, ok := utils.ToInt(field(m, "percent")); ok {
			vote.Percent = p
		}
		vote.Time = parseTime(field(m, "time"))
		votes = append(votes, vote)
	}
	return votes
}

func parseReplyKeys(v any) []string {
	var keys []string
	switch list := v.(type) {
	case []any:
		keys = make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				if k, ok := models.ParseKey(s); ok {
					keys = append(keys, k.String())
				}
			}
		}
	case []string:
		keys = make([]string, 0, len(list))
		for _, s := range list {
			if k, ok := models.ParseKey(s); ok {
				keys = append(keys, k.String())
			}
		}
	default:
		return nil
	}
	return keys
}

// parseMetadata only attempts to decode text that looks like a whole JSON object or
// array, or a value that is already structured. Anything else is reported and left absent.
func parseMetadata(v any) (any, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case map[string]any, []any:
		return m, nil
	case string:
		s := strings.TrimSpace(m)
		if s == "" {
			return nil, nil
		}
		if !(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) &&
			!(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) {
			return nil, fmt.Errorf("not a JSON object or array: %.40q", s)
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported metadata type %T", v)
	}
}
