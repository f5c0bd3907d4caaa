package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"threadkit/internal/models"

	"gorm.io/gorm"
)

// MirrorFetcher reads discussions from the Postgres mirror kept by an indexer.
type MirrorFetcher struct {
	db *gorm.DB
}

func NewMirrorFetcher(db *gorm.DB) *MirrorFetcher {
	return &MirrorFetcher{db: db}
}

func (f *MirrorFetcher) FetchDiscussion(ctx context.Context, author, permlink string) ([]models.RawRecord, error) {
	var rows []models.MirrorComment
	err := f.db.WithContext(ctx).
		Where("(root_author = ? AND root_permlink = ?) OR (author = ? AND permlink = ?)", author, permlink, author, permlink).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query mirror: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("discussion %s/%s not mirrored", author, permlink)
	}
	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, mirrorRecord(row))
	}
	return records, nil
}

// mirrorRecord converts a row to the wire shape the normalizer expects. Text fields
// are passed through untouched so the normalizer sees the mirror's own encoding.
func mirrorRecord(row models.MirrorComment) models.RawRecord {
	r := models.RawRecord{
		"author":          row.Author,
		"permlink":        row.Permlink,
		"parent_author":   row.ParentAuthor,
		"parent_permlink": row.ParentPermlink,
		"body":            row.Body,
		"net_votes":       row.NetVotes,
		"created":         row.CreatedAt.UTC().Format(time.RFC3339),
	}
	if row.Depth != "" {
		r["depth"] = row.Depth
	}
	if row.JSONMetadata != "" {
		r["json_metadata"] = row.JSONMetadata
	}
	if row.Replies != "" {
		var replies []any
		for _, k := range strings.Split(row.Replies, ",") {
			if k = strings.TrimSpace(k); k != "" {
				replies = append(replies, k)
			}
		}
		r["replies"] = replies
	}
	return r
}
