package models

import (
	"time"
)

// MirrorComment is a row of the Postgres discussion mirror. Depth is kept as text
// because upstream indexers disagree on its encoding.
type MirrorComment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RootAuthor     string    `gorm:"size:16;not null;index:idx_mirror_root" json:"root_author"`
	RootPermlink   string    `gorm:"size:255;not null;index:idx_mirror_root" json:"root_permlink"`
	Author         string    `gorm:"size:16;not null;uniqueIndex:idx_mirror_key" json:"author"`
	Permlink       string    `gorm:"size:255;not null;uniqueIndex:idx_mirror_key" json:"permlink"`
	ParentAuthor   string    `gorm:"size:16" json:"parent_author"`
	ParentPermlink string    `gorm:"size:255" json:"parent_permlink"`
	Depth          string    `gorm:"size:8" json:"depth"`
	Body           string    `gorm:"type:text" json:"body"`
	JSONMetadata   string    `gorm:"type:text" json:"json_metadata"`
	NetVotes       int       `gorm:"default:0" json:"net_votes"`
	Replies        string    `gorm:"type:text" json:"replies"` // comma separated author/permlink list
	CreatedAt      time.Time `json:"created_at"`
}

func (MirrorComment) TableName() string {
	return "discussion_mirror"
}
