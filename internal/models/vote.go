package models

import (
	"time"
)

// ActiveVote is one entry of a comment's voter list, in the order the source reported it.
type ActiveVote struct {
	Voter   string    `json:"voter"`
	Percent int       `json:"percent"`
	Time    time.Time `json:"time"`
}
