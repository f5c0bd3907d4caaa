package utils

import (
	"regexp"
	"testing"
)

func TestNewPermlink(t *testing.T) {
	valid := regexp.MustCompile(`^re-[a-z0-9-]+$`)
	p := NewPermlink("My Video_Post!")
	if !valid.MatchString(p) {
		t.Fatalf("invalid permlink %q", p)
	}
	if p[:len("re-my-video-post-")] != "re-my-video-post-" {
		t.Errorf("unexpected prefix in %q", p)
	}
	if NewPermlink("x") == NewPermlink("x") {
		t.Error("permlinks should be unique")
	}
}
