package discussion

import (
	"context"

	"threadkit/internal/interaction"
	"threadkit/internal/models"
)

// ClickAuthor forwards to the caller's callback, or returns the author's profile
// path for the caller to navigate to.
func (s *Session) ClickAuthor(key models.Key) string {
	if s.callbacks.OnAuthorClick != nil {
		s.callbacks.OnAuthorClick(key)
		return ""
	}
	return "/@" + key.Author
}

// ClickReply forwards to the caller's callback, or opens the node's reply composer.
// Opening a composer on one node leaves the other nodes' composers alone.
func (s *Session) ClickReply(ctx context.Context, key models.Key) error {
	if s.callbacks.OnReplyClick != nil {
		s.callbacks.OnReplyClick(key)
		return nil
	}
	return s.update(ctx, key, func(f *interaction.Flags) {
		f.ComposerOpen = true
	})
}

// ClickVote forwards to the caller's callback, or opens the node's vote slider.
func (s *Session) ClickVote(ctx context.Context, key models.Key) error {
	if s.callbacks.OnVoteClick != nil {
		s.callbacks.OnVoteClick(key)
		return nil
	}
	return s.update(ctx, key, func(f *interaction.Flags) {
		f.VoteSliderOpen = true
	})
}

// ToggleCollapse hides or shows a node's subtree. The comments stay in the set.
func (s *Session) ToggleCollapse(ctx context.Context, key models.Key) error {
	return s.update(ctx, key, func(f *interaction.Flags) {
		f.Collapsed = !f.Collapsed
	})
}

// ToggleBody switches a long body between its truncated and full form.
func (s *Session) ToggleBody(ctx context.Context, key models.Key) error {
	return s.update(ctx, key, func(f *interaction.Flags) {
		f.BodyExpanded = !f.BodyExpanded
	})
}

func (s *Session) SetDraft(ctx context.Context, key models.Key, draft string) error {
	return s.update(ctx, key, func(f *interaction.Flags) {
		f.ComposerOpen = true
		f.Draft = draft
	})
}

func (s *Session) CloseComposer(ctx context.Context, key models.Key) error {
	return s.update(ctx, key, func(f *interaction.Flags) {
		f.ComposerOpen = false
		f.Draft = ""
	})
}

func (s *Session) CloseVoteSlider(ctx context.Context, key models.Key) error {
	return s.update(ctx, key, func(f *interaction.Flags) {
		f.VoteSliderOpen = false
	})
}

// Flags returns a node's interaction state.
func (s *Session) Flags(ctx context.Context, key models.Key) (interaction.Flags, error) {
	return s.state.Get(ctx, key.String())
}

func (s *Session) update(ctx context.Context, key models.Key, fn func(*interaction.Flags)) error {
	return s.state.Update(ctx, key.String(), fn)
}
