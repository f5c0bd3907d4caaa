package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"threadkit/internal/interaction"
	"threadkit/internal/models"
)

// Writer submits votes and replies for a viewer and drives each node's write phase:
// idle, submitting, then reconciling until the delayed refetch ran.
type Writer struct {
	mutator    Mutator
	reconciler *Reconciler
}

func NewWriter(mutator Mutator, reconciler *Reconciler) *Writer {
	return &Writer{mutator: mutator, reconciler: reconciler}
}

// Vote casts a vote of weightPercent (-100..100) on key.
func (w *Writer) Vote(ctx context.Context, target Refresher, key models.Key, weightPercent int, creds models.Credentials) error {
	if creds.IsZero() {
		return ErrUnauthenticated
	}
	if weightPercent < -100 || weightPercent > 100 {
		return fmt.Errorf("%w: vote weight %d outside -100..100", ErrInvalidSubmission, weightPercent)
	}
	if key.IsZero() {
		return fmt.Errorf("%w: missing comment", ErrInvalidSubmission)
	}

	state := target.State()
	if err := w.begin(ctx, state, key); err != nil {
		return err
	}

	err := w.mutator.SubmitVote(ctx, key.Author, key.Permlink, weightPercent, creds)
	if err != nil {
		return w.fail(ctx, state, key, "vote", err, nil)
	}

	if err := state.Update(ctx, key.String(), func(f *interaction.Flags) {
		f.Phase = interaction.PhaseReconciling
		f.Voted = true
		f.VoteSliderOpen = false
		f.LastError = ""
	}); err != nil {
		log.Printf("[writer] record vote on %s: %v", key, err)
	}
	w.reconciler.Schedule(target, key)
	return nil
}

// Comment posts body as a reply to parent. On failure body is kept as the draft
// of a reopened composer so the user can retry.
func (w *Writer) Comment(ctx context.Context, target Refresher, parent models.Key, body string, creds models.Credentials) error {
	if creds.IsZero() {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: empty reply", ErrInvalidSubmission)
	}
	if parent.IsZero() {
		return fmt.Errorf("%w: missing parent", ErrInvalidSubmission)
	}

	state := target.State()
	if err := w.begin(ctx, state, parent); err != nil {
		return err
	}

	err := w.mutator.SubmitComment(ctx, parent.Author, parent.Permlink, body, creds)
	if err != nil {
		return w.fail(ctx, state, parent, "comment", err, func(f *interaction.Flags) {
			f.ComposerOpen = true
			f.Draft = body
		})
	}

	if err := state.Update(ctx, parent.String(), func(f *interaction.Flags) {
		f.Phase = interaction.PhaseReconciling
		f.ComposerOpen = false
		f.Draft = ""
		f.LastError = ""
	}); err != nil {
		log.Printf("[writer] record reply to %s: %v", parent, err)
	}
	w.reconciler.Schedule(target, parent)
	return nil
}

func (w *Writer) begin(ctx context.Context, state interaction.Store, key models.Key) error {
	busy := false
	// the store may run this more than once
	err := state.Update(ctx, key.String(), func(f *interaction.Flags) {
		busy = f.Busy()
		if busy {
			return
		}
		f.Phase = interaction.PhaseSubmitting
		f.LastError = ""
	})
	if err != nil {
		return fmt.Errorf("interaction state: %w", err)
	}
	if busy {
		return ErrSubmitInFlight
	}
	return nil
}

func (w *Writer) fail(ctx context.Context, state interaction.Store, key models.Key, op string, cause error, keep func(*interaction.Flags)) error {
	subErr := &SubmitError{Op: op, Message: cause.Error()}
	var existing *SubmitError
	if errors.As(cause, &existing) {
		subErr = existing
	}
	log.Printf("[writer] %s on %s rejected: %v", op, key, cause)
	if err := state.Update(ctx, key.String(), func(f *interaction.Flags) {
		f.Phase = interaction.PhaseIdle
		f.LastError = subErr.Message
		if keep != nil {
			keep(f)
		}
	}); err != nil {
		log.Printf("[writer] record failure on %s: %v", key, err)
	}
	return subErr
}
