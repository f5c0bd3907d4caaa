package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"threadkit/internal/discussion"
	"threadkit/internal/middleware"
	"threadkit/internal/models"
	"threadkit/internal/services"

	"github.com/gin-gonic/gin"
)

type DiscussionHandler struct {
	sessions *services.SessionRegistry
	writer   *services.Writer
}

func NewDiscussionHandler(sessions *services.SessionRegistry, writer *services.Writer) *DiscussionHandler {
	return &DiscussionHandler{sessions: sessions, writer: writer}
}

func rootParam(c *gin.Context) (models.Key, bool) {
	key := models.Key{
		Author:   strings.TrimPrefix(c.Param("author"), "@"),
		Permlink: c.Param("permlink"),
	}
	return key, !key.IsZero()
}

// session returns the viewer's session with root open. A failed fetch leaves the
// session in its failed state for the caller to report.
func (h *DiscussionHandler) session(c *gin.Context, root models.Key) *discussion.Session {
	sess := h.sessions.Get(middleware.ViewerID(c))
	ctx := c.Request.Context()

	var err error
	if sess.Root() != root {
		err = sess.Open(ctx, root)
	} else if status, _ := sess.Status(); status != discussion.StatusReady {
		err = sess.Refresh(ctx)
	}
	if err != nil && !errors.Is(err, discussion.ErrStaleFetch) {
		log.Printf("[discussion] load %s: %v", root, err)
	}
	return sess
}

// Show renders the thread. ?q= filters it, ?focus=author/permlink opens the
// expanded view of a reply whose descendants were cut off by the depth cap.
func (h *DiscussionHandler) Show(c *gin.Context) {
	root, ok := rootParam(c)
	if !ok {
		RenderError(c, http.StatusBadRequest, "Invalid discussion")
		return
	}
	sess := h.session(c, root)
	ctx := c.Request.Context()
	query := strings.TrimSpace(c.Query("q"))

	var (
		view *discussion.ThreadView
		err  error
	)
	focus, focused := models.ParseKey(c.Query("focus"))
	if focused {
		view, err = sess.ExpandedView(ctx, focus, query)
	} else {
		view, err = sess.View(ctx, query)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"view":        view,
			"reconciling": sess.Reconciling(),
		})
		return
	}

	Render(c, http.StatusOK, "discussion/thread.html", gin.H{
		"View":        view,
		"Root":        root,
		"Query":       query,
		"Focused":     focused,
		"Reconciling": sess.Reconciling(),
	})
}

// Refresh refetches the discussion past any cached copy; it is also the retry
// after a failed fetch.
func (h *DiscussionHandler) Refresh(c *gin.Context) {
	root, ok := rootParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_discussion", "invalid discussion")
		return
	}
	sess := h.sessions.Get(middleware.ViewerID(c))
	ctx := c.Request.Context()

	var err error
	if sess.Root() != root {
		err = sess.Open(ctx, root)
	} else {
		err = sess.Reload(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	comments, _ := sess.Comments()
	c.JSON(http.StatusOK, gin.H{"status": "ready", "count": len(comments)})
}

// NodeAction applies one interaction to a reply: collapse, body, reply,
// cancel-reply, vote-slider, cancel-vote or draft.
func (h *DiscussionHandler) NodeAction(c *gin.Context) {
	root, ok := rootParam(c)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_discussion", "invalid discussion")
		return
	}
	key := models.Key{Author: strings.TrimPrefix(c.Param("nauthor"), "@"), Permlink: c.Param("npermlink")}
	if key.IsZero() {
		writeError(c, http.StatusBadRequest, "invalid_comment", "invalid comment")
		return
	}
	sess := h.session(c, root)
	ctx := c.Request.Context()

	if _, err := sess.Comment(key); err != nil {
		respondError(c, err)
		return
	}

	var err error
	switch c.Param("action") {
	case "collapse":
		err = sess.ToggleCollapse(ctx, key)
	case "body":
		err = sess.ToggleBody(ctx, key)
	case "reply":
		err = sess.ClickReply(ctx, key)
	case "cancel-reply":
		err = sess.CloseComposer(ctx, key)
	case "vote-slider":
		err = sess.ClickVote(ctx, key)
	case "cancel-vote":
		err = sess.CloseVoteSlider(ctx, key)
	case "draft":
		err = sess.SetDraft(ctx, key, c.PostForm("draft"))
	case "author":
		c.JSON(http.StatusOK, gin.H{"location": sess.ClickAuthor(key)})
		return
	default:
		writeError(c, http.StatusNotFound, "unknown_action", "unknown action")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	flags, err := sess.Flags(ctx, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key.String(), "flags": flags})
}

type voteForm struct {
	Author   string `json:"author" form:"author"`
	Permlink string `json:"permlink" form:"permlink"`
	Weight   int    `json:"weight" form:"weight"`
}

type commentForm struct {
	ParentAuthor   string `json:"parent_author" form:"parent_author"`
	ParentPermlink string `json:"parent_permlink" form:"parent_permlink"`
	Body           string `json:"body" form:"body"`
}

// Vote casts a vote from the viewer on a comment of the open discussion.
func (h *DiscussionHandler) Vote(c *gin.Context) {
	var form voteForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_submission", "invalid vote")
		return
	}
	sess, ok := h.openSession(c)
	if !ok {
		return
	}
	key := models.Key{Author: form.Author, Permlink: form.Permlink}
	if err := h.writer.Vote(c.Request.Context(), sess, key, form.Weight, middleware.CurrentCredentials(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reconciling", "key": key.String()})
}

// Comment posts a reply from the viewer under a comment of the open discussion.
func (h *DiscussionHandler) Comment(c *gin.Context) {
	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_submission", "invalid reply")
		return
	}
	sess, ok := h.openSession(c)
	if !ok {
		return
	}
	parent := models.Key{Author: form.ParentAuthor, Permlink: form.ParentPermlink}
	if err := h.writer.Comment(c.Request.Context(), sess, parent, form.Body, middleware.CurrentCredentials(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reconciling", "parent": parent.String()})
}

func (h *DiscussionHandler) openSession(c *gin.Context) (*discussion.Session, bool) {
	sess := h.sessions.Get(middleware.ViewerID(c))
	if sess.Root().IsZero() {
		writeError(c, http.StatusConflict, "no_discussion", "open a discussion first")
		return nil, false
	}
	return sess, true
}
