package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"threadkit/internal/discussion"
	"threadkit/internal/models"
	"threadkit/internal/services"
	"threadkit/internal/utils"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"
)

const ThreadCtlVersion = "0.1.0"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Thread control.

Prints a Hive discussion as a bounded reply tree.

Usage:
    threadctl show <author> <permlink> [--node=<url>] [--query=<q>]
        [--max-depth=<n>] [--focus=<key>] [--timeout=<seconds>]
    threadctl -h | --help
    threadctl --version

Options:
    -h --help               Show this screen.
    --version               Show version.
    --node=<url>            Hive API node [default: https://api.hive.blog].
    --query=<q>             Only show replies whose body or author contains q.
    --max-depth=<n>         Levels printed before replies are summarized [default: 4].
    --focus=<key>           Print the replies under author/permlink instead of the root.
    --timeout=<seconds>     Fetch timeout [default: 30].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], ThreadCtlVersion)
	if err != nil {
		panic(err)
	}

	if show_, _ := opts.Bool("show"); show_ {
		if err := show(opts); err != nil {
			Err.Fatal(err)
		}
	}
}

func show(opts docopt.Opts) error {
	author, _ := opts.String("<author>")
	permlink, _ := opts.String("<permlink>")
	node, _ := opts.String("--node")
	query, _ := opts.String("--query")
	maxDepth, _ := opts.Int("--max-depth")
	timeout, _ := opts.Int("--timeout")

	root, ok := models.ParseKey(author + "/" + permlink)
	if !ok {
		return fmt.Errorf("invalid discussion %s/%s", author, permlink)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	sess := discussion.NewSession(discussion.Config{
		Fetcher:  services.NewHiveClient(node),
		MaxDepth: maxDepth,
	})
	if err := sess.Open(ctx, root); err != nil {
		return err
	}

	var (
		view *discussion.ThreadView
		err  error
	)
	if focus, _ := opts.String("--focus"); focus != "" {
		key, ok := models.ParseKey(focus)
		if !ok {
			return fmt.Errorf("invalid --focus %q, want author/permlink", focus)
		}
		view, err = sess.ExpandedView(ctx, key, query)
	} else {
		view, err = sess.View(ctx, query)
	}
	if err != nil {
		return err
	}

	printThread(os.Stdout, view, terminalWidth())
	return nil
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w
	}
	return 100
}

func printThread(w io.Writer, view *discussion.ThreadView, width int) {
	fmt.Fprintf(w, "@%s/%s  (%d replies)\n", view.Root.Author, view.Root.Permlink, view.Total)
	for _, n := range view.Nodes {
		printNode(w, n, width)
	}
}

func printNode(w io.Writer, n *discussion.Node, width int) {
	indent := strings.Repeat("  ", n.Level)
	fmt.Fprintf(w, "%s@%s · %d votes\n", indent, n.Comment.Author, n.Comment.VoteCount)

	room := width - len(indent) - 2
	if room < 10 {
		room = 10
	}
	if line := firstLine(n.Comment.Body); line != "" {
		fmt.Fprintf(w, "%s  %s\n", indent, utils.Truncate(line, room))
	}
	for _, child := range n.Children {
		printNode(w, child, width)
	}
	if n.HiddenCount > 0 {
		fmt.Fprintf(w, "%s  … %d more replies (--focus=%s)\n", indent, n.HiddenCount, n.Escape)
	}
}

func firstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
