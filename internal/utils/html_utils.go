package utils

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent lazy-loads images without leaking the referrer and turns
// bare video links into embedded players.
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	// a paragraph that is only a video link becomes a player
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, "http") || strings.Contains(text, " ") {
			return
		}
		if src := videoEmbedURL(text); src != "" {
			s.ReplaceWithHtml(`<div class="video-container"><iframe src="` + template.HTMLEscapeString(src) + `" frameborder="0" allowfullscreen allow="autoplay; encrypted-media; picture-in-picture"></iframe></div>`)
		}
	})

	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}

// videoEmbedURL maps 3Speak and YouTube watch links to their embed players.
func videoEmbedURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Host, "www.")
	switch {
	case host == "3speak.tv" && u.Path == "/watch":
		v := u.Query().Get("v")
		if _, ok := splitAuthorPermlink(v); ok {
			return "https://3speak.tv/embed?v=" + url.QueryEscape(v)
		}
	case host == "youtube.com" && u.Path == "/watch":
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube.com/embed/" + url.PathEscape(id)
		}
	case host == "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://www.youtube.com/embed/" + url.PathEscape(id)
		}
	}
	return ""
}

func splitAuthorPermlink(v string) ([2]string, bool) {
	author, permlink, ok := strings.Cut(v, "/")
	if !ok || author == "" || permlink == "" {
		return [2]string{}, false
	}
	return [2]string{author, permlink}, true
}
