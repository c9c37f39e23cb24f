package feed

import (
	"strconv"
	"strings"
	"time"
)

const (
	pageTTL   = time.Hour
	searchTTL = 2 * time.Minute
)

func feedKey(page int) string        { return "feed:" + strconv.Itoa(page) }
func postKey(id string) string       { return "post:" + id }
func likesKey(id string) string      { return "likes:" + id }
func commentsKey(id string) string   { return "comments:" + id }
func searchKey(query string) string  { return "search:" + normalizeQuery(query) }
func normalizeQuery(q string) string { return strings.ToLower(strings.TrimSpace(q)) }

// pagesOfTag collects the feed pages a post was rendered in.
func pagesOfTag(postID string) string { return "pages-of:" + postID }
