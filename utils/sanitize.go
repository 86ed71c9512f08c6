package utils

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// postPolicy is the UGC set plus syntax-highlighting classes on code blocks.
var postPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[a-zA-Z0-9+#-]+$`)).OnElements("code", "pre")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// commentPolicy keeps inline formatting and links only.
var commentPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "b", "strong", "i", "em", "code", "blockquote")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}()

// SanitizePost cleans the HTML body of a post.
func SanitizePost(input string) string {
	return postPolicy.Sanitize(input)
}

// SanitizeComment cleans reader-submitted comment HTML. Images, headings and tables are stripped.
func SanitizeComment(input string) string {
	return commentPolicy.Sanitize(input)
}
