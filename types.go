package texted

import (
	"github.com/eringen/texted/content"
	"github.com/eringen/texted/views"
)

// Kind separates posts from standalone pages. Each kind has its own directory.
type Kind int

const (
	KindPost Kind = iota + 1
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindPage:
		return "page"
	default:
		return "unknown"
	}
}

// PostList is the result of listing post previews.
type PostList struct {
	// Posts are newest first.
	Posts []*content.Content
	// Tags are counted over every post, most used first.
	Tags []views.TagCount
}
