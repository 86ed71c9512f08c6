package repository

import (
	"sort"

	"github.com/cppla/blogcms/models"
)

// CommentNode is a top-level comment with its direct replies.
type CommentNode struct {
	Comment models.Comment   `json:"comment"`
	Replies []models.Comment `json:"replies"`
}

// BuildCommentTree groups comments one level deep. Top-level comments are ordered
// newest first; replies keep the order they were given in. Replies whose parent is
// missing or is itself a reply are dropped.
func BuildCommentTree(comments []models.Comment) []CommentNode {
	nodes := []CommentNode{}
	index := make(map[string]int)
	for _, c := range comments {
		if c.ParentID != nil {
			continue
		}
		index[c.ID] = len(nodes)
		nodes = append(nodes, CommentNode{Comment: c, Replies: []models.Comment{}})
	}
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			nodes[i].Replies = append(nodes[i].Replies, c)
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Comment.CreatedAt.After(nodes[j].Comment.CreatedAt)
	})
	return nodes
}
