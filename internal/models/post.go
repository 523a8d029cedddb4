package models

import "time"

// Post is a blog entry. Username is a snapshot of the author's name taken at
// creation; UserID is the owner and never changes.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageURL"`
	Username  string    `json:"username"`
	UserID    string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostPatch holds the fields of an update. A nil field was not provided.
type PostPatch struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageURL *string `json:"imageURL"`
}

// PostQuery selects a page of posts, newest first. UserID, when set, keeps
// only posts owned by that user.
type PostQuery struct {
	Search string
	UserID string
	Limit  int
	Offset int
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []Post `json:"posts"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
}
