package upstream

import "time"

// Category is a post category as returned by the content API.
type Category struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Post is a blog post as returned by the content API.
type Post struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CategoryID int64     `json:"category_id"`
	ImageURL   string    `json:"img_url"`
	Category   *Category `json:"category,omitempty"`
}

// PostPage is one page of the post listing.
type PostPage struct {
	Data  []Post `json:"data"`
	Total int    `json:"total"`
}
