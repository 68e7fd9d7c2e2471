package models

import "time"

// Post is a blog entry. Username is the author's, filled in on reads.
type Post struct {
	ID       int64     `json:"id" db:"id"`
	Title    string    `json:"title" db:"title"`
	Body     string    `json:"body" db:"body"`
	AuthorID int64     `json:"author_id" db:"author_id"`
	Created  time.Time `json:"created" db:"created"`
	Username string    `json:"username" db:"username"`
}
