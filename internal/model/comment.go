package model

import "time"

type Comment struct {
	ID        string    `db:"id"`
	ClaimID   string    `db:"claim_id"`
	AuthorID  string    `db:"author_id"`
	Author    string    `db:"author"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
