package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/templui/claimguard/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ByClaimID(ctx context.Context, claimID string) ([]*model.Comment, error)
	ByClaimIDs(ctx context.Context, claimIDs []string) (map[string][]*model.Comment, error)
}

type commentRepository struct {
	db DBTX
}

const commentColumns = `c.id, c.claim_id, c.author_id, u.name AS author, c.content, c.created_at`

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO comments (id, claim_id, author_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, c.ID, c.ClaimID, c.AuthorID, c.Content, c.CreatedAt)
	return err
}

// ByClaimID returns the comments on a claim, oldest first.
func (r *commentRepository) ByClaimID(ctx context.Context, claimID string) ([]*model.Comment, error) {
	comments := []*model.Comment{}
	query := `SELECT ` + commentColumns + ` FROM comments c JOIN users u ON u.id = c.author_id
	          WHERE c.claim_id = $1 ORDER BY c.created_at ASC, c.id ASC`

	err := r.db.SelectContext(ctx, &comments, query, claimID)
	if err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentRepository) ByClaimIDs(ctx context.Context, claimIDs []string) (map[string][]*model.Comment, error) {
	byClaim := make(map[string][]*model.Comment, len(claimIDs))
	if len(claimIDs) == 0 {
		return byClaim, nil
	}

	query, args, err := sqlx.In(`SELECT `+commentColumns+` FROM comments c JOIN users u ON u.id = c.author_id
	          WHERE c.claim_id IN (?) ORDER BY c.created_at ASC, c.id ASC`, claimIDs)
	if err != nil {
		return nil, err
	}

	var comments []*model.Comment
	err = r.db.SelectContext(ctx, &comments, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		byClaim[c.ClaimID] = append(byClaim[c.ClaimID], c)
	}
	return byClaim, nil
}
