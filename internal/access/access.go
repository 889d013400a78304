// Package access holds the per-operation authorization policy for claims.
package access

import (
	"errors"

	"github.com/templui/claimguard/internal/model"
)

var ErrForbidden = errors.New("not allowed to perform this action")

type Operation string

const (
	ListClaims   Operation = "claims.list"
	GetClaim     Operation = "claims.get"
	UpdateClaim  Operation = "claims.update"
	DeleteClaim  Operation = "claims.delete"
	CommentClaim Operation = "claims.comment"
)

// Predicate decides whether user may act on a resource owned by ownerID.
type Predicate func(user *model.User, ownerID string) bool

func isOwner(user *model.User, ownerID string) bool {
	return user.ID == ownerID
}

func hasRole(roles ...string) Predicate {
	return func(user *model.User, _ string) bool {
		return user.HasRole(roles...)
	}
}

func anyOf(preds ...Predicate) Predicate {
	return func(user *model.User, ownerID string) bool {
		for _, p := range preds {
			if p(user, ownerID) {
				return true
			}
		}
		return false
	}
}

// Policy maps each operation to its predicate. Roles are flat: each entry
// lists the roles it admits. Listing is owner-only for every role.
var Policy = map[Operation]Predicate{
	ListClaims:   isOwner,
	GetClaim:     anyOf(isOwner, hasRole(model.RoleAdmin)),
	UpdateClaim:  hasRole(model.RoleAgent, model.RoleAdmin),
	DeleteClaim:  anyOf(isOwner, hasRole(model.RoleAdmin)),
	CommentClaim: anyOf(isOwner, hasRole(model.RoleAgent, model.RoleAdmin)),
}

// Allowed reports whether the policy admits user for op. Unknown operations are denied.
func Allowed(op Operation, user *model.User, ownerID string) bool {
	if user == nil {
		return false
	}
	pred, ok := Policy[op]
	if !ok {
		return false
	}
	return pred(user, ownerID)
}

func Authorize(op Operation, user *model.User, ownerID string) error {
	if !Allowed(op, user, ownerID) {
		return ErrForbidden
	}
	return nil
}
