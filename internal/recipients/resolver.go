package recipients

import (
	"context"

	"github.com/google/uuid"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	pkgerrors "github.com/prepdeckhq/prepdeck-backend/pkg/errors"
)

// memberLister defines the membership queries the resolver depends on.
type memberLister interface {
	ListActiveUserIDs(ctx context.Context, tenantID uuid.UUID, roles ...enums.MemberRole) ([]uuid.UUID, error)
}

// Resolver turns a targeting policy into a deduplicated set of user ids.
type Resolver struct {
	members memberLister
}

// NewResolver wires the resolver's membership dependency.
func NewResolver(members memberLister) (*Resolver, error) {
	if members == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "membership repository required")
	}
	return &Resolver{members: members}, nil
}

// Resolve returns the user ids targeted by the given recipients mode. A
// custom mode with an empty id list falls back to owners and managers so an
// orphaned schedule never targets nobody. Results are deduplicated and
// preserve first-seen order.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, mode enums.RecipientsMode, custom []uuid.UUID) ([]uuid.UUID, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	if mode == enums.RecipientsCustom && len(custom) > 0 {
		return dedupe(custom), nil
	}

	roles := []enums.MemberRole{enums.MemberRoleOwner, enums.MemberRoleManager}
	if mode == enums.RecipientsAll {
		roles = append(roles, enums.MemberRoleStaff)
	}

	ids, err := r.members.ListActiveUserIDs(ctx, tenantID, roles...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tenant members")
	}
	return dedupe(ids), nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
