package auth

import (
	"context"

	"bizqueue/pkg/model"
)

type Role string

const (
	RoleUser          Role = "user"
	RoleBusinessAdmin Role = "business_admin"
)

// Principal is the verified caller. The zero value is a guest.
type Principal struct {
	UserID     string
	Role       Role
	BusinessID string
}

func (p Principal) IsGuest() bool {
	return p.UserID == ""
}

// CanManage reports whether p acts for businessID.
func (p Principal) CanManage(businessID string) bool {
	return p.Role == RoleBusinessAdmin && p.BusinessID != "" && p.BusinessID == businessID
}

func (p Principal) Requester() model.Requester {
	if p.IsGuest() {
		return model.Guest()
	}
	return model.User(p.UserID)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the guest principal when none was attached.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Principal{}
}
