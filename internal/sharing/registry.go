// Package sharing is the collaboration registry: it decides who may see and
// change a list and records grants for users other than the owner.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/notifications"
)

type ListReader interface {
	GetByID(ctx context.Context, id int64) (todo.List, error)
}

type GrantStore interface {
	GetGrant(ctx context.Context, listID, userID int64) (collab.Grant, error)
	// CreateGrant inserts g unless a grant for the same (list, user) pair
	// exists. An existing grant is never modified.
	CreateGrant(ctx context.Context, g collab.Grant) (collab.Grant, bool, error)
	ListGrants(ctx context.Context, listID int64) ([]collab.Grant, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

// ShareObserver is told how many grants each successful share created.
type ShareObserver interface {
	ObserveShare(granted int)
}

type Registry struct {
	lists    ListReader
	grants   GrantStore
	users    UserLookup
	notifier notifications.Notifier
	observer ShareObserver
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Registry)

func WithNotifier(n notifications.Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

func WithObserver(o ShareObserver) Option {
	return func(r *Registry) { r.observer = o }
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

func NewRegistry(lists ListReader, grants GrantStore, users UserLookup, opts ...Option) *Registry {
	r := &Registry{
		lists:  lists,
		grants: grants,
		users:  users,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Access loads the list and the caller's standing on it.
func (r *Registry) Access(ctx context.Context, listID, userID int64) (todo.List, collab.Access, error) {
	l, err := r.lists.GetByID(ctx, listID)
	if err != nil {
		return todo.List{}, collab.Access{}, err
	}

	if l.OwnerID == userID {
		return l, collab.Resolve(l, userID, nil), nil
	}

	g, err := r.grants.GetGrant(ctx, listID, userID)
	switch {
	case errors.Is(err, collab.ErrGrantNotFound):
		return l, collab.Resolve(l, userID, nil), nil
	case err != nil:
		return todo.List{}, collab.Access{}, err
	}

	return l, collab.Resolve(l, userID, &g), nil
}

// CanAccess is true iff the user owns the list or holds any grant on it.
func (r *Registry) CanAccess(ctx context.Context, listID, userID int64) (bool, error) {
	_, a, err := r.Access(ctx, listID, userID)
	if err != nil {
		if errors.Is(err, todo.ErrListNotFound) {
			return false, nil
		}
		return false, err
	}
	return a.CanView(), nil
}

// Require returns the list when allowed(access) holds. Callers without any
// access get ErrListNotFound so list existence does not leak; callers that
// can see the list but lack the permission get ErrForbidden.
func (r *Registry) Require(ctx context.Context, listID, userID int64, allowed func(collab.Access) bool) (todo.List, collab.Access, error) {
	l, a, err := r.Access(ctx, listID, userID)
	if err != nil {
		return todo.List{}, collab.Access{}, err
	}

	if !a.CanView() {
		return todo.List{}, collab.Access{}, todo.ErrListNotFound
	}
	if !allowed(a) {
		return todo.List{}, a, collab.ErrForbidden
	}

	return l, a, nil
}

// Share grants each recipient access to the list at the given permission.
// Recipients that already hold a grant keep theirs unchanged.
func (r *Registry) Share(ctx context.Context, listID, requesterID int64, recipients collab.Recipients, perm collab.Permission) (collab.ShareResult, error) {
	if perm == "" {
		perm = collab.DefaultPermission
	}
	if !perm.IsValid() {
		return collab.ShareResult{}, fmt.Errorf("invalid permission %q", perm)
	}

	l, _, err := r.Require(ctx, listID, requesterID, collab.Access.CanShare)
	if err != nil {
		return collab.ShareResult{}, err
	}

	resolved, unresolved, err := r.resolve(ctx, recipients.Normalize())
	if err != nil {
		return collab.ShareResult{}, err
	}

	result := collab.ShareResult{
		SharedWith: []string{},
		Unresolved: unresolved,
	}

	if len(resolved) == 0 {
		return result, collab.ErrNoSuchUser
	}

	for _, u := range resolved {
		if u.ID == l.OwnerID {
			result.Skipped = append(result.Skipped, u.Username)
			continue
		}

		g, created, err := r.grants.CreateGrant(ctx, collab.Grant{
			ListID:     l.ID,
			UserID:     u.ID,
			Permission: perm,
			InvitedAt:  r.now().UTC(),
		})
		if err != nil {
			return collab.ShareResult{}, err
		}

		if !created {
			result.Skipped = append(result.Skipped, u.Username)
			continue
		}

		g.Username = u.Username
		result.Granted = append(result.Granted, g)
		result.SharedWith = append(result.SharedWith, u.Username)
	}

	if len(result.Granted) == 0 {
		return result, collab.ErrAlreadyShared
	}

	r.log.InfoContext(ctx, "list shared", "list_id", l.ID, "by", requesterID, "granted", len(result.Granted), "permission", perm)

	if r.observer != nil {
		r.observer.ObserveShare(len(result.Granted))
	}

	r.notify(ctx, l, requesterID, result.Granted)

	return result, nil
}

// Collaborators lists the grants on a list the caller can see.
func (r *Registry) Collaborators(ctx context.Context, listID, requesterID int64) ([]collab.Grant, error) {
	if _, _, err := r.Require(ctx, listID, requesterID, collab.Access.CanView); err != nil {
		return nil, err
	}
	return r.grants.ListGrants(ctx, listID)
}

// resolve maps each reference to a user: by username first, then by id
// when the reference is numeric.
func (r *Registry) resolve(ctx context.Context, refs collab.Recipients) ([]user.User, []string, error) {
	seen := make(map[int64]struct{}, len(refs))
	var resolved []user.User
	var unresolved []string

	for _, ref := range refs {
		u, err := r.users.GetByUsername(ctx, ref)
		if errors.Is(err, user.ErrNotFound) {
			if id, ok := collab.AsID(ref); ok {
				u, err = r.users.GetByID(ctx, id)
			}
		}

		switch {
		case errors.Is(err, user.ErrNotFound):
			unresolved = append(unresolved, ref)
			continue
		case err != nil:
			return nil, nil, err
		}

		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		resolved = append(resolved, u)
	}

	return resolved, unresolved, nil
}

func (r *Registry) notify(ctx context.Context, l todo.List, by int64, granted []collab.Grant) {
	if r.notifier == nil {
		return
	}

	for _, g := range granted {
		err := r.notifier.SendShareInvitation(ctx, notifications.ShareInvitation{
			ListID:        l.ID,
			ListTitle:     l.Title,
			RecipientID:   g.UserID,
			RecipientName: g.Username,
			InvitedBy:     by,
			Permission:    string(g.Permission),
			InvitedAt:     g.InvitedAt,
		})
		if err != nil {
			r.log.WarnContext(ctx, "share invitation not delivered", "list_id", l.ID, "recipient_id", g.UserID, "err", err)
		}
	}
}
