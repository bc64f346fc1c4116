package collab

import (
	"errors"
	"time"

	"github.com/geocoder89/todohub/internal/domain/todo"
)

type Permission string

const (
	PermissionView  Permission = "view"
	PermissionEdit  Permission = "edit"
	PermissionAdmin Permission = "admin"
)

// DefaultPermission is granted when a share request names none.
const DefaultPermission = PermissionEdit

func (p Permission) IsValid() bool {
	switch p {
	case PermissionView, PermissionEdit, PermissionAdmin:
		return true
	default:
		return false
	}
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrNoSuchUser    = errors.New("no such user")
	ErrAlreadyShared = errors.New("list already shared with every recipient")
	ErrGrantNotFound = errors.New("grant not found")
)

// Grant lets a user other than the owner access a list.
// At most one grant exists per (list, user) pair.
type Grant struct {
	ID         int64      `json:"id"`
	ListID     int64      `json:"listId"`
	UserID     int64      `json:"userId"`
	Username   string     `json:"username,omitempty"`
	Permission Permission `json:"permission"`
	InvitedAt  time.Time  `json:"invitedAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
}

// Access is a user's effective standing on one list.
type Access struct {
	Owner      bool
	Granted    bool
	Permission Permission
}

func Resolve(list todo.List, userID int64, grant *Grant) Access {
	a := Access{Owner: list.OwnerID == userID}
	if grant != nil && grant.UserID == userID && grant.ListID == list.ID {
		a.Granted = true
		a.Permission = grant.Permission
	}
	return a
}

func (a Access) CanView() bool {
	return a.Owner || a.Granted
}

func (a Access) CanEdit() bool {
	return a.Owner || (a.Granted && a.Permission != PermissionView)
}

func (a Access) CanShare() bool {
	return a.Owner || (a.Granted && a.Permission == PermissionAdmin)
}

func (a Access) CanDelete() bool {
	return a.Owner
}

// FilterVisible keeps the lists the requester owns or holds a grant on.
// grants must already be narrowed to the requester; lists without an
// entry in grants are treated as having none.
func FilterVisible(lists []todo.List, grants map[int64][]Grant, requesterID int64) []todo.List {
	out := make([]todo.List, 0, len(lists))

	for _, l := range lists {
		if l.OwnerID == requesterID || len(grants[l.ID]) > 0 {
			out = append(out, l)
		}
	}

	return out
}
