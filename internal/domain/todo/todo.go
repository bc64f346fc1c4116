package todo

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

var (
	ErrListNotFound = errors.New("todo list not found")
	ErrItemNotFound = errors.New("todo item not found")
)

type List struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     int64     `json:"ownerId"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Item struct {
	ID          int64     `json:"id"`
	ListID      int64     `json:"listId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	AssignedTo  *int64    `json:"assignedTo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateListRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"omitempty,max=5000"`
}

// UpdateListRequest is a partial update; nil fields are left untouched.
type UpdateListRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
}

func (r UpdateListRequest) Empty() bool {
	return r.Title == nil && r.Description == nil
}

type CreateItemRequest struct {
	ListID      int64  `json:"-"`
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"omitempty,max=5000"`
	Status      Status `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Completed   bool   `json:"completed"`
}

// InitialStatus resolves the status a new item starts in. An explicit
// status wins over the legacy completed flag.
func (r CreateItemRequest) InitialStatus() Status {
	if r.Status != "" {
		return r.Status
	}
	if r.Completed {
		return StatusCompleted
	}
	return StatusPending
}

// UpdateItemRequest lists every field a client may change on an item.
// Anything else in the request body is ignored.
type UpdateItemRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	Status      *Status    `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Completed   *bool      `json:"completed"`
	AssignedTo  NullableID `json:"assignedTo"`
}

// Normalize folds the legacy completed flag into Status.
func (r *UpdateItemRequest) Normalize() {
	if r.Status != nil || r.Completed == nil {
		return
	}

	s := StatusPending
	if *r.Completed {
		s = StatusCompleted
	}
	r.Status = &s
}

func (r UpdateItemRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil && r.Completed == nil && !r.AssignedTo.Set
}

type AssignRequest struct {
	UserID NullableID `json:"userId"`
}

// NullableID distinguishes an absent JSON field (Set=false) from an
// explicit null (Set=true, Valid=false) and a value.
type NullableID struct {
	Set   bool
	Valid bool
	Value int64
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true

	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Valid = false
		n.Value = 0
		return nil
	}

	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullableID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns the id as a pointer, nil when cleared.
func (n NullableID) Ptr() *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
