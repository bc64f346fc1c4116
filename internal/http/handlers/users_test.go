package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func setupUsersRouter(accounts *fakeAccounts, items *fakeItems, sharing *fakeSharing) *gin.Engine {
	h := handlers.NewUsersHandler(accounts, items, sharing, discardLogger())

	r := gin.New()
	g := r.Group("/api/users", asUser(1, "alice"))
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/assign-item", h.AssignItem)
	return r
}

func TestUsersGet(t *testing.T) {
	accounts := &fakeAccounts{
		getFn: func(ctx context.Context, id int64) (user.PublicUser, error) {
			if id == 2 {
				return user.PublicUser{ID: 2, Username: "bob"}, nil
			}
			return user.PublicUser{}, user.ErrNotFound
		},
	}
	r := setupUsersRouter(accounts, &fakeItems{}, &fakeSharing{})

	if w := doJSON(t, r, http.MethodGet, "/api/users/2", nil); w.Code != http.StatusOK {
		t.Fatalf("get: got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/users/3", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing: got %d want 404", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/users/-1", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: got %d want 400", w.Code)
	}
}

func TestUsersUpdate_SelfOnly(t *testing.T) {
	var got user.UpdateRequest
	accounts := &fakeAccounts{
		updateFn: func(ctx context.Context, id int64, req user.UpdateRequest) (user.PublicUser, error) {
			got = req
			return user.PublicUser{ID: id, FullName: *req.FullName}, nil
		},
	}
	r := setupUsersRouter(accounts, &fakeItems{}, &fakeSharing{})

	w := doJSON(t, r, http.MethodPut, "/api/users/2", map[string]string{"fullName": "Mallory"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("other user: got %d want 403", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, "/api/users/1", map[string]string{"fullName": "Alice A.", "username": "root"})
	if w.Code != http.StatusOK {
		t.Fatalf("self: got %d (%s)", w.Code, w.Body.String())
	}
	if got.FullName == nil || *got.FullName != "Alice A." {
		t.Fatalf("full name not passed through: %+v", got)
	}
}

func TestUsersAssignItem(t *testing.T) {
	tests := []struct {
		name       string
		itemID     int64
		requireErr error
		wantStatus int
	}{
		{"editor", 1, nil, http.StatusOK},
		{"view only", 1, collab.ErrForbidden, http.StatusForbidden},
		{"invisible list", 1, todo.ErrListNotFound, http.StatusNotFound},
		{"unknown item", 99, nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var assigned *int64
			items := itemsInList()
			items.assignFn = func(ctx context.Context, id int64, userID *int64) (todo.Item, error) {
				assigned = userID
				return todo.Item{ID: id, ListID: 1, AssignedTo: userID}, nil
			}
			sharing := &fakeSharing{
				requireFn: func(ctx context.Context, listID, userID int64, allowed func(collab.Access) bool) (todo.List, collab.Access, error) {
					if listID != 1 || userID != 1 {
						t.Fatalf("require(%d, %d)", listID, userID)
					}
					return todo.List{ID: listID}, collab.Access{}, tt.requireErr
				},
			}
			r := setupUsersRouter(&fakeAccounts{}, items, sharing)

			w := doJSON(t, r, http.MethodPost, "/api/users/2/assign-item", map[string]int64{"itemId": tt.itemID})
			if w.Code != tt.wantStatus {
				t.Fatalf("status: got %d want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				if assigned == nil || *assigned != 2 {
					t.Fatalf("assignee should be the path user, got %v", assigned)
				}
			} else if assigned != nil {
				t.Fatalf("assign must not run on failure")
			}
		})
	}
}
