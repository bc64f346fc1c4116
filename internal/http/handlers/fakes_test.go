package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Fake implementations of the handler interfaces. A nil function field
// returns the zero value.

type fakeAccounts struct {
	registerFn func(ctx context.Context, req user.RegisterRequest) error
	authFn     func(ctx context.Context, username, password string) (user.PublicUser, error)
	getFn      func(ctx context.Context, id int64) (user.PublicUser, error)
	updateFn   func(ctx context.Context, id int64, req user.UpdateRequest) (user.PublicUser, error)
}

func (f *fakeAccounts) Register(ctx context.Context, req user.RegisterRequest) error {
	if f.registerFn != nil {
		return f.registerFn(ctx, req)
	}
	return nil
}

func (f *fakeAccounts) Authenticate(ctx context.Context, username, password string) (user.PublicUser, error) {
	if f.authFn != nil {
		return f.authFn(ctx, username, password)
	}
	return user.PublicUser{}, nil
}

func (f *fakeAccounts) Get(ctx context.Context, id int64) (user.PublicUser, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.PublicUser{ID: id}, nil
}

func (f *fakeAccounts) Update(ctx context.Context, id int64, req user.UpdateRequest) (user.PublicUser, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return user.PublicUser{ID: id}, nil
}

type fakeTokens struct {
	issueFn  func(userID int64, username string) (string, error)
	revokeFn func(ctx context.Context, claims *auth.Claims) error
}

func (f *fakeTokens) Issue(userID int64, username string) (string, error) {
	if f.issueFn != nil {
		return f.issueFn(userID, username)
	}
	return "token", nil
}

func (f *fakeTokens) Revoke(ctx context.Context, claims *auth.Claims) error {
	if f.revokeFn != nil {
		return f.revokeFn(ctx, claims)
	}
	return nil
}

type fakeLists struct {
	createFn       func(ctx context.Context, ownerID int64, req todo.CreateListRequest) (todo.List, error)
	getWithItemsFn func(ctx context.Context, id int64) (todo.List, error)
	listForUserFn  func(ctx context.Context, userID int64) ([]todo.List, error)
	updateFn       func(ctx context.Context, id int64, req todo.UpdateListRequest) (todo.List, error)
	deleteFn       func(ctx context.Context, listID, requesterID int64) error
}

func (f *fakeLists) Create(ctx context.Context, ownerID int64, req todo.CreateListRequest) (todo.List, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}
	return todo.List{}, nil
}

func (f *fakeLists) GetWithItems(ctx context.Context, id int64) (todo.List, error) {
	if f.getWithItemsFn != nil {
		return f.getWithItemsFn(ctx, id)
	}
	return todo.List{ID: id, Items: []todo.Item{}}, nil
}

func (f *fakeLists) ListForUser(ctx context.Context, userID int64) ([]todo.List, error) {
	if f.listForUserFn != nil {
		return f.listForUserFn(ctx, userID)
	}
	return []todo.List{}, nil
}

func (f *fakeLists) Update(ctx context.Context, id int64, req todo.UpdateListRequest) (todo.List, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return todo.List{ID: id}, nil
}

func (f *fakeLists) Delete(ctx context.Context, listID, requesterID int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, listID, requesterID)
	}
	return nil
}

type fakeItems struct {
	createFn func(ctx context.Context, req todo.CreateItemRequest) (todo.Item, error)
	getFn    func(ctx context.Context, id int64) (todo.Item, error)
	updateFn func(ctx context.Context, id int64, req todo.UpdateItemRequest) (todo.Item, error)
	deleteFn func(ctx context.Context, id int64) error
	assignFn func(ctx context.Context, id int64, userID *int64) (todo.Item, error)
}

func (f *fakeItems) Create(ctx context.Context, req todo.CreateItemRequest) (todo.Item, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return todo.Item{}, nil
}

func (f *fakeItems) GetByID(ctx context.Context, id int64) (todo.Item, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return todo.Item{}, todo.ErrItemNotFound
}

func (f *fakeItems) Update(ctx context.Context, id int64, req todo.UpdateItemRequest) (todo.Item, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return todo.Item{ID: id}, nil
}

func (f *fakeItems) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeItems) Assign(ctx context.Context, id int64, userID *int64) (todo.Item, error) {
	if f.assignFn != nil {
		return f.assignFn(ctx, id, userID)
	}
	return todo.Item{ID: id, AssignedTo: userID}, nil
}

type fakeSharing struct {
	shareFn   func(ctx context.Context, listID, requesterID int64, recipients collab.Recipients, perm collab.Permission) (collab.ShareResult, error)
	collabFn  func(ctx context.Context, listID, requesterID int64) ([]collab.Grant, error)
	requireFn func(ctx context.Context, listID, userID int64, allowed func(collab.Access) bool) (todo.List, collab.Access, error)
}

func (f *fakeSharing) Share(ctx context.Context, listID, requesterID int64, recipients collab.Recipients, perm collab.Permission) (collab.ShareResult, error) {
	if f.shareFn != nil {
		return f.shareFn(ctx, listID, requesterID, recipients, perm)
	}
	return collab.ShareResult{}, nil
}

func (f *fakeSharing) Collaborators(ctx context.Context, listID, requesterID int64) ([]collab.Grant, error) {
	if f.collabFn != nil {
		return f.collabFn(ctx, listID, requesterID)
	}
	return []collab.Grant{}, nil
}

func (f *fakeSharing) Require(ctx context.Context, listID, userID int64, allowed func(collab.Access) bool) (todo.List, collab.Access, error) {
	if f.requireFn != nil {
		return f.requireFn(ctx, listID, userID, allowed)
	}
	return todo.List{ID: listID, OwnerID: userID}, collab.Access{Owner: true}, nil
}

// asUser stands in for RequireAuth.
func asUser(id int64, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middlewares.SetIdentity(c, id, name)
		c.Next()
	}
}

// withList stands in for RequireList: it trusts :listId and records an owned list.
func withList(ownerID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.Param("listId"), 10, 64)
		middlewares.SetList(c, todo.List{ID: id, OwnerID: ownerID}, collab.Access{Owner: true})
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			rdr = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var out errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return out
}
