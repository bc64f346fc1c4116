package handlers

import (
	"testing"
	"time"

	"github.com/geocoder89/todohub/internal/domain/todo"
)

func TestListsETag(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := todo.List{ID: 1, UpdatedAt: at}
	b := todo.List{ID: 2, UpdatedAt: at}

	same := listsETag([]todo.List{a, b})
	if listsETag([]todo.List{a, b}) != same {
		t.Fatalf("etag is not stable")
	}

	// the title is not part of the validator; renames bump updatedAt
	renamed := a
	renamed.Title = "renamed"
	if listsETag([]todo.List{renamed, b}) != same {
		t.Fatalf("etag should depend on ids and timestamps only")
	}

	different := map[string][]todo.List{
		"order":        {b, a},
		"fewer lists":  {a},
		"list touched": {{ID: 1, UpdatedAt: at.Add(time.Microsecond)}, b},
		"item added":   {{ID: 1, UpdatedAt: at, Items: []todo.Item{{ID: 3, UpdatedAt: at}}}, b},
	}
	for name, lists := range different {
		if listsETag(lists) == same {
			t.Fatalf("%s: etag did not change", name)
		}
	}

	// items moving between lists must not collide
	x := []todo.List{{ID: 1, Items: []todo.Item{{ID: 5}}}, {ID: 2}}
	y := []todo.List{{ID: 1}, {ID: 2, Items: []todo.Item{{ID: 5}}}}
	if listsETag(x) == listsETag(y) {
		t.Fatalf("item moved between lists but etag is unchanged")
	}
}

func TestETagMatches(t *testing.T) {
	const etag = `W/"abc"`

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{`W/"abc"`, true},
		{`"abc"`, true},
		{`"zzz", W/"abc"`, true},
		{`"zzz"`, false},
	}

	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Fatalf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
