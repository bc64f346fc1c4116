package actorctx

import (
	"context"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	ctx := With(context.Background(), Actor{UserID: 7, Username: "alice"})

	a, ok := From(ctx)
	if !ok || a.UserID != 7 || a.Username != "alice" {
		t.Fatalf("got %+v %v", a, ok)
	}

	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatalf("empty context should carry no actor")
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")

	if id, ok := RequestIDFrom(ctx); !ok || id != "req-1" {
		t.Fatalf("got %q %v", id, ok)
	}
	if _, ok := RequestIDFrom(WithRequestID(context.Background(), "")); ok {
		t.Fatalf("blank request id should not count")
	}
	if _, ok := From(ctx); ok {
		t.Fatalf("request id alone is not an actor")
	}
}
