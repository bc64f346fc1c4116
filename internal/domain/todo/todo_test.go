package todo

import (
	"encoding/json"
	"testing"
)

func TestCreateItemRequest_InitialStatus(t *testing.T) {
	tests := []struct {
		name string
		req  CreateItemRequest
		want Status
	}{
		{name: "default", req: CreateItemRequest{}, want: StatusPending},
		{name: "completed_flag", req: CreateItemRequest{Completed: true}, want: StatusCompleted},
		{name: "explicit_status", req: CreateItemRequest{Status: StatusInProgress}, want: StatusInProgress},
		{name: "status_beats_flag", req: CreateItemRequest{Status: StatusPending, Completed: true}, want: StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.InitialStatus(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdateItemRequest_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  Status
		unset bool
	}{
		{name: "nothing", body: `{"title":"x"}`, unset: true},
		{name: "completed_true", body: `{"completed":true}`, want: StatusCompleted},
		{name: "completed_false", body: `{"completed":false}`, want: StatusPending},
		{name: "status_only", body: `{"status":"in-progress"}`, want: StatusInProgress},
		{name: "status_beats_flag", body: `{"status":"in-progress","completed":true}`, want: StatusInProgress},
		{name: "status_beats_false_flag", body: `{"status":"completed","completed":false}`, want: StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateItemRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("decode: %v", err)
			}
			req.Normalize()

			if tt.unset {
				if req.Status != nil {
					t.Fatalf("expected no status, got %q", *req.Status)
				}
				return
			}
			if req.Status == nil || *req.Status != tt.want {
				t.Fatalf("got %v, want %q", req.Status, tt.want)
			}
		})
	}
}

func TestUpdateItemRequest_Empty(t *testing.T) {
	tests := []struct {
		body  string
		empty bool
	}{
		{body: `{}`, empty: true},
		{body: `{"unknown":1}`, empty: true},
		{body: `{"assignedTo":null}`, empty: false},
		{body: `{"completed":false}`, empty: false},
		{body: `{"description":""}`, empty: false},
	}

	for _, tt := range tests {
		var req UpdateItemRequest
		if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
			t.Fatalf("decode %s: %v", tt.body, err)
		}
		if req.Empty() != tt.empty {
			t.Fatalf("%s: Empty() = %v, want %v", tt.body, req.Empty(), tt.empty)
		}
	}
}

func TestNullableID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		set     bool
		valid   bool
		value   int64
		wantErr bool
	}{
		{name: "absent", body: `{}`},
		{name: "null", body: `{"assignedTo":null}`, set: true},
		{name: "value", body: `{"assignedTo":7}`, set: true, valid: true, value: 7},
		{name: "string", body: `{"assignedTo":"7"}`, wantErr: true},
		{name: "fraction", body: `{"assignedTo":1.5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateItemRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}

			n := req.AssignedTo
			if n.Set != tt.set || n.Valid != tt.valid || n.Value != tt.value {
				t.Fatalf("got %+v", n)
			}

			p := n.Ptr()
			if tt.valid != (p != nil) {
				t.Fatalf("Ptr: got %v", p)
			}
			if p != nil && *p != tt.value {
				t.Fatalf("Ptr: got %d, want %d", *p, tt.value)
			}
		})
	}
}

func TestNullableID_MarshalJSON(t *testing.T) {
	b, _ := json.Marshal(NullableID{Set: true})
	if string(b) != "null" {
		t.Fatalf("cleared: got %s", b)
	}

	b, _ = json.Marshal(NullableID{Set: true, Valid: true, Value: 9})
	if string(b) != "9" {
		t.Fatalf("value: got %s", b)
	}
}
