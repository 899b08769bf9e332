package audit

import (
	"context"
	"testing"
)

func TestRecordOnNilServiceIsNoop(t *testing.T) {
	var svc *Service
	if err := svc.Record(context.Background(), "", "", ActionPayslipSkipped, "employee", "e1", "", "", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarshalOptional(t *testing.T) {
	got, err := marshalOptional(nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil payload, got %q (%v)", got, err)
	}
	got, err = marshalOptional(map[string]string{"runId": "r1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"runId":"r1"}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestNullUUID(t *testing.T) {
	if nullUUID("") != nil {
		t.Fatal("expected nil for empty id")
	}
	if nullUUID("abc") != "abc" {
		t.Fatal("expected id passthrough")
	}
}
