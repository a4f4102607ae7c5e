package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultLimit},
		{in: -5, want: DefaultLimit},
		{in: 10, want: 10},
		{in: 500, want: MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	orig := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := ParseCursor(EncodeCursor(orig))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if parsed == nil {
		t.Fatal("expected non-nil cursor")
	}
	if !parsed.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("created_at = %v, want %v", parsed.CreatedAt, orig.CreatedAt)
	}
	if parsed.ID != orig.ID {
		t.Errorf("id = %s, want %s", parsed.ID, orig.ID)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	c, err := ParseCursor("   ")
	if err != nil || c != nil {
		t.Fatalf("blank cursor: got %v, %v; want nil, nil", c, err)
	}

	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Error("expected error for malformed base64")
	}
	if _, err := ParseCursor("aGVsbG8="); err == nil {
		t.Error("expected error for cursor without separator")
	}
}
