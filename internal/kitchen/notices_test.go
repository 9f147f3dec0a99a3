package kitchen

import (
	"fmt"
	"testing"
)

func TestNoticeBoardEvictsOldest(t *testing.T) {
	t.Parallel()
	b := NewNoticeBoard(3)
	for i := 0; i < 5; i++ {
		b.Post(NoticeKitchen, fmt.Sprintf("n%d", i))
	}
	got := b.Recent()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"n2", "n3", "n4"} {
		if got[i].Message != want {
			t.Errorf("notice %d = %q, want %q", i, got[i].Message, want)
		}
	}
}

func TestNoticeBoardRecentIsACopy(t *testing.T) {
	t.Parallel()
	b := NewNoticeBoard(3)
	b.Post(NoticeError, "original")
	got := b.Recent()
	got[0].Message = "mutated"
	if b.Recent()[0].Message != "original" {
		t.Error("mutating the returned slice leaked into the board")
	}
}

func TestNoticeBoardZeroCapacityDefaults(t *testing.T) {
	t.Parallel()
	b := NewNoticeBoard(0)
	if b.capacity != DefaultNoticeCapacity {
		t.Errorf("capacity = %d, want %d", b.capacity, DefaultNoticeCapacity)
	}
}
