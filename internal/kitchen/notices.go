package kitchen

import (
	"sync"
	"time"
)

// DefaultNoticeCapacity bounds the transient notice feed. Old notices are
// worthless on a kitchen display; fifty covers anything still on screen.
const DefaultNoticeCapacity = 50

type NoticeKind string

const (
	NoticeKitchen    NoticeKind = "kitchen"
	NoticeRestaurant NoticeKind = "restaurant"
	NoticeError      NoticeKind = "error"
)

type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

// NoticeBoard is a fixed-capacity feed of transient user-visible notices.
// When full, the oldest notice is evicted.
type NoticeBoard struct {
	mu       sync.Mutex
	capacity int
	notices  []Notice
}

func NewNoticeBoard(capacity int) *NoticeBoard {
	if capacity <= 0 {
		capacity = DefaultNoticeCapacity
	}
	return &NoticeBoard{capacity: capacity}
}

func (b *NoticeBoard) Post(kind NoticeKind, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.notices) == b.capacity {
		copy(b.notices, b.notices[1:])
		b.notices = b.notices[:b.capacity-1]
	}
	b.notices = append(b.notices, Notice{Kind: kind, Message: message, At: time.Now().UTC()})
}

// Recent returns the notices oldest-first.
func (b *NoticeBoard) Recent() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notice(nil), b.notices...)
}
