package testing

import (
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

// NoticeCapture collects NOTICE messages raised by the server. The CDM DDL
// uses IF NOT EXISTS guards, so re-applying a schema surfaces as a stream of
// "already exists, skipping" notices; integration tests assert on those to
// verify idempotency.
//
// Thread-safe for concurrent use.
type NoticeCapture struct {
	notices []string
	mu      sync.Mutex
}

// NewNoticeCapture creates a new NoticeCapture instance.
func NewNoticeCapture() *NoticeCapture {
	return &NoticeCapture{
		notices: make([]string, 0),
	}
}

// Handler returns a function suitable for pgx's OnNotice callback.
func (nc *NoticeCapture) Handler() func(*pgconn.PgConn, *pgconn.Notice) {
	return func(_ *pgconn.PgConn, n *pgconn.Notice) {
		if n == nil {
			return
		}

		nc.mu.Lock()
		defer nc.mu.Unlock()
		nc.notices = append(nc.notices, n.Message)
	}
}

// Messages returns a copy of all captured notice messages.
func (nc *NoticeCapture) Messages() []string {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	result := make([]string, len(nc.notices))
	copy(result, nc.notices)
	return result
}

// Matching returns the captured messages containing the given substring.
func (nc *NoticeCapture) Matching(substr string) []string {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	var result []string
	for _, msg := range nc.notices {
		if strings.Contains(msg, substr) {
			result = append(result, msg)
		}
	}
	return result
}

// Contains reports whether any captured message contains the substring.
func (nc *NoticeCapture) Contains(substr string) bool {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	for _, msg := range nc.notices {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// Reset clears all captured notices.
func (nc *NoticeCapture) Reset() {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	nc.notices = make([]string, 0)
}

// Count returns the number of captured notices.
func (nc *NoticeCapture) Count() int {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	return len(nc.notices)
}
