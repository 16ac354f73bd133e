// Package xid generates the prefixed ids for sales, refunds and sale groups.
// Ids are assigned client side so a row written during an offline fallback
// keeps its identity if it is later replayed against the remote backend.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns "<prefix>-<unix nanos>-<8 random hex bytes>". The timestamp
// keeps ids roughly sortable by creation; the random tail makes collisions
// across devices implausible.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
