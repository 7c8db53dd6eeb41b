package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"live-player/internal/player"
)

// SessionID uniquely identifies a viewer's player session.
type SessionID string

// Session is one viewer's player, hosted by the service.
type Session struct {
	ID        SessionID
	Player    *player.Player
	CreatedAt time.Time
}

// newSessionID returns a random 128-bit hex identifier.
func newSessionID() (SessionID, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return SessionID(hex.EncodeToString(buf[:])), nil
}
