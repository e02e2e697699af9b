package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/genz-feed/api-go/store"
)

const (
	// maxCursorLength bounds the encoded cursor accepted from clients.
	maxCursorLength = 512
	cursorDelimiter = "|"
)

// CursorCodec turns feed positions into opaque, HMAC-signed cursors.
// Format before encoding: createdAt(RFC3339Nano)|id|hex(hmac-sha256).
type CursorCodec struct {
	secret []byte
}

func NewCursorCodec(secret string) *CursorCodec {
	return &CursorCodec{secret: []byte(secret)}
}

func (c *CursorCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encode returns the cursor for resuming the feed after key.
func (c *CursorCodec) Encode(key store.FeedKey) string {
	payload := key.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorDelimiter + strconv.FormatUint(uint64(key.ID), 10)
	signed := payload + cursorDelimiter + c.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(signed))
}

// Decode validates a client-supplied cursor. An empty cursor means "start
// from the newest post" and decodes to nil.
func (c *CursorCodec) Decode(cursor string) (*store.FeedKey, error) {
	if cursor == "" {
		return nil, nil
	}
	if len(cursor) > maxCursorLength {
		return nil, NewValidationError("cursor", "cursor exceeds maximum length")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, NewValidationError("cursor", "invalid cursor encoding")
	}

	parts := strings.Split(string(decoded), cursorDelimiter)
	if len(parts) != 3 {
		return nil, NewValidationError("cursor", "malformed cursor")
	}

	payload := parts[0] + cursorDelimiter + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(c.sign(payload))) {
		return nil, NewValidationError("cursor", "invalid cursor signature")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, NewValidationError("cursor", "invalid cursor timestamp")
	}
	id, err := strconv.ParseUint(parts[1], 10, 0)
	if err != nil || id == 0 {
		return nil, NewValidationError("cursor", "invalid cursor id")
	}

	return &store.FeedKey{CreatedAt: createdAt, ID: uint(id)}, nil
}
