package redis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "admin_session:"

// ErrSessionNotFound covers unknown, expired and undecryptable sessions alike
var ErrSessionNotFound = errors.New("admin session not found")

// AdminSession is what an X-Session-ID resolves to
type AdminSession struct {
	AdminID   uuid.UUID `json:"admin_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore keeps admin sessions in Redis. Each record is sealed with
// AES-256-GCM and bound to its session id, so a value copied under another
// key does not open.
type SessionStore struct {
	aead cipher.AEAD
	now  func() time.Time
}

var (
	setSessionValue    = Set
	getSessionValue    = Get
	delSessionValue    = Del
	marshalSessionJSON = json.Marshal
)

// NewSessionStore takes a 32 byte key as 64 hex characters
func NewSessionStore(encryptionKeyHex string) (*SessionStore, error) {
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, errors.New("invalid encryption key hex")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	return &SessionStore{aead: aead, now: time.Now}, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Open stores a session for ttl, stamping its creation and expiry
func (s *SessionStore) Open(ctx context.Context, sessionID string, session AdminSession, ttl time.Duration) (*AdminSession, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	now := s.now().UTC()
	session.CreatedAt = now
	session.ExpiresAt = now.Add(ttl)

	plain, err := marshalSessionJSON(session)
	if err != nil {
		return nil, err
	}
	sealed, err := s.seal(sessionID, plain)
	if err != nil {
		return nil, err
	}
	if err := setSessionValue(ctx, sessionKey(sessionID), sealed, ttl); err != nil {
		return nil, fmt.Errorf("store admin session: %w", err)
	}
	return &session, nil
}

// Resolve loads a live session; anything else is ErrSessionNotFound unless
// Redis itself failed.
func (s *SessionStore) Resolve(ctx context.Context, sessionID string) (*AdminSession, error) {
	sealed, err := getSessionValue(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load admin session: %w", err)
	}

	plain, err := s.unseal(sessionID, sealed)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	var session AdminSession
	if err := json.Unmarshal(plain, &session); err != nil || session.AdminID == uuid.Nil {
		return nil, ErrSessionNotFound
	}
	if !session.ExpiresAt.IsZero() && s.now().After(session.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Close removes a session; closing an unknown one succeeds
func (s *SessionStore) Close(ctx context.Context, sessionID string) error {
	return delSessionValue(ctx, sessionKey(sessionID))
}

func (s *SessionStore) seal(sessionID string, plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return hex.EncodeToString(s.aead.Seal(nonce, nonce, plaintext, []byte(sessionID))), nil
}

func (s *SessionStore) unseal(sessionID, sealedHex string) ([]byte, error) {
	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return nil, err
	}
	if len(sealed) < s.aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	return s.aead.Open(nil, nonce, ciphertext, []byte(sessionID))
}
