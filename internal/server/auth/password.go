package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyPassword    = fmt.Errorf("%w: password is empty", common.ErrValidation)
	ErrPasswordTooLong  = fmt.Errorf("%w: password is too long", common.ErrValidation)
	errUnknownAlgorithm = fmt.Errorf("unknown password hash algorithm")
)

// PasswordHasher turns plaintext passwords into self-describing hashes and
// checks candidates against them.
//
// Verify never fails loudly: a malformed or foreign hash simply does not match.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) bool
}

// MaxPasswordLength reports the longest plaintext h accepts, or 0 when h
// does not declare a limit.
func MaxPasswordLength(h PasswordHasher) int {
	if l, ok := h.(interface{ MaxPasswordLen() int }); ok {
		return l.MaxPasswordLen()
	}
	return 0
}

// recognizer is implemented by hashers that can tell their own output apart.
type recognizer interface {
	Recognizes(encoded string) bool
}

const argon2Prefix = "$argon2id$"

// Argon2Hasher derives argon2id keys and encodes them in PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
type Argon2Hasher struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   int
	MaxLen    int
}

// NewArgon2Hasher returns a hasher with the parameters used for master keys
// elsewhere in the codebase: t=1, m=64MiB, p=4, 32-byte key.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{
		Time:      1,
		MemoryKiB: 64 * 1024,
		Threads:   4,
		KeyLen:    32,
		SaltLen:   16,
		MaxLen:    1024,
	}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > h.MaxLen {
		return "", ErrPasswordTooLong
	}

	salt := common.GenerateRandByteArray(h.SaltLen)
	key := argon2.IDKey([]byte(plaintext), salt, h.Time, h.MemoryKiB, h.Threads, h.KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, h.MemoryKiB, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(plaintext, encoded string) bool {
	p, salt, key, ok := decodeArgon2(encoded)
	if !ok {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, p.time, p.memory, p.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1
}

func (h *Argon2Hasher) MaxPasswordLen() int { return h.MaxLen }

func (h *Argon2Hasher) Recognizes(encoded string) bool {
	return strings.HasPrefix(encoded, argon2Prefix)
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

// upper bounds for parameters read back from stored hashes
const (
	maxArgon2Memory = 1 << 20
	maxArgon2Time   = 16
)

func decodeArgon2(encoded string) (argon2Params, []byte, []byte, bool) {
	var p argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, false
	}
	if p.memory == 0 || p.memory > maxArgon2Memory || p.time == 0 || p.time > maxArgon2Time || p.threads == 0 {
		return p, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, false
	}
	return p, salt, key, true
}

// BcryptHasher wraps golang.org/x/crypto/bcrypt.
type BcryptHasher struct {
	Cost int
}

// bcrypt ignores everything past 72 bytes, so longer inputs are rejected.
const bcryptMaxLen = 72

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > bcryptMaxLen {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plaintext, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) == nil
}

func (h *BcryptHasher) MaxPasswordLen() int { return bcryptMaxLen }

func (h *BcryptHasher) Recognizes(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

// MultiHasher hashes with Primary and verifies with whichever known hasher
// recognises the stored hash, so switching algorithms keeps old hashes valid.
type MultiHasher struct {
	Primary PasswordHasher
	Known   []PasswordHasher
}

func (m *MultiHasher) Hash(plaintext string) (string, error) {
	return m.Primary.Hash(plaintext)
}

// MaxPasswordLen is the primary's limit; only the primary ever hashes.
func (m *MultiHasher) MaxPasswordLen() int { return MaxPasswordLength(m.Primary) }

func (m *MultiHasher) Verify(plaintext, encoded string) bool {
	for _, h := range append([]PasswordHasher{m.Primary}, m.Known...) {
		if r, ok := h.(recognizer); ok && r.Recognizes(encoded) {
			return h.Verify(plaintext, encoded)
		}
	}
	return false
}

// NewPasswordHasher builds a MultiHasher whose primary algorithm is either
// "argon2id" or "bcrypt".
func NewPasswordHasher(algorithm string, bcryptCost int) (*MultiHasher, error) {
	a := NewArgon2Hasher()
	b := NewBcryptHasher(bcryptCost)

	switch algorithm {
	case "argon2id":
		return &MultiHasher{Primary: a, Known: []PasswordHasher{b}}, nil
	case "bcrypt":
		return &MultiHasher{Primary: b, Known: []PasswordHasher{a}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownAlgorithm, algorithm)
	}
}
