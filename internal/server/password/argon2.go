// Package password hashes and verifies user passwords with argon2id.
//
// Hashes are stored in PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=2$<salt>$<hash>
//
// so parameters can be raised later without invalidating existing hashes.
// Argon2 is memory-hard: every call allocates Memory KiB, so concurrent
// hash and verify calls are bounded by a weighted semaphore.
package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const (
	algorithmID = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	// Ceilings for both the configuration and parameters read back from a
	// stored hash. IDKey allocates m KiB up front, so an unchecked m from a
	// corrupted row would exhaust memory.
	maxMemoryKB    uint32 = 1 << 20
	maxTimeCost    uint32 = 64
	maxParallelism uint8  = 64
	maxSaltLength         = 64
	maxKeyLength          = 128

	// A stored hash may use at most costHeadroom times the configured
	// memory and time.
	costHeadroom = 4
)

var errMalformedHash = errors.New("malformed password hash")

// Config holds argon2id cost parameters.
type Config struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MaxConcurrent bounds simultaneous Hash/Verify calls.
	MaxConcurrent int64
}

// DefaultConfig follows the OWASP argon2id baseline.
func DefaultConfig() Config {
	return Config{
		Memory:        64 * 1024,
		Time:          1,
		Parallelism:   2,
		SaltLength:    16,
		KeyLength:     32,
		MaxConcurrent: 8,
	}
}

type Argon2 struct {
	config Config
	sem    *semaphore.Weighted
}

type params struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// NewArgon2 validates cfg and returns a ready hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, fmt.Errorf("argon2 memory must be >= %d KiB", minMemoryKB)
	case cfg.Time < minTimeCost:
		return nil, errors.New("argon2 time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("argon2 parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, fmt.Errorf("argon2 salt length must be >= %d", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return nil, fmt.Errorf("argon2 key length must be >= %d", minKeyLength)
	case cfg.MaxConcurrent < 1:
		return nil, errors.New("argon2 max concurrency must be >= 1")
	case cfg.Memory > maxMemoryKB:
		return nil, fmt.Errorf("argon2 memory must be <= %d KiB", maxMemoryKB)
	case cfg.Time > maxTimeCost:
		return nil, fmt.Errorf("argon2 time must be <= %d", maxTimeCost)
	case cfg.Parallelism > maxParallelism:
		return nil, fmt.Errorf("argon2 parallelism must be <= %d", maxParallelism)
	case cfg.SaltLength > maxSaltLength || cfg.KeyLength > maxKeyLength:
		return nil, fmt.Errorf("argon2 salt and key lengths must be <= %d and %d", maxSaltLength, maxKeyLength)
	}

	return &Argon2{config: cfg, sem: semaphore.NewWeighted(cfg.MaxConcurrent)}, nil
}

// Hash derives a salted argon2id hash of password. It blocks while the
// concurrency limit is reached and returns ctx.Err() if ctx ends first.
func (a *Argon2) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)
	a.sem.Release(1)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash. It fails closed:
// a malformed hash, an unsupported algorithm, parameters beyond the hasher's
// limits or a cancelled ctx all yield false.
func (a *Argon2) Verify(ctx context.Context, encodedHash, password string) bool {
	p, err := parsePHC(encodedHash)
	if err != nil || !a.affordable(p) {
		return false
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.hash)))
	a.sem.Release(1)

	return subtle.ConstantTimeCompare(computed, p.hash) == 1
}

// affordable reports whether computing p stays within the memory and time
// the hasher was configured for.
func (a *Argon2) affordable(p *params) bool {
	memLimit := min(a.config.Memory*costHeadroom, maxMemoryKB)
	timeLimit := min(a.config.Time*costHeadroom, maxTimeCost)

	return p.memory <= memLimit &&
		p.time <= timeLimit &&
		p.parallelism <= maxParallelism &&
		len(p.salt) <= maxSaltLength &&
		len(p.hash) <= maxKeyLength
}

func parsePHC(encoded string) (*params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return nil, errMalformedHash
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errMalformedHash
	}

	p := &params{}
	var seen int
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errMalformedHash
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil || n == 0 {
			return nil, errMalformedHash
		}
		switch name {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n > 255 {
				return nil, errMalformedHash
			}
			p.parallelism = uint8(n)
		default:
			return nil, errMalformedHash
		}
		seen++
	}
	if seen != 3 || p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return nil, errMalformedHash
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return nil, errMalformedHash
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.hash) == 0 {
		return nil, errMalformedHash
	}

	return p, nil
}
