package dedup

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/blake3"
)

// Fingerprint is the raw digest of a normalized line. Its length is fixed
// per Algorithm. Two lines are duplicates iff their fingerprints are equal.
type Fingerprint string

// Hex returns the digest in lowercase hexadecimal.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString([]byte(f))
}

// Algorithm selects the fingerprint hash.
type Algorithm int

const (
	XXHash Algorithm = iota
	SHA256
	SHA512
	BLAKE3
)

var algorithmNames = [...]string{
	XXHash: "xxhash",
	SHA256: "sha256",
	SHA512: "sha512",
	BLAKE3: "blake3",
}

// ParseAlgorithm accepts an algorithm name, case-insensitively.
func ParseAlgorithm(name string) (Algorithm, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return XXHash, nil
	}
	for a, s := range algorithmNames {
		if s == n {
			return Algorithm(a), nil
		}
	}
	return 0, fmt.Errorf("unknown hash algorithm %q (want xxhash, sha256, sha512 or blake3)", name)
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return a >= XXHash && a <= BLAKE3
}

func (a Algorithm) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

// MarshalText lets config and report encoders write the algorithm name.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unknown hash algorithm %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText parses an algorithm name.
func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Sum fingerprints s with the algorithm.
func (a Algorithm) Sum(s string) Fingerprint {
	return a.sumFunc()(s)
}

// sumFunc resolves the algorithm once so the fold loop does not switch per
// line.
func (a Algorithm) sumFunc() func(string) Fingerprint {
	switch a {
	case SHA256:
		return func(s string) Fingerprint {
			d := sha256.Sum256([]byte(s))
			return Fingerprint(d[:])
		}
	case SHA512:
		return func(s string) Fingerprint {
			d := sha512.Sum512([]byte(s))
			return Fingerprint(d[:])
		}
	case BLAKE3:
		return func(s string) Fingerprint {
			d := blake3.Sum256([]byte(s))
			return Fingerprint(d[:])
		}
	default:
		return func(s string) Fingerprint {
			var d [8]byte
			binary.BigEndian.PutUint64(d[:], xxhash.Sum64String(s))
			return Fingerprint(d[:])
		}
	}
}
