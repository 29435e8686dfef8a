package domain

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	dErrors "estate/pkg/domain-errors"
)

// AccountIDLen is the byte length of an account identity.
const AccountIDLen = 32

// AccountID identifies a caller. The zero value is the default identity that
// unset lookups resolve to; it is a valid value, not an absence marker.
type AccountID [AccountIDLen]byte

// ParseAccountID parses a hex-encoded account (64 hex chars, optional 0x prefix).
func ParseAccountID(s string) (AccountID, error) {
	var a AccountID
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != hex.EncodedLen(AccountIDLen) {
		return a, dErrors.New(dErrors.CodeInvalidInput, "account id must be 64 hex characters")
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return AccountID{}, dErrors.New(dErrors.CodeInvalidInput, "account id must be hex encoded")
	}
	return a, nil
}

// AccountIDFromSeed derives a deterministic account from a human-readable seed
// ("alice", "bob"). Intended for development tokens and tests.
func AccountIDFromSeed(seed string) AccountID {
	return AccountID(blake2b.Sum256([]byte(seed)))
}

func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the account as raw bytes (BYTEA / BLOB).
func (a AccountID) Value() (driver.Value, error) {
	return a[:], nil
}

func (a *AccountID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = AccountID{}
		return nil
	case []byte:
		if len(v) != AccountIDLen {
			return fmt.Errorf("scan account id: expected %d bytes, got %d", AccountIDLen, len(v))
		}
		copy(a[:], v)
		return nil
	default:
		return fmt.Errorf("scan account id: unsupported type %T", src)
	}
}

// PropertyID is the dense, monotonically assigned listing identifier.
type PropertyID uint32

// ParsePropertyID parses a decimal property id from external input.
func ParsePropertyID(s string) (PropertyID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "property id must be an unsigned 32-bit integer")
	}
	return PropertyID(n), nil
}

func (p PropertyID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}
