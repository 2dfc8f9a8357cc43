package service

import (
	"crypto"
	_ "crypto/sha256" // registers crypto.SHA256
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-enrollment/internal/model"
)

const (
	hashDelimiter = "|"
	// issuedAtLayout is an ISO-8601 local date-time with the fraction trimmed
	// of trailing zeros.
	issuedAtLayout = "2006-01-02T15:04:05.999999999"
)

// Hasher derives certificate verification hashes. The field order, the
// delimiter and the timestamp rendering are part of the verification format
// and must not change, or previously issued hashes stop matching.
type Hasher struct {
	salt string
	algo crypto.Hash
}

// NewHasher creates a Hasher that appends salt to every digest input.
func NewHasher(salt string) *Hasher {
	return &Hasher{salt: salt, algo: crypto.SHA256}
}

// Hash returns 64 uppercase hex characters, or model.ErrHashUnavailable when
// SHA-256 is not linked into the binary.
func (h *Hasher) Hash(in model.HashInput) (string, error) {
	if !h.algo.Available() {
		return "", model.ErrHashUnavailable
	}

	var b strings.Builder
	for _, field := range []string{
		strconv.FormatInt(in.PersonID, 10),
		in.PersonName,
		in.PersonNationalID,
		strconv.FormatInt(in.EventID, 10),
		in.EventName,
		strconv.FormatInt(in.SpeakerID, 10),
		in.SpeakerName,
		in.InstitutionID,
		formatIssuedAt(in.IssuedAt),
	} {
		b.WriteString(field)
		b.WriteString(hashDelimiter)
	}
	b.WriteString(h.salt)

	d := h.algo.New()
	d.Write([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(d.Sum(nil))), nil
}

// formatIssuedAt renders t in UTC. Whole seconds keep their ":ss" part.
func formatIssuedAt(t time.Time) string {
	return t.UTC().Format(issuedAtLayout)
}
