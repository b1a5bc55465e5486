// Package fingerprint computes the versioned identity string of a
// bibliographic record and its content-addressable hash.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/revcore/revcore/internal/record"
)

// Version tags every fingerprint so that changes to the normalization
// algorithm never silently collide with fingerprints computed under a
// previous version.
const Version = "v0.1"

// ErrNotEnoughData indicates the record has too few identifying fields to
// produce a trustworthy fingerprint.
var ErrNotEnoughData = errors.New("not enough data to identify record")

// hashSpace is 2^256, the modulus for collision-walk increments.
var hashSpace = new(big.Int).Lsh(big.NewInt(1), 256)

// hashIncrement is the collision-walk step. Deliberately not 1, to reduce
// accidental adjacency collisions.
var hashIncrement = big.NewInt(10)

var (
	stripPattern      = regexp.MustCompile(`[.:` + "“”’" + `]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	nonAlnumPattern   = regexp.MustCompile(`[^0-9a-zA-Z]+`)
)

// robustAppend appends a normalized token to the running fingerprint:
// lower-cased, diacritic-stripped, punctuation-stripped, whitespace-collapsed,
// separated by "|". An empty value still appends an empty token so that each
// component keeps its position.
func robustAppend(s, value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "–", " ")
	value = strings.TrimSpace(value)
	value = stripPattern.ReplaceAllString(value, "")
	value = whitespacePattern.ReplaceAllString(value, " ")
	value = strings.ToLower(value)
	value = removeDiacritics(value)
	return s + "|" + value
}

// Compute derives the fingerprint string for a record. It is a pure function:
// the same record always yields the same string. Returns ErrNotEnoughData
// when both author and title are missing.
func Compute(rec *record.Record) (string, error) {
	if rec.Author == "" && rec.Title == "" {
		return "", fmt.Errorf("%w: record %q has neither author nor title", ErrNotEnoughData, rec.ID)
	}

	entryType := rec.EntryType
	if entryType == "" {
		entryType = "NA"
	}

	title := nonAlnumPattern.ReplaceAllString(rec.Title, " ")

	s := Version
	s = robustAppend(s, strings.ToLower(entryType))
	s = robustAppend(s, FormatAuthors(rec.Author))
	s = robustAppend(s, rec.Year)
	s = robustAppend(s, title)
	s = robustAppend(s, rec.ContainerTitle())
	s = robustAppend(s, rec.Volume)
	s = robustAppend(s, rec.Number)
	s = robustAppend(s, rec.Pages)

	return s, nil
}

// Hash returns the hex-encoded SHA-256 digest of a fingerprint string.
func Hash(fp string) string {
	sum := sha256.Sum256([]byte(fp))
	return hex.EncodeToString(sum[:])
}

// IncrementHash advances a hex digest to the next candidate slot for
// collision walking: the digest read as a big-endian unsigned integer plus a
// fixed increment, modulo 2^256.
func IncrementHash(h string) (string, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return "", fmt.Errorf("decoding hash %q: %w", h, err)
	}
	if len(raw) != sha256.Size {
		return "", fmt.Errorf("hash %q is not a sha256 digest", h)
	}

	n := new(big.Int).SetBytes(raw)
	n.Add(n, hashIncrement)
	n.Mod(n, hashSpace)

	out := make([]byte, sha256.Size)
	n.FillBytes(out)
	return hex.EncodeToString(out), nil
}
