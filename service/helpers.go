package service

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode"

	"petopia/apperror"
	"petopia/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func utcNow() time.Time { return time.Now().UTC() }

// storeErr converts repository sentinels into API errors. dup is the code
// reported for unique index violations.
func storeErr(err error, dup apperror.Code) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperror.Wrap(apperror.CodeNotFound, err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Wrap(dup, err)
	default:
		return err
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.Wrap(apperror.CodeInvalidID, err)
	}
	return oid, nil
}

// Slugify lower-cases s, strips accents and joins words with hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
