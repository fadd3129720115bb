package identifier

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
)

const (
	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLen  = 4
	dateLayout = "20060102"

	DefaultMaxAttempts = 10
)

// ErrCollision is returned by an Assign callback when the candidate is already taken.
var ErrCollision = errors.New("identifier already taken")

type BookingIdentifiers struct {
	Reference string
	Invoice   string
}

type Generator struct {
	random io.Reader
}

func NewGenerator() *Generator {
	return &Generator{random: rand.Reader}
}

// NewGeneratorWithSource is used by tests to make candidates deterministic.
func NewGeneratorWithSource(r io.Reader) *Generator {
	return &Generator{random: r}
}

// Generate returns {prefix}-{YYYYMMDD}-{4 uppercase alphanumerics}.
func (g *Generator) Generate(prefix string, date time.Time) (string, error) {
	suffix, err := g.suffix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", prefix, date.Format(dateLayout), suffix), nil
}

// ForBooking returns a {P}-B2B-... reference and an INV-{P}-... invoice number.
func (g *Generator) ForBooking(companyPrefix string, date time.Time) (BookingIdentifiers, error) {
	ref, err := g.Generate(companyPrefix+"-B2B", date)
	if err != nil {
		return BookingIdentifiers{}, err
	}
	inv, err := g.Generate("INV-"+companyPrefix, date)
	if err != nil {
		return BookingIdentifiers{}, err
	}
	return BookingIdentifiers{Reference: ref, Invoice: inv}, nil
}

// Assign feeds fresh candidates to try until it returns something other than ErrCollision.
// After maxAttempts collisions it fails with domain.ErrIdentifiersExhausted.
func (g *Generator) Assign(
	ctx context.Context,
	companyPrefix string,
	date time.Time,
	maxAttempts int,
	onCollision func(BookingIdentifiers),
	try func(context.Context, BookingIdentifiers) error,
) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids, err := g.ForBooking(companyPrefix, date)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrDependency, err)
		}
		err = try(ctx, ids)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrCollision) {
			return err
		}
		if onCollision != nil {
			onCollision(ids)
		}
	}
	return fmt.Errorf("%w after %d attempts", domain.ErrIdentifiersExhausted, maxAttempts)
}

func (g *Generator) suffix() (string, error) {
	// 252 is the largest multiple of 36 that fits in a byte; higher values are skipped to avoid bias.
	const limit = 252
	out := make([]byte, 0, suffixLen)
	buf := make([]byte, suffixLen*2)
	for len(out) < suffixLen {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == suffixLen {
				break
			}
		}
	}
	return string(out), nil
}

// ReferencePattern matches booking references generated for companyPrefix.
func ReferencePattern(companyPrefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(companyPrefix) + `-B2B-\d{8}-[A-Z0-9]{4}$`)
}

// InvoicePattern matches invoice numbers generated for companyPrefix.
func InvoicePattern(companyPrefix string) *regexp.Regexp {
	return regexp.MustCompile(`^INV-` + regexp.QuoteMeta(companyPrefix) + `-\d{8}-[A-Z0-9]{4}$`)
}
