// Package barcodeid encodes and decodes the short textual barcode values
// printed on product labels.
//
// A compact identifier is a three digit body, a one letter category suffix
// and a trailing check digit, e.g. "482X7". Older catalogs store the legacy
// dash-delimited form "<body>-<WORD>", e.g. "750000123-GEN". Both forms can
// coexist in one data set, so Parse reports which one it saw.
package barcodeid

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

// legacyPrefix is the fixed company prefix carried by legacy bodies.
const legacyPrefix = "750000"

// DefaultSuffix is used for any category the table does not know.
const DefaultSuffix = "G"

// ErrMalformed is returned by Parse for values neither scheme accepts.
var ErrMalformed = errors.New("barcodeid: malformed barcode value")

// suffixes maps a category word to its one letter suffix.
var suffixes = map[string]string{
	"H":   "H",
	"M":   "M",
	"MIX": "X",
	"NA":  "N",
	"GEN": "G",
}

// categoryOrder lists the category words in display order.
var categoryOrder = []string{"H", "M", "MIX", "NA", "GEN"}

// Category describes one entry of the suffix table.
type Category struct {
	Word   string `json:"word"`
	Suffix string `json:"suffix"`
	Label  string `json:"label"`
}

var categoryLabels = map[string]string{
	"H":   "men",
	"M":   "women",
	"MIX": "unisex",
	"NA":  "not applicable",
	"GEN": "generic",
}

// Categories returns the suffix table in display order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryOrder))
	for _, w := range categoryOrder {
		out = append(out, Category{Word: w, Suffix: suffixes[w], Label: categoryLabels[w]})
	}
	return out
}

// SuffixFor maps a category word (case-insensitive) to its suffix letter.
func SuffixFor(category string) string {
	if s, ok := suffixes[strings.ToUpper(strings.TrimSpace(category))]; ok {
		return s
	}
	return DefaultSuffix
}

// categoryWord normalizes a category to a known legacy word.
func categoryWord(category string) string {
	w := strings.ToUpper(strings.TrimSpace(category))
	if _, ok := suffixes[w]; ok {
		return w
	}
	return "GEN"
}

// Identifier is a compact barcode value split into its parts.
type Identifier struct {
	Body   string
	Suffix string
	Check  string
}

// String concatenates the parts into the printable value.
func (id Identifier) String() string {
	return id.Body + id.Suffix + id.Check
}

// Generator produces new identifiers. Implementations may add uniqueness
// checks; the random one does not.
type Generator interface {
	Generate(category string) Identifier
}

// Source is the random source the codec draws digits from.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Codec generates identifiers and converts legacy values. It is safe for
// concurrent use.
type Codec struct {
	mu  sync.Mutex
	src Source
}

// New creates a codec drawing from src.
func New(src Source) *Codec {
	return &Codec{src: src}
}

// NewRandom creates a codec backed by a randomly seeded PCG source.
func NewRandom() *Codec {
	return New(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

func (c *Codec) intN(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src.IntN(n)
}

func (c *Codec) checkDigit() string {
	return strconv.Itoa(c.intN(10))
}

// Generate draws a body in 100..999, maps category through the suffix table
// and appends a random check digit. Collisions with existing catalog entries
// are not checked.
func (c *Codec) Generate(category string) Identifier {
	return Identifier{
		Body:   strconv.Itoa(100 + c.intN(900)),
		Suffix: SuffixFor(category),
		Check:  c.checkDigit(),
	}
}

// ConvertLegacyToCompact rewrites "<body>-<WORD>" as body+suffix+digit.
// Values without a dash are returned unchanged. The check digit is drawn
// again on every call, so converting the same legacy value twice yields two
// well-formed but usually different results.
func (c *Codec) ConvertLegacyToCompact(legacy string) string {
	dash := strings.LastIndex(legacy, "-")
	if dash == -1 {
		return legacy
	}
	suffix := SuffixFor(legacy[dash+1:])
	body := strings.Replace(legacy[:dash], legacyPrefix, "", 1)
	return body + suffix + c.checkDigit()
}

// Format tells which scheme a barcode value uses.
type Format int

const (
	Compact Format = iota
	Legacy
)

func (f Format) String() string {
	switch f {
	case Compact:
		return "compact"
	case Legacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Code is a parsed barcode value. For Legacy codes Word holds the text after
// the dash and Check is empty; for Compact codes Word is empty.
type Code struct {
	Format Format `json:"-"`
	Raw    string `json:"raw"`
	Base   string `json:"base"`
	Suffix string `json:"suffix"`
	Word   string `json:"word,omitempty"`
	Check  string `json:"check,omitempty"`
}

// Parse picks the scheme by looking for a dash.
func Parse(code string) (Code, error) {
	if code == "" {
		return Code{}, ErrMalformed
	}
	if dash := strings.LastIndex(code, "-"); dash != -1 {
		word := code[dash+1:]
		return Code{
			Format: Legacy,
			Raw:    code,
			Base:   code[:dash],
			Suffix: SuffixFor(word),
			Word:   word,
		}, nil
	}
	if len(code) < 2 {
		return Code{}, ErrMalformed
	}
	n := len(code)
	return Code{
		Format: Compact,
		Raw:    code,
		Base:   code[:n-2],
		Suffix: code[n-2 : n-1],
		Check:  code[n-1:],
	}, nil
}

// DeriveSuffix returns the suffix part of code: the word after the last dash
// for legacy values, the second-to-last character for compact ones.
func DeriveSuffix(code string) string {
	if dash := strings.LastIndex(code, "-"); dash != -1 {
		return code[dash+1:]
	}
	if len(code) < 2 {
		return ""
	}
	return code[len(code)-2 : len(code)-1]
}

// DeriveBase returns everything before the suffix.
func DeriveBase(code string) string {
	if dash := strings.LastIndex(code, "-"); dash != -1 {
		return code[:dash]
	}
	if len(code) < 2 {
		return code
	}
	return code[:len(code)-2]
}

// WithSuffix replaces the category of code in whichever scheme it uses.
// Legacy values keep the word form, compact values keep their check digit.
func WithSuffix(code, category string) (string, error) {
	parsed, err := Parse(code)
	if err != nil {
		return "", err
	}
	if parsed.Format == Legacy {
		return parsed.Base + "-" + categoryWord(category), nil
	}
	return parsed.Base + SuffixFor(category) + parsed.Check, nil
}
