package filter

import (
	"fmt"
	"strings"

	"github.com/ds124wfegd/instafilter/internal/entity"
)

// Kind is one entry of the fixed filter catalog.
type Kind int

const (
	PencilSketch Kind = iota
	Brannan
	Mayfair
	Brooklyn
	Reyes
)

var names = [...]string{
	PencilSketch: "pencil sketch",
	Brannan:      "brannan",
	Mayfair:      "mayfair",
	Brooklyn:     "brooklyn",
	Reyes:        "reyes",
}

// Kinds lists the catalog in display order.
func Kinds() []Kind {
	return []Kind{PencilSketch, Brannan, Mayfair, Brooklyn, Reyes}
}

// Names lists the catalog names in display order.
func Names() []string {
	out := make([]string, 0, len(names))
	for _, k := range Kinds() {
		out = append(out, k.String())
	}
	return out
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

// Slug is the name with spaces replaced, suitable for keys and URLs.
func (k Kind) Slug() string {
	return strings.ReplaceAll(k.String(), " ", "-")
}

// Valid reports whether k belongs to the catalog.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(names)
}

// Parse resolves a filter name. Matching is case-insensitive and treats
// '-' and '_' like spaces, so "Pencil-Sketch" selects PencilSketch.
func Parse(name string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")

	for _, k := range Kinds() {
		if names[k] == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", entity.ErrUnknownFilter, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", entity.ErrUnknownFilter, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
