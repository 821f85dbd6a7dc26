package catalog

import (
	"fmt"
	"sync"
)

// Catalog is an immutable, ordered set of tool signatures.
// It is safe for concurrent use.
type Catalog struct {
	signatures []ToolSignature
	index      map[string]int
}

// New builds a catalog from sigs, preserving their order.
// Every signature is validated and copied.
func New(sigs ...ToolSignature) (*Catalog, error) {
	c := &Catalog{
		signatures: make([]ToolSignature, 0, len(sigs)),
		index:      make(map[string]int, len(sigs)),
	}
	for _, s := range sigs {
		if err := c.add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(s ToolSignature) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, exists := c.index[s.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}
	c.index[s.Name] = len(c.signatures)
	c.signatures = append(c.signatures, s.clone())
	return nil
}

var builtin = sync.OnceValue(func() *Catalog {
	c, err := New(builtinSignatures()...)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid built-in signature: %v", err))
	}
	return c
})

// Builtin returns the built-in catalog.
func Builtin() *Catalog {
	return builtin()
}

// Extend returns a new catalog containing c's signatures followed by extra.
// c itself is not modified.
func (c *Catalog) Extend(extra ...ToolSignature) (*Catalog, error) {
	all := make([]ToolSignature, 0, len(c.signatures)+len(extra))
	all = append(all, c.signatures...)
	all = append(all, extra...)
	return New(all...)
}

// Lookup returns copies of all signatures in catalog order.
func (c *Catalog) Lookup() []ToolSignature {
	out := make([]ToolSignature, len(c.signatures))
	for i, s := range c.signatures {
		out[i] = s.clone()
	}
	return out
}

// Get returns a copy of the signature named name.
func (c *Catalog) Get(name string) (ToolSignature, bool) {
	i, ok := c.index[name]
	if !ok {
		return ToolSignature{}, false
	}
	return c.signatures[i].clone(), true
}

// Names returns the tool names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.signatures))
	for i, s := range c.signatures {
		names[i] = s.Name
	}
	return names
}

// Len returns the number of signatures.
func (c *Catalog) Len() int {
	return len(c.signatures)
}

// URLPatterns returns every URL pattern of every signature.
func (c *Catalog) URLPatterns() []string {
	var patterns []string
	for _, s := range c.signatures {
		patterns = append(patterns, s.URLPatterns...)
	}
	return patterns
}

// Attributed reports whether url matches the URL patterns of any cataloged
// tool.
func (c *Catalog) Attributed(url string) bool {
	for _, s := range c.signatures {
		if s.MatchesURL(url) {
			return true
		}
	}
	return false
}
