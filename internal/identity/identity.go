// Package identity parses and compares legacy assembly reference strings of
// the form "Name[, Version=V][, Culture=C][, PublicKeyToken=T]".
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Assembly is a parsed assembly identity. Version, Culture and Token are
// optional and empty when absent from the source string.
type Assembly struct {
	Name    string
	Version string
	Culture string
	Token   string
}

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// Parse splits a <Reference Include="..."> value into its components.
// The name is required; every other attribute is optional.
func Parse(include string) (Assembly, error) {
	parts := strings.Split(include, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Assembly{}, errors.New("identity: empty assembly name")
	}

	a := Assembly{Name: name}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		switch strings.ToLower(key) {
		case "version":
			a.Version = val
		case "culture":
			if !strings.EqualFold(val, "neutral") {
				a.Culture = val
			}
		case "publickeytoken":
			if strings.EqualFold(val, "null") {
				a.Token = ""
			} else {
				a.Token = strings.ToLower(val)
			}
		}
	}

	if a.Token != "" && !tokenPattern.MatchString(a.Token) {
		return Assembly{}, errors.Errorf("identity: malformed public key token %q for %q", a.Token, name)
	}

	return a, nil
}

// String renders the identity back into the canonical
// "Name, Version=V, Culture=neutral, PublicKeyToken=T" shape used by
// <Reference Include="..."> preservation.
func (a Assembly) String() string {
	var b strings.Builder
	b.WriteString(a.Name)
	if a.Version != "" {
		fmt.Fprintf(&b, ", Version=%s", a.Version)
	}
	culture := a.Culture
	if culture == "" {
		culture = "neutral"
	}
	fmt.Fprintf(&b, ", Culture=%s", culture)
	token := a.Token
	if token == "" {
		token = "null"
	}
	fmt.Fprintf(&b, ", PublicKeyToken=%s", token)
	return b.String()
}

// Equal reports identity equivalence: names compare case-insensitively, and
// two identities whose tokens are both non-empty and differ are never
// equivalent regardless of version or culture.
func (a Assembly) Equal(b Assembly) bool {
	if !strings.EqualFold(a.Name, b.Name) {
		return false
	}
	if a.Token != "" && b.Token != "" && a.Token != b.Token {
		return false
	}
	return true
}

// TokenCompatible reports whether probe's token is acceptable against a
// published token: either probe has no token asserted, or the tokens match
// case-insensitively. Used by the resolver's contains_assembly check.
func TokenCompatible(published, probe string) bool {
	if probe == "" {
		return true
	}
	return strings.EqualFold(published, probe)
}
