package inject

import (
	"encoding/json"
	"fmt"
)

// ProvidedIn declares which injectors may run a token's default factory.
type ProvidedIn int

const (
	// ProvidedInNone never runs the default factory; the token must be
	// registered explicitly.
	ProvidedInNone ProvidedIn = iota

	// ProvidedInRoot runs the default factory in the root environment
	// injector: one created without a parent, or with AsRoot.
	// The instance is shared by every descendant.
	ProvidedInRoot

	// ProvidedInEnvironment runs the default factory in the nearest
	// environment-capable injector, so each environment gets its own instance.
	// Injectors created with WithoutEnvironment never run it.
	ProvidedInEnvironment
)

// String returns the string representation of the ProvidedIn.
func (p ProvidedIn) String() string {
	switch p {
	case ProvidedInNone:
		return "None"
	case ProvidedInRoot:
		return "Root"
	case ProvidedInEnvironment:
		return "Environment"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// IsValid checks if the value is one of the declared scopes.
func (p ProvidedIn) IsValid() bool {
	return p >= ProvidedInNone && p <= ProvidedInEnvironment
}

// MarshalText implements encoding.TextMarshaler.
func (p ProvidedIn) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ProvidedIn) UnmarshalText(text []byte) error {
	switch string(text) {
	case "None", "none", "":
		*p = ProvidedInNone
	case "Root", "root":
		*p = ProvidedInRoot
	case "Environment", "environment":
		*p = ProvidedInEnvironment
	default:
		return ProvidedInError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p ProvidedIn) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ProvidedIn) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return p.UnmarshalText([]byte(s))
}
