package event

import "fmt"

var kindNames = [kindCount]string{
	KindParticle:       "particle",
	KindVerticalWall:   "vertical_wall",
	KindHorizontalWall: "horizontal_wall",
	KindRedraw:         "redraw",
}

var nameToKind = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k, name := range kindNames {
		m[name] = Kind(k)
	}
	return m
}()

// String returns the wire name of the kind
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind returns the Kind for a wire name
func ParseKind(name string) (Kind, bool) {
	k, ok := nameToKind[name]
	return k, ok
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	if k >= kindCount {
		return nil, fmt.Errorf("unknown event kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown event kind %q", text)
	}
	*k = parsed
	return nil
}

// Wall reports whether the kind is a wall contact
func (k Kind) Wall() bool {
	return k == KindVerticalWall || k == KindHorizontalWall
}
