package scene

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPath is returned for curve paths that do not address a pose bone property.
var ErrMalformedPath = errors.New("malformed pose bone data path")

const poseBonePrefix = `pose.bones["`

// ParseDataPath splits a curve path of the form pose.bones["<name>"].<property>
// into bone name and property. Inside the quoted name, \" and \\ are escapes.
func ParseDataPath(path string) (bone, property string, err error) {
	if !strings.HasPrefix(path, poseBonePrefix) {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedPath, path)
	}
	rest := path[len(poseBonePrefix):]

	var name strings.Builder
	i := 0
	closed := false
	for i < len(rest) {
		c := rest[i]
		if c == '\\' && i+1 < len(rest) {
			name.WriteByte(rest[i+1])
			i += 2
			continue
		}
		if c == '"' {
			closed = true
			break
		}
		name.WriteByte(c)
		i++
	}
	if !closed || name.Len() == 0 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedPath, path)
	}

	rest = rest[i+1:]
	if !strings.HasPrefix(rest, "].") {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedPath, path)
	}
	property = rest[2:]
	if property == "" || strings.ContainsAny(property, `.[]"`) {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedPath, path)
	}
	return name.String(), property, nil
}

// PoseBonePath builds the curve path for a bone property.
func PoseBonePath(bone, property string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(bone)
	return poseBonePrefix + escaped + `"].` + property
}
