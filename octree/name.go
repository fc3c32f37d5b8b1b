package octree

import (
	"strings"

	"github.com/pkg/errors"
)

const rootPrefix = "r"

// Name identifies a node by the octant codes chosen on the path from the root. The
// root has an empty path. Names are comparable and usable as map keys.
type Name struct {
	path string
}

// RootName is the name of the root node.
var RootName = Name{}

// ParseName parses the textual form of a name, "r" followed by one octal digit per level.
func ParseName(s string) (Name, error) {
	if !strings.HasPrefix(s, rootPrefix) {
		return Name{}, errors.Errorf("invalid node name %q: missing %q prefix", s, rootPrefix)
	}
	digits := s[len(rootPrefix):]
	path := make([]byte, len(digits))
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '7' {
			return Name{}, errors.Errorf("invalid node name %q: %q is not an octant", s, c)
		}
		path[i] = c - '0'
	}
	return Name{path: string(path)}, nil
}

// Child returns the name of the child in the given octant.
func (n Name) Child(octant int) Name {
	return Name{path: n.path + string([]byte{byte(octant & 0b111)})}
}

// Level returns the depth of the node, zero for the root.
func (n Name) Level() int {
	return len(n.path)
}

// Len returns the length of the textual form of the name, which is Level()+1.
func (n Name) Len() int {
	return len(rootPrefix) + len(n.path)
}

// Octant returns the octant code chosen at the given level, counting from zero.
func (n Name) Octant(level int) int {
	return int(n.path[level])
}

// IsRoot reports whether n names the root.
func (n Name) IsRoot() bool {
	return n.path == ""
}

// Less orders names breadth first: shallower names first, then by octant path.
func (n Name) Less(other Name) bool {
	if len(n.path) != len(other.path) {
		return len(n.path) < len(other.path)
	}
	return n.path < other.path
}

// String returns "r" followed by one octal digit per level.
func (n Name) String() string {
	var sb strings.Builder
	sb.Grow(n.Len())
	sb.WriteString(rootPrefix)
	for i := 0; i < len(n.path); i++ {
		sb.WriteByte('0' + n.path[i])
	}
	return sb.String()
}
