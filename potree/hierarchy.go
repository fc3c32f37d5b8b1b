package potree

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/pkg/errors"

	"go.viam.com/potree/octree"
)

// NodeType is the type of a hierarchy record.
type NodeType uint8

// The types of hierarchy records.
const (
	NormalNode = NodeType(iota)
	LeafNode
	ProxyNode
)

func (t NodeType) String() string {
	switch t {
	case NormalNode:
		return "normal"
	case LeafNode:
		return "leaf"
	case ProxyNode:
		return "proxy"
	default:
		return "unknown"
	}
}

// Hierarchy is the encoded, chunked index over an octree.
type Hierarchy struct {
	// StepSize is the number of levels spanned by a chunk.
	StepSize int
	// Buffer holds every chunk back to back, the root chunk first.
	Buffer []byte
	// FirstChunkSize is the byte length of the root chunk.
	FirstChunkSize uint64
	// Depth is the deepest node level in the tree.
	Depth int
	// NumChunks is the number of chunks in Buffer.
	NumChunks int
}

// hierarchyChunk is the set of nodes encoded together, rooted at root.
type hierarchyChunk struct {
	root  *octree.Node
	nodes []*octree.Node
}

func (c *hierarchyChunk) byteSize() uint64 {
	return uint64(len(c.nodes)) * BytesPerHierarchyNode
}

// gatherChunk collects start and all of its descendants up to and including levels
// deeper than start.
func gatherChunk(start *octree.Node, levels int) *hierarchyChunk {
	chunk := &hierarchyChunk{root: start}
	maxLevel := start.Level() + levels
	stack := []*octree.Node{start}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		chunk.nodes = append(chunk.nodes, node)
		if node.Level() < maxLevel {
			for _, child := range node.Children() {
				if child != nil {
					stack = append(stack, child)
				}
			}
		}
	}
	return chunk
}

func isProxy(node *octree.Node, chunkRoot *octree.Node, stepSize int) bool {
	return node.Level() == chunkRoot.Level()+stepSize
}

// createChunks splits the tree into chunks. Nodes on a chunk boundary start a chunk of
// their own. Chunks are returned in discovery order.
func createChunks(root *octree.Node, stepSize int) []*hierarchyChunk {
	var chunks []*hierarchyChunk
	stack := []*octree.Node{root}
	for len(stack) > 0 {
		chunkRoot := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		chunk := gatherChunk(chunkRoot, stepSize)
		for _, node := range chunk.nodes {
			if isProxy(node, chunkRoot, stepSize) {
				stack = append(stack, node)
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func sortBreadthFirst(nodes []*octree.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name().Less(nodes[j].Name())
	})
}

// EncodeHierarchy encodes the tree into chunks of fixed size records. Normal and leaf
// records point into the point-data file using ranges; proxy records point at the chunk
// continuing their subtree inside the returned buffer.
func EncodeHierarchy(tree *octree.Octree, ranges ByteRanges) (*Hierarchy, error) {
	chunks := createChunks(tree.Root(), HierarchyStepSize)

	chunkIndex := make(map[octree.Name]int, len(chunks))
	chunkOffsets := make([]uint64, len(chunks))
	var bufferSize uint64
	for i, chunk := range chunks {
		chunkIndex[chunk.root.Name()] = i
		sortBreadthFirst(chunk.nodes)
		chunkOffsets[i] = bufferSize
		bufferSize += chunk.byteSize()
	}

	hierarchy := &Hierarchy{
		StepSize:       HierarchyStepSize,
		Buffer:         make([]byte, bufferSize),
		FirstChunkSize: chunks[0].byteSize(),
		NumChunks:      len(chunks),
	}

	var offset int
	for _, chunk := range chunks {
		for _, node := range chunk.nodes {
			record := HierarchyRecord{
				Type:      NormalNode,
				ChildMask: node.ChildMask(),
			}
			if node.IsLeaf() {
				record.Type = LeafNode
			}
			numPoints := node.NumPoints()
			if uint64(numPoints) > math.MaxUint32 {
				return nil, errors.Errorf("node %s holds too many points (%d)", node.Name(), numPoints)
			}
			record.NumPoints = uint32(numPoints)

			if isProxy(node, chunk.root, HierarchyStepSize) {
				target := chunkIndex[node.Name()]
				record.Type = ProxyNode
				record.TargetOffset = chunkOffsets[target]
				record.TargetSize = chunks[target].byteSize()
			} else {
				byteRange, ok := ranges[node.Name()]
				if !ok {
					return nil, &HierarchyConsistencyError{Name: node.Name()}
				}
				record.TargetOffset = byteRange.Offset
				record.TargetSize = byteRange.Size
			}

			record.put(hierarchy.Buffer[offset : offset+BytesPerHierarchyNode])
			offset += BytesPerHierarchyNode
			if node.Level() > hierarchy.Depth {
				hierarchy.Depth = node.Level()
			}
		}
	}
	return hierarchy, nil
}

// HierarchyRecord is a decoded hierarchy node.
type HierarchyRecord struct {
	Name         octree.Name
	Type         NodeType
	ChildMask    uint8
	NumPoints    uint32
	TargetOffset uint64
	TargetSize   uint64
}

func (r *HierarchyRecord) put(buf []byte) {
	buf[0] = byte(r.Type)
	buf[1] = r.ChildMask
	binary.LittleEndian.PutUint32(buf[2:], r.NumPoints)
	binary.LittleEndian.PutUint64(buf[6:], r.TargetOffset)
	binary.LittleEndian.PutUint64(buf[14:], r.TargetSize)
}

func (r *HierarchyRecord) read(buf []byte) {
	r.Type = NodeType(buf[0])
	r.ChildMask = buf[1]
	r.NumPoints = binary.LittleEndian.Uint32(buf[2:])
	r.TargetOffset = binary.LittleEndian.Uint64(buf[6:])
	r.TargetSize = binary.LittleEndian.Uint64(buf[14:])
}

// DecodeChunk decodes one chunk whose root node has the given name. Names of the other
// records are reconstructed from the child masks the same way a streaming client does:
// records are in breadth first order and the children of proxies live in other chunks.
func DecodeChunk(chunk []byte, root octree.Name) ([]HierarchyRecord, error) {
	if len(chunk) == 0 || len(chunk)%BytesPerHierarchyNode != 0 {
		return nil, errors.Errorf("invalid hierarchy chunk size (%d)", len(chunk))
	}
	records := make([]HierarchyRecord, len(chunk)/BytesPerHierarchyNode)
	for i := range records {
		records[i].read(chunk[i*BytesPerHierarchyNode:])
	}

	records[0].Name = root
	next := 1
	for i := range records {
		if i >= next {
			return nil, errors.Errorf("hierarchy chunk %s has %d unreachable records", root, len(records)-next)
		}
		if records[i].Type > ProxyNode {
			return nil, errors.Errorf("hierarchy record %s has unknown node type %d", records[i].Name, records[i].Type)
		}
		if records[i].Type == ProxyNode {
			continue
		}
		for octant := 0; octant < 8; octant++ {
			if records[i].ChildMask&(1<<octant) == 0 {
				continue
			}
			if next >= len(records) {
				return nil, errors.Errorf("hierarchy chunk %s is missing child %d of %s",
					root, octant, records[i].Name)
			}
			records[next].Name = records[i].Name.Child(octant)
			next++
		}
	}
	if next != len(records) {
		return nil, errors.Errorf("hierarchy chunk %s has %d unreachable records", root, len(records)-next)
	}
	return records, nil
}

// WalkChunks decodes every chunk reachable from the root chunk, following proxies, and
// calls fn with the name of each chunk's root and its decoded records. Every proxy must
// sit HierarchyStepSize levels below its chunk's root and target a chunk no other proxy
// targets.
func WalkChunks(buffer []byte, firstChunkSize uint64, fn func(root octree.Name, records []HierarchyRecord) error) error {
	type pending struct {
		name   octree.Name
		offset uint64
		size   uint64
	}
	stack := []pending{{name: octree.RootName, offset: 0, size: firstChunkSize}}
	visited := map[uint64]struct{}{0: {}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.offset > uint64(len(buffer)) || p.size > uint64(len(buffer))-p.offset {
			return errors.Errorf("hierarchy chunk %s at offset %d with size %d exceeds buffer size %d",
				p.name, p.offset, p.size, len(buffer))
		}
		records, err := DecodeChunk(buffer[p.offset:p.offset+p.size], p.name)
		if err != nil {
			return err
		}
		if err := fn(p.name, records); err != nil {
			return err
		}
		for _, r := range records {
			if r.Type != ProxyNode {
				continue
			}
			if r.Name.Level() != p.name.Level()+HierarchyStepSize {
				return errors.Errorf("proxy %s is not %d levels below its chunk root %s",
					r.Name, HierarchyStepSize, p.name)
			}
			if _, ok := visited[r.TargetOffset]; ok {
				return errors.Errorf("proxy %s targets hierarchy chunk at offset %d more than once", r.Name, r.TargetOffset)
			}
			visited[r.TargetOffset] = struct{}{}
			stack = append(stack, pending{name: r.Name, offset: r.TargetOffset, size: r.TargetSize})
		}
	}
	return nil
}

// WalkHierarchy calls fn for every record that is not a proxy, in chunk order. Each node
// of the tree is visited exactly once.
func WalkHierarchy(buffer []byte, firstChunkSize uint64, fn func(r HierarchyRecord) error) error {
	return WalkChunks(buffer, firstChunkSize, func(_ octree.Name, records []HierarchyRecord) error {
		for _, r := range records {
			if r.Type == ProxyNode {
				continue
			}
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
}
