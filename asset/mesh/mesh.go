package mesh

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/achilleasa/meshbvh/bvh"
	"github.com/olekukonko/tablewriter"
)

// The archive format version written by Encode.
const archiveVersion = 1

var ErrUnsupportedVersion = errors.New("mesh: unsupported archive version")

// Mesh couples a named triangle mesh with its compiled BVH. The mesh
// geometry indices are the reordered buffer produced by the tree builder.
type Mesh struct {
	Name    string
	Tree    *bvh.Tree
	Options bvh.Options
}

// The gob encoded archive payload.
type archive struct {
	Version   uint8
	Name      string
	Positions []float32
	UVs       []float32
	Indices   []uint32
	Nodes     []bvh.FlatNode
	Options   bvh.Options
}

// Build the BVH for a mesh.
func Compile(name string, geo bvh.Geometry, opts bvh.Options) (*Mesh, error) {
	tree, err := bvh.Build(geo, opts)
	if err != nil {
		return nil, fmt.Errorf("mesh %q: %w", name, err)
	}

	return &Mesh{
		Name:    name,
		Tree:    tree,
		Options: opts,
	}, nil
}

// Get the mesh geometry with reordered indices.
func (m *Mesh) Geometry() bvh.Geometry {
	return m.Tree.Geometry()
}

// Write the mesh as a compressed archive.
func (m *Mesh) Encode(w io.Writer, codec Codec) error {
	header := append(archiveMagic[:], byte(codec))
	cw, err := codec.newWriter(w)
	if err != nil {
		return err
	}
	if _, err = w.Write(header); err != nil {
		return err
	}

	geo := m.Geometry()
	payload := archive{
		Version:   archiveVersion,
		Name:      m.Name,
		Positions: geo.Positions,
		UVs:       geo.UVs,
		Indices:   geo.Indices,
		Nodes:     bvh.Flatten(m.Tree.Root()),
		Options:   m.Options,
	}
	if err = gob.NewEncoder(cw).Encode(&payload); err != nil {
		cw.Close()
		return fmt.Errorf("mesh: could not encode %q: %w", m.Name, err)
	}
	return cw.Close()
}

// Read a mesh from a compressed archive.
func Decode(r io.Reader) (*Mesh, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if !bytes.Equal(header[:4], archiveMagic[:]) {
		return nil, ErrBadMagic
	}

	codec := Codec(header[4])
	cr, err := codec.newReader(r)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	var payload archive
	if err = gob.NewDecoder(cr).Decode(&payload); err != nil {
		return nil, fmt.Errorf("mesh: could not decode archive: %w", err)
	}
	if payload.Version != archiveVersion {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedVersion, payload.Version)
	}

	geo := bvh.Geometry{
		Positions: payload.Positions,
		UVs:       payload.UVs,
		Indices:   payload.Indices,
	}
	if err = geo.Validate(); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", payload.Name, err)
	}

	root, err := bvh.Unflatten(payload.Nodes, geo.TriangleCount())
	if err != nil {
		return nil, fmt.Errorf("mesh %q: %w", payload.Name, err)
	}

	return &Mesh{
		Name:    payload.Name,
		Tree:    bvh.NewTree(geo, root, bvh.NewIndexBuffer(geo.VertexCount(), geo.Indices)),
		Options: payload.Options,
	}, nil
}

// Build a tabular representation of the mesh buffer sizes.
func (m *Mesh) Stats() string {
	geo := m.Geometry()
	nodes := bvh.Flatten(m.Tree.Root())
	indexBytes := m.Tree.Indices().Len() * m.Tree.Indices().Width()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Buffer", "Count", "Size"})
	table.Append([]string{"Vertices", fmt.Sprint(geo.VertexCount()), fmtSize(geo.Positions)})
	table.Append([]string{"UVs", fmt.Sprint(len(geo.UVs) / 2), fmtSize(geo.UVs)})
	table.Append([]string{"Indices", fmt.Sprint(m.Tree.Indices().Len()), fmtBytes(indexBytes)})
	table.Append([]string{"BVH nodes", fmt.Sprint(len(nodes)), fmtSize(nodes)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtBytes(sizeOf(geo.Positions, geo.UVs, nodes)+indexBytes), " ")})

	table.Render()
	return buf.String()
}

// Sum the space used by a set of slices.
func sizeOf(items ...interface{}) int {
	var total int
	for _, item := range items {
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}
		total += int(v.Type().Elem().Size()) * v.Len()
	}
	return total
}

// Format the space used by a set of slices with the appropriate
// byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	return fmtBytes(sizeOf(items...))
}

func fmtBytes(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
