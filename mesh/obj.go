package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadOBJ parses vertex positions and faces from Wavefront OBJ text.
// Texture and normal indices are ignored; negative indices are resolved
// relative to the current vertex count.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	m := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			var c [3]float64
			for i := range c {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: parsing vertex: %w", line, err)
				}
				c[i] = f
			}
			m.AddVertex(r3.Vec{X: c[0], Y: c[1], Z: c[2]})
		case "f":
			vs := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				idx, err := strconv.Atoi(strings.SplitN(tok, "/", 2)[0])
				if err != nil {
					return nil, fmt.Errorf("line %d: parsing face index: %w", line, err)
				}
				if idx < 0 {
					idx = len(m.Verts) + idx
				} else {
					idx--
				}
				vs = append(vs, idx)
			}
			if err := m.AddFace(vs...); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading obj: %w", err)
	}
	return m, nil
}

// WriteOBJ writes the mesh as Wavefront OBJ text.
func (m *Mesh) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, p := range m.Verts {
		fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	for _, f := range m.Faces {
		bw.WriteString("f")
		for _, v := range f {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(v + 1))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing obj: %w", err)
	}
	return nil
}
