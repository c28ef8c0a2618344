// Package tessellate walks a conduit document and produces triangle
// meshes using a geometry kernel. One mesh is produced per conduit run
// and per fitting.
package tessellate

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/raceway/pkg/kernel"
	"github.com/chazu/raceway/pkg/model"
)

// hubScale sizes a fitting hub relative to the largest conduit it joins.
const hubScale = 1.4

// Tessellate produces one triangle mesh per conduit run and per fitting
// in the document. Runs carry absolute coordinates, so no transform
// accumulation is needed; the tessellator is read-only and never mutates
// the document. Node order is by name for deterministic output.
func Tessellate(d *model.Document, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if d == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh

	for _, n := range sortedByName(d.Conduits()) {
		mesh, err := meshConduit(k, n)
		if err != nil {
			return nil, fmt.Errorf("tessellate: run %s: %w", nameOf(n), err)
		}
		meshes = append(meshes, mesh)
	}

	for _, n := range sortedByName(d.Fittings()) {
		mesh, err := meshFitting(d, k, n)
		if err != nil {
			return nil, fmt.Errorf("tessellate: fitting %s: %w", nameOf(n), err)
		}
		meshes = append(meshes, mesh)
	}

	return meshes, nil
}

// meshConduit builds an oriented cylinder between the run endpoints.
func meshConduit(k kernel.Kernel, n *model.Node) (*kernel.Mesh, error) {
	cd, ok := n.Data.(model.ConduitData)
	if !ok {
		return nil, fmt.Errorf("conduit node has unexpected data type %T", n.Data)
	}

	length := cd.Run.Length()
	if length < 1e-9 {
		return nil, fmt.Errorf("degenerate run of length %g", length)
	}

	solid := k.Cylinder(length, cd.Diameter/2, 32)

	// Orient the Z-axis cylinder along the run direction: tilt by the
	// polar angle about Y, then swing by the azimuth about Z. The kernel
	// applies Euler rotations in X, Y, Z order.
	dir := cd.Run.Dir()
	polar := math.Acos(clamp(dir.Z, -1, 1)) * 180 / math.Pi
	azimuth := math.Atan2(dir.Y, dir.X) * 180 / math.Pi
	if polar != 0 || azimuth != 0 {
		solid = k.Rotate(solid, 0, polar, azimuth)
	}

	mid := cd.Run.Midpoint()
	solid = k.Translate(solid, mid.X, mid.Y, mid.Z)

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("ToMesh: %w", err)
	}
	mesh.PartName = nameOf(n)
	return mesh, nil
}

// meshFitting builds a hub sphere at the joint location, sized from the
// larger of the two conduits it joins.
func meshFitting(d *model.Document, k kernel.Kernel, n *model.Node) (*kernel.Mesh, error) {
	fd, ok := n.Data.(model.FittingData)
	if !ok {
		return nil, fmt.Errorf("fitting node has unexpected data type %T", n.Data)
	}

	diameter := 0.0
	for _, ref := range []model.ConnectorRef{fd.A, fd.B} {
		if c := d.Get(ref.Conduit); c != nil {
			if cd, ok := c.Data.(model.ConduitData); ok && cd.Diameter > diameter {
				diameter = cd.Diameter
			}
		}
	}
	if diameter <= 0 {
		diameter = d.Defaults.Diameter
	}

	solid := k.Sphere(hubScale * diameter / 2)
	solid = k.Translate(solid, fd.Location.X, fd.Location.Y, fd.Location.Z)

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("ToMesh: %w", err)
	}
	mesh.PartName = nameOf(n)
	return mesh, nil
}

// sortedByName orders nodes by name, falling back to ID for anonymous
// nodes, so mesh output is stable across evaluations.
func sortedByName(nodes []*model.Node) []*model.Node {
	sorted := append([]*model.Node(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool {
		ni, nj := nameOf(sorted[i]), nameOf(sorted[j])
		if ni != nj {
			return ni < nj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func nameOf(n *model.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
