package wgsl

import (
	"errors"
	"fmt"
	"strings"
)

// Program is the linked interface of a vertex and a fragment module.
type Program struct {
	Vertex        *Module
	Fragment      *Module
	VertexEntry   string
	FragmentEntry string

	// Attributes are the located inputs of the vertex entry point.
	Attributes []Binding

	// Uniforms are the uniform bindings of both stages, deduplicated by
	// group and binding.
	Uniforms []Uniform

	// Sprite is set when the vertex entry point reads vertex_index, which
	// dot's point shaders use to expand a point into a quad.
	Sprite bool
}

// Link checks that vs and fs form a valid pipeline: each exposes its entry
// point, every located fragment input is written by the vertex stage with
// the same type, and uniforms shared by both stages agree. The error text
// lists every problem found, one per line.
func Link(vs, fs *Module) (*Program, error) {
	var problems []string

	var vEntry, fEntry *EntryPoint
	if vs == nil {
		problems = append(problems, "no vertex shader attached")
	} else if e, ok := vs.Entry(Vertex); ok {
		vEntry = e
	} else {
		problems = append(problems, "vertex shader has no @vertex entry point")
	}
	if fs == nil {
		problems = append(problems, "no fragment shader attached")
	} else if e, ok := fs.Entry(Fragment); ok {
		fEntry = e
	} else {
		problems = append(problems, "fragment shader has no @fragment entry point")
	}

	if vEntry != nil && fEntry != nil {
		outputs := make(map[int]Binding)
		for _, b := range located(vEntry.Outputs) {
			outputs[b.Location] = b
		}
		for _, in := range located(fEntry.Inputs) {
			out, ok := outputs[in.Location]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf(
					"fragment input %q at location %d is not written by the vertex stage", in.Name, in.Location))
			case out.Type != in.Type:
				problems = append(problems, fmt.Sprintf(
					"fragment input %q at location %d has type %s, vertex stage writes %s",
					in.Name, in.Location, in.Type, out.Type))
			}
		}
	}

	var uniforms []Uniform
	if len(problems) == 0 {
		seen := make(map[[2]int]Uniform)
		for _, m := range []*Module{vs, fs} {
			for _, u := range m.Uniforms {
				key := [2]int{u.Group, u.Binding}
				if prev, ok := seen[key]; ok {
					if prev.Type != u.Type {
						problems = append(problems, fmt.Sprintf(
							"uniform @group(%d) @binding(%d) declared as %s and %s", u.Group, u.Binding, prev.Type, u.Type))
					}
					continue
				}
				seen[key] = u
				uniforms = append(uniforms, u)
			}
		}
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "\n"))
	}

	return &Program{
		Vertex:        vs,
		Fragment:      fs,
		VertexEntry:   vEntry.Name,
		FragmentEntry: fEntry.Name,
		Attributes:    located(vEntry.Inputs),
		Uniforms:      uniforms,
		Sprite:        vEntry.HasBuiltinInput("vertex_index"),
	}, nil
}

// AttribLocation returns the location of the named vertex input, or -1.
func (p *Program) AttribLocation(name string) int {
	for _, a := range p.Attributes {
		if a.Name == name {
			return a.Location
		}
	}
	return -1
}

// Attribute returns the vertex input bound at location.
func (p *Program) Attribute(location int) (Binding, bool) {
	for _, a := range p.Attributes {
		if a.Location == location {
			return a, true
		}
	}
	return Binding{}, false
}
