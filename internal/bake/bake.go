// Package bake discovers the Dockerfiles referenced by a Docker Buildx bake
// file so each can be audited.
package bake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Target is one bake target after inheritance has been applied.
type Target struct {
	Name       string
	Context    string
	Dockerfile string
	// Inline holds dockerfile-inline content; when set Dockerfile is unused.
	Inline string
}

// Path returns the Dockerfile location, resolved against the context the
// same way buildx does.
func (t Target) Path() string {
	if filepath.IsAbs(t.Dockerfile) {
		return t.Dockerfile
	}
	return filepath.Join(t.Context, t.Dockerfile)
}

type rawTarget struct {
	name     string
	attrs    map[string]string
	inherits []string
}

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "target", LabelNames: []string{"name"}},
		{Type: "variable", LabelNames: []string{"name"}},
	},
}

var targetSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "context"},
		{Name: "dockerfile"},
		{Name: "dockerfile-inline"},
		{Name: "inherits"},
	},
}

var variableSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "default"}},
}

// Parse reads an HCL (or JSON, by extension) bake file and returns its
// targets sorted by name. Relative contexts resolve against the bake
// file's directory. Variables take their default value unless overridden
// by an environment variable of the same name.
func Parse(path string) ([]Target, error) {
	parser := hclparse.NewParser()
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		file, diags = parser.ParseJSONFile(path)
	} else {
		file, diags = parser.ParseHCLFile(path)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse bake file: %s", diags.Error())
	}

	content, _, diags := file.Body.PartialContent(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse bake blocks: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{Variables: map[string]cty.Value{}}
	for _, block := range content.Blocks {
		if block.Type != "variable" {
			continue
		}
		name := block.Labels[0]
		if v, ok := os.LookupEnv(name); ok {
			ctx.Variables[name] = cty.StringVal(v)
			continue
		}
		vc, _, diags := block.Body.PartialContent(variableSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("variable %q: %s", name, diags.Error())
		}
		val := cty.StringVal("")
		if attr, ok := vc.Attributes["default"]; ok {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("variable %q default: %s", name, diags.Error())
			}
			val = v
		}
		ctx.Variables[name] = val
	}

	raws := map[string]*rawTarget{}
	for _, block := range content.Blocks {
		if block.Type != "target" {
			continue
		}
		rt, err := decodeTarget(block, ctx)
		if err != nil {
			return nil, err
		}
		raws[rt.name] = rt
	}

	base := filepath.Dir(path)
	names := make([]string, 0, len(raws))
	for name := range raws {
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make([]Target, 0, len(names))
	for _, name := range names {
		attrs, err := resolve(name, raws, map[string]bool{})
		if err != nil {
			return nil, err
		}
		t := Target{
			Name:       name,
			Context:    attrs["context"],
			Dockerfile: attrs["dockerfile"],
			Inline:     attrs["dockerfile-inline"],
		}
		if t.Context == "" {
			t.Context = "."
		}
		if !filepath.IsAbs(t.Context) {
			t.Context = filepath.Join(base, t.Context)
		}
		if t.Dockerfile == "" {
			t.Dockerfile = "Dockerfile"
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func decodeTarget(block *hcl.Block, ctx *hcl.EvalContext) (*rawTarget, error) {
	name := block.Labels[0]
	tc, _, diags := block.Body.PartialContent(targetSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("target %q: %s", name, diags.Error())
	}
	rt := &rawTarget{name: name, attrs: map[string]string{}}
	for attrName, attr := range tc.Attributes {
		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("target %q attribute %s: %s", name, attrName, diags.Error())
		}
		if val.IsNull() || !val.IsKnown() {
			continue
		}
		if attrName == "inherits" {
			if !val.Type().IsListType() && !val.Type().IsTupleType() {
				return nil, fmt.Errorf("target %q: inherits must be a list", name)
			}
			for _, el := range val.AsValueSlice() {
				if el.Type() != cty.String {
					return nil, fmt.Errorf("target %q: inherits entries must be strings", name)
				}
				rt.inherits = append(rt.inherits, el.AsString())
			}
			continue
		}
		if val.Type() != cty.String {
			return nil, fmt.Errorf("target %q attribute %s must be a string", name, attrName)
		}
		rt.attrs[attrName] = val.AsString()
	}
	return rt, nil
}

// resolve merges inherited attributes, parents first, so the target's own
// values win.
func resolve(name string, raws map[string]*rawTarget, visiting map[string]bool) (map[string]string, error) {
	rt, ok := raws[name]
	if !ok {
		return nil, fmt.Errorf("target %q is inherited but not defined", name)
	}
	if visiting[name] {
		return nil, fmt.Errorf("target %q inherits itself", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	out := map[string]string{}
	for _, parent := range rt.inherits {
		pa, err := resolve(parent, raws, visiting)
		if err != nil {
			return nil, err
		}
		for k, v := range pa {
			out[k] = v
		}
	}
	for k, v := range rt.attrs {
		out[k] = v
	}
	return out, nil
}
