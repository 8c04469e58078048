// This file is part of Replay64.
//
// Replay64 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Replay64 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Replay64.  If not, see <https://www.gnu.org/licenses/>.

package pipeline

import (
	_ "embed"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tasrun/replay64/curated"
	"github.com/tasrun/replay64/layout"
)

//go:embed variables.yaml
var builtinVariables []byte

const MalformedCatalogue = "pipeline: malformed catalogue: %v"

// entry binds a variable name to a data path and its display metadata.
type entry struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Path  string `yaml:"path"`

	// name of a constant in the layout's constants table. when set, the
	// variable decodes the path's integer against the constant as a mask
	Flag string `yaml:"flag,omitempty"`
}

type group struct {
	Name      string  `yaml:"name"`
	Variables []entry `yaml:"variables"`
}

type catalogueFile struct {
	Groups []group `yaml:"groups"`
}

type catalogue struct {
	groups  []string
	byGroup map[string][]string
	entries map[string]*entry
}

func parseCatalogue(data []byte) (*catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, curated.Errorf(MalformedCatalogue, err)
	}

	cat := &catalogue{
		byGroup: make(map[string][]string),
		entries: make(map[string]*entry),
	}

	for _, g := range f.Groups {
		cat.groups = append(cat.groups, g.Name)
		for i := range g.Variables {
			e := g.Variables[i]
			if e.Name == "" || e.Path == "" {
				return nil, curated.Errorf(MalformedCatalogue,
					curated.Errorf("variable without a name or path in group %s", g.Name))
			}
			cat.byGroup[g.Name] = append(cat.byGroup[g.Name], e.Name)
			cat.entries[e.Name] = &e
		}
	}

	return cat, nil
}

func builtinCatalogue() (*catalogue, error) {
	return parseCatalogue(builtinVariables)
}

func (cat *catalogue) entry(name string) (*entry, error) {
	e, ok := cat.entries[name]
	if !ok {
		return nil, curated.Errorf(UnknownVariable, name)
	}
	return e, nil
}

// ReadCatalogue replaces the variable catalogue with one read from the
// supplied reader. The built-in catalogue stays in place if the read
// fails.
func (p *Pipeline) ReadCatalogue(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return curated.Errorf(MalformedCatalogue, err)
	}
	cat, err := parseCatalogue(data)
	if err != nil {
		return err
	}
	p.cat = cat
	return nil
}

// Groups returns the catalogue's group names in declaration order.
func (p *Pipeline) Groups() []string {
	return p.cat.groups
}

// VariableGroup returns the variable names in a group, in declaration
// order.
func (p *Pipeline) VariableGroup(group string) ([]string, error) {
	names, ok := p.cat.byGroup[group]
	if !ok {
		return nil, curated.Errorf(UnknownGroup, group)
	}
	return names, nil
}

// Label returns the display label for a variable. Falls back to the
// variable name when the catalogue gives no label.
func (p *Pipeline) Label(name string) (string, error) {
	e, err := p.cat.entry(name)
	if err != nil {
		return "", err
	}
	if e.Label == "" {
		return e.Name, nil
	}
	return e.Label, nil
}

// variableType returns the declared type of the field a variable's path
// names.
func (p *Pipeline) variableType(name string) (layout.Type, string, error) {
	e, err := p.cat.entry(name)
	if err != nil {
		return nil, "", err
	}
	c, err := p.compile(e.Path)
	if err != nil {
		return nil, "", err
	}
	return c.Type(), e.Flag, nil
}

// IsInt returns true if the variable decodes to an integer.
func (p *Pipeline) IsInt(name string) (bool, error) {
	typ, flag, err := p.variableType(name)
	if err != nil {
		return false, err
	}
	if flag != "" {
		return false, nil
	}
	_, ok := typ.(layout.IntType)
	return ok, nil
}

// IsFloat returns true if the variable decodes to a float.
func (p *Pipeline) IsFloat(name string) (bool, error) {
	typ, flag, err := p.variableType(name)
	if err != nil {
		return false, err
	}
	if flag != "" {
		return false, nil
	}
	_, ok := typ.(layout.FloatType)
	return ok, nil
}

// IsBitFlag returns true if the variable decodes to a boolean against a
// mask, either through a flag-typed field or a catalogue flag constant.
func (p *Pipeline) IsBitFlag(name string) (bool, error) {
	typ, flag, err := p.variableType(name)
	if err != nil {
		return false, err
	}
	if flag != "" {
		return true, nil
	}
	_, ok := typ.(layout.FlagType)
	return ok, nil
}
