// Package xmlschema holds the XML element types shared by the feed and
// selections formats, with conversions to and from the model types.
package xmlschema

import (
	"encoding/xml"
	"strings"

	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// Namespace is the XML namespace of feeds and selections documents.
const Namespace = "http://zero-install.sourceforge.net/2004/injector/interface"

// Arg is a command-line argument element.
type Arg struct {
	Value string `xml:",chardata"`
}

// Binding is any of the binding elements; XMLName.Local holds the kind.
type Binding struct {
	XMLName    xml.Name
	Name       string `xml:"name,attr,omitempty"`
	Insert     string `xml:"insert,attr,omitempty"`
	Value      string `xml:"value,attr,omitempty"`
	Mode       string `xml:"mode,attr,omitempty"`
	Separator  string `xml:"separator,attr,omitempty"`
	Default    string `xml:"default,attr,omitempty"`
	Source     string `xml:"src,attr,omitempty"`
	MountPoint string `xml:"mount-point,attr,omitempty"`
	Command    string `xml:"command,attr,omitempty"`
}

// VersionElem is the legacy <version not-before before> child of <requires>.
type VersionElem struct {
	NotBefore string `xml:"not-before,attr,omitempty"`
	Before    string `xml:"before,attr,omitempty"`
}

// Dependency is a <requires>, <restricts> or <runner> element.
type Dependency struct {
	Interface    string        `xml:"interface,attr"`
	Importance   string        `xml:"importance,attr,omitempty"`
	Version      string        `xml:"version,attr,omitempty"`
	OS           string        `xml:"os,attr,omitempty"`
	Distribution string        `xml:"distribution,attr,omitempty"`
	Versions     []VersionElem `xml:"version"`
	Bindings     []Binding     `xml:",any"`
}

// Runner is the <runner> element of a command.
type Runner struct {
	Dependency
	Command string `xml:"command,attr,omitempty"`
	Args    []Arg  `xml:"arg"`
}

// Command is a <command> element.
type Command struct {
	Name      string       `xml:"name,attr"`
	Path      string       `xml:"path,attr,omitempty"`
	Args      []Arg        `xml:"arg"`
	Runner    *Runner      `xml:"runner"`
	Requires  []Dependency `xml:"requires"`
	Restricts []Dependency `xml:"restricts"`
	Bindings  []Binding    `xml:",any"`
}

// ManifestDigest is the <manifest-digest> element.
type ManifestDigest struct {
	Sha1New   string `xml:"sha1new,attr,omitempty"`
	Sha256    string `xml:"sha256,attr,omitempty"`
	Sha256New string `xml:"sha256new,attr,omitempty"`
}

var bindingKinds = map[string]model.BindingKind{
	string(model.BindEnvironment):      model.BindEnvironment,
	string(model.BindOverlay):          model.BindOverlay,
	string(model.BindExecutableInVar):  model.BindExecutableInVar,
	string(model.BindExecutableInPath): model.BindExecutableInPath,
}

// ToBindings converts binding elements, dropping unknown element names
// collected by ",any" fields.
func ToBindings(in []Binding) []model.Binding {
	var out []model.Binding
	for _, b := range in {
		kind, ok := bindingKinds[b.XMLName.Local]
		if !ok {
			continue
		}
		out = append(out, model.Binding{
			Kind:       kind,
			Name:       b.Name,
			Insert:     b.Insert,
			Value:      b.Value,
			Mode:       model.EnvMode(b.Mode),
			Separator:  b.Separator,
			Default:    b.Default,
			Source:     b.Source,
			MountPoint: b.MountPoint,
			Command:    b.Command,
		})
	}
	return out
}

// FromBindings converts model bindings to elements.
func FromBindings(in []model.Binding) []Binding {
	var out []Binding
	for _, b := range in {
		out = append(out, Binding{
			XMLName:    xml.Name{Local: string(b.Kind)},
			Name:       b.Name,
			Insert:     b.Insert,
			Value:      b.Value,
			Mode:       string(b.Mode),
			Separator:  b.Separator,
			Default:    b.Default,
			Source:     b.Source,
			MountPoint: b.MountPoint,
			Command:    b.Command,
		})
	}
	return out
}

// Range combines the version attribute and legacy <version> children.
func (d Dependency) Range() (version.Range, error) {
	rng := version.Any()
	if d.Version != "" {
		parsed, err := version.ParseRange(d.Version)
		if err != nil {
			return version.Range{}, err
		}
		rng = parsed
	}
	for _, ve := range d.Versions {
		var lo, hi version.Version
		var err error
		if ve.NotBefore != "" {
			if lo, err = version.Parse(ve.NotBefore); err != nil {
				return version.Range{}, err
			}
		}
		if ve.Before != "" {
			if hi, err = version.Parse(ve.Before); err != nil {
				return version.Range{}, err
			}
		}
		rng = rng.Intersect(version.Between(lo, hi))
	}
	return rng, nil
}

// ToDependency converts a <requires> element.
func (d Dependency) ToDependency() (model.Dependency, error) {
	rng, err := d.Range()
	if err != nil {
		return model.Dependency{}, err
	}
	dep := model.Dependency{
		InterfaceURI: d.Interface,
		Versions:     rng,
		Bindings:     ToBindings(d.Bindings),
		OS:           model.OS(d.OS),
	}
	if d.Importance == model.Recommended.String() {
		dep.Importance = model.Recommended
	}
	return dep, nil
}

// ToRestriction converts a <restricts> element.
func (d Dependency) ToRestriction() (model.Restriction, error) {
	rng, err := d.Range()
	if err != nil {
		return model.Restriction{}, err
	}
	return model.Restriction{
		InterfaceURI:  d.Interface,
		Versions:      rng,
		Distributions: strings.Fields(d.Distribution),
	}, nil
}

// FromDependency converts a model dependency to a <requires> element.
func FromDependency(dep model.Dependency) Dependency {
	out := Dependency{
		Interface: dep.InterfaceURI,
		OS:        string(dep.OS),
		Bindings:  FromBindings(dep.Bindings),
	}
	if !dep.Versions.IsAny() {
		out.Version = dep.Versions.String()
	}
	if dep.Importance == model.Recommended {
		out.Importance = dep.Importance.String()
	}
	return out
}

// FromRestriction converts a model restriction to a <restricts> element.
func FromRestriction(r model.Restriction) Dependency {
	out := Dependency{
		Interface:    r.InterfaceURI,
		Distribution: strings.Join(r.Distributions, " "),
	}
	if !r.Versions.IsAny() {
		out.Version = r.Versions.String()
	}
	return out
}

func toArgs(in []Arg) []string {
	var out []string
	for _, a := range in {
		out = append(out, a.Value)
	}
	return out
}

func fromArgs(in []string) []Arg {
	var out []Arg
	for _, a := range in {
		out = append(out, Arg{Value: a})
	}
	return out
}

// ToCommand converts a <command> element.
func (c Command) ToCommand() (model.Command, error) {
	cmd := model.Command{
		Name:     c.Name,
		Path:     c.Path,
		Args:     toArgs(c.Args),
		Bindings: ToBindings(c.Bindings),
	}
	for _, r := range c.Requires {
		dep, err := r.ToDependency()
		if err != nil {
			return model.Command{}, err
		}
		cmd.Dependencies = append(cmd.Dependencies, dep)
	}
	for _, r := range c.Restricts {
		res, err := r.ToRestriction()
		if err != nil {
			return model.Command{}, err
		}
		cmd.Restrictions = append(cmd.Restrictions, res)
	}
	if c.Runner != nil {
		dep, err := c.Runner.Dependency.ToDependency()
		if err != nil {
			return model.Command{}, err
		}
		cmd.Runner = &model.Runner{
			Dependency: dep,
			Command:    c.Runner.Command,
			Args:       toArgs(c.Runner.Args),
		}
	}
	return cmd, nil
}

// FromCommand converts a model command to a <command> element.
func FromCommand(c model.Command) Command {
	out := Command{
		Name:     c.Name,
		Path:     c.Path,
		Args:     fromArgs(c.Args),
		Bindings: FromBindings(c.Bindings),
	}
	for _, dep := range c.Dependencies {
		out.Requires = append(out.Requires, FromDependency(dep))
	}
	for _, r := range c.Restrictions {
		out.Restricts = append(out.Restricts, FromRestriction(r))
	}
	if c.Runner != nil {
		out.Runner = &Runner{
			Dependency: FromDependency(c.Runner.Dependency),
			Command:    c.Runner.Command,
			Args:       fromArgs(c.Runner.Args),
		}
	}
	return out
}

// ToDigest converts a <manifest-digest> element; nil yields the zero digest.
func (d *ManifestDigest) ToDigest() model.ManifestDigest {
	if d == nil {
		return model.ManifestDigest{}
	}
	return model.ManifestDigest{Sha1New: d.Sha1New, Sha256: d.Sha256, Sha256New: d.Sha256New}
}

// FromDigest converts a digest; the zero digest yields nil.
func FromDigest(d model.ManifestDigest) *ManifestDigest {
	if d.IsZero() {
		return nil
	}
	return &ManifestDigest{Sha1New: d.Sha1New, Sha256: d.Sha256, Sha256New: d.Sha256New}
}
