package selection

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/matzehuels/feedsolve/internal/xmlschema"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/version"
)

type xmlSelections struct {
	XMLName    xml.Name
	Interface  string         `xml:"interface,attr"`
	Command    string         `xml:"command,attr,omitempty"`
	Source     bool           `xml:"source,attr,omitempty"`
	Selections []xmlSelection `xml:"selection"`
}

type xmlSelection struct {
	Interface     string `xml:"interface,attr"`
	FromFeed      string `xml:"from-feed,attr,omitempty"`
	ID            string `xml:"id,attr"`
	Version       string `xml:"version,attr"`
	Stability     string `xml:"stability,attr,omitempty"`
	Arch          string `xml:"arch,attr,omitempty"`
	Released      string `xml:"released,attr,omitempty"`
	License       string `xml:"license,attr,omitempty"`
	LocalPath     string `xml:"local-path,attr,omitempty"`
	Package       string `xml:"package,attr,omitempty"`
	Distribution  string `xml:"distribution,attr,omitempty"`
	QuickTestFile string `xml:"quick-test-file,attr,omitempty"`

	Digest    *xmlschema.ManifestDigest `xml:"manifest-digest"`
	Requires  []xmlschema.Dependency    `xml:"requires"`
	Legacy    []xmlschema.Dependency    `xml:"dependency"`
	Restricts []xmlschema.Dependency    `xml:"restricts"`
	Commands  []xmlschema.Command       `xml:"command"`
	Bindings  []xmlschema.Binding       `xml:",any"`
}

// Encode writes s as a selections XML document. Equal documents encode to
// identical bytes.
func (s *Selections) Encode(w io.Writer) error {
	doc := xmlSelections{
		XMLName:   xml.Name{Space: xmlschema.Namespace, Local: "selections"},
		Interface: s.InterfaceURI,
		Command:   s.Command,
		Source:    s.Source,
	}
	for _, sel := range s.Implementations {
		doc.Selections = append(doc.Selections, toXML(sel))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "encode selections")
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ToXML returns the encoded document.
func (s *Selections) ToXML() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a selections XML document. Both <requires> and the older
// <dependency> element names are accepted.
func Decode(r io.Reader) (*Selections, error) {
	var doc xmlSelections
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse selections")
	}
	if doc.XMLName.Local != "selections" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "expected <selections>, got <%s>", doc.XMLName.Local)
	}
	if doc.Interface == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "selections document has no interface")
	}

	s := &Selections{InterfaceURI: doc.Interface, Command: doc.Command, Source: doc.Source}
	for _, x := range doc.Selections {
		sel, err := fromXML(x)
		if err != nil {
			return nil, err
		}
		if s.Contains(sel.InterfaceURI) {
			return nil, errs.New(errs.ErrCodeInvalidInput, "duplicate selection for %s", sel.InterfaceURI)
		}
		s.Implementations = append(s.Implementations, sel)
	}
	return s, nil
}

// ParseXML decodes a selections document from data.
func ParseXML(data []byte) (*Selections, error) {
	return Decode(bytes.NewReader(data))
}

func toXML(sel *Selection) xmlSelection {
	x := xmlSelection{
		Interface:     sel.InterfaceURI,
		FromFeed:      sel.FromFeed,
		ID:            sel.ID,
		Version:       sel.Version.String(),
		Stability:     sel.Stability.String(),
		Released:      sel.Released,
		License:       sel.License,
		LocalPath:     sel.LocalPath,
		Package:       sel.Package,
		Distribution:  sel.Distribution,
		QuickTestFile: sel.QuickTestFile,
		Digest:        xmlschema.FromDigest(sel.Digest),
		Bindings:      xmlschema.FromBindings(sel.Bindings),
	}
	if sel.Architecture != (model.Architecture{}) && sel.Architecture != model.AnyArchitecture {
		x.Arch = sel.Architecture.String()
	}
	for _, dep := range sel.Dependencies {
		x.Requires = append(x.Requires, xmlschema.FromDependency(dep))
	}
	for _, r := range sel.Restrictions {
		x.Restricts = append(x.Restricts, xmlschema.FromRestriction(r))
	}
	for _, c := range sel.Commands {
		x.Commands = append(x.Commands, xmlschema.FromCommand(c))
	}
	return x
}

func fromXML(x xmlSelection) (*Selection, error) {
	if x.Interface == "" || x.ID == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "selection missing interface or id")
	}
	v, err := version.Parse(x.Version)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "selection %s", x.Interface)
	}
	sel := &Selection{
		InterfaceURI:  x.Interface,
		FromFeed:      x.FromFeed,
		ID:            x.ID,
		Version:       v,
		Released:      x.Released,
		License:       x.License,
		LocalPath:     x.LocalPath,
		Package:       x.Package,
		Distribution:  x.Distribution,
		QuickTestFile: x.QuickTestFile,
		Digest:        x.Digest.ToDigest(),
		Bindings:      xmlschema.ToBindings(x.Bindings),
	}
	if x.Stability != "" {
		if sel.Stability, err = model.ParseStability(x.Stability); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "selection %s", x.Interface)
		}
	}
	if x.Arch != "" {
		if sel.Architecture, err = model.ParseArchitecture(x.Arch); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "selection %s", x.Interface)
		}
	}
	for _, r := range append(x.Requires, x.Legacy...) {
		dep, err := r.ToDependency()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "selection %s", x.Interface)
		}
		sel.Dependencies = append(sel.Dependencies, dep)
	}
	for _, r := range x.Restricts {
		res, err := r.ToRestriction()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "selection %s", x.Interface)
		}
		sel.Restrictions = append(sel.Restrictions, res)
	}
	for _, c := range x.Commands {
		cmd, err := c.ToCommand()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "selection %s command %s", x.Interface, c.Name)
		}
		sel.Commands = append(sel.Commands, cmd)
	}
	return sel, nil
}
