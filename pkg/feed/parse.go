package feed

import (
	"bytes"
	"encoding/xml"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/feedsolve/internal/xmlschema"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// ParseOptions controls feed parsing.
type ParseOptions struct {
	// BaseDir resolves relative local paths; set for local feeds only.
	BaseDir string
	// Logger receives warnings about skipped implementations.
	Logger *log.Logger
}

// implementation attributes, inheritable from enclosing <group> elements
type attrs struct {
	ID              string `xml:"id,attr"`
	Version         string `xml:"version,attr"`
	VersionModifier string `xml:"version-modifier,attr"`
	Stability       string `xml:"stability,attr"`
	Arch            string `xml:"arch,attr"`
	LocalPath       string `xml:"local-path,attr"`
	Released        string `xml:"released,attr"`
	Langs           string `xml:"langs,attr"`
	License         string `xml:"license,attr"`
	Main            string `xml:"main,attr"`
	SelfTest        string `xml:"self-test,attr"`
}

func (a *attrs) set(name, value string) {
	switch name {
	case "id":
		a.ID = value
	case "version":
		a.Version = value
	case "version-modifier":
		a.VersionModifier = value
	case "stability":
		a.Stability = value
	case "arch":
		a.Arch = value
	case "local-path":
		a.LocalPath = value
	case "released":
		a.Released = value
	case "langs":
		a.Langs = value
	case "license":
		a.License = value
	case "main":
		a.Main = value
	case "self-test":
		a.SelfTest = value
	}
}

// inherit fills unset fields of a from parent.
func (a attrs) inherit(parent attrs) attrs {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&a.Version, parent.Version)
	fill(&a.VersionModifier, parent.VersionModifier)
	fill(&a.Stability, parent.Stability)
	fill(&a.Arch, parent.Arch)
	fill(&a.Released, parent.Released)
	fill(&a.Langs, parent.Langs)
	fill(&a.License, parent.License)
	fill(&a.Main, parent.Main)
	fill(&a.SelfTest, parent.SelfTest)
	return a
}

// body is the content shared by implementations, groups and package entries.
type body struct {
	Requires  []xmlschema.Dependency
	Restricts []xmlschema.Dependency
	Commands  []xmlschema.Command
	Bindings  []xmlschema.Binding
	Digest    *xmlschema.ManifestDigest
}

func (b *body) merge(parent body) body {
	return body{
		Requires:  append(append([]xmlschema.Dependency(nil), parent.Requires...), b.Requires...),
		Restricts: append(append([]xmlschema.Dependency(nil), parent.Restricts...), b.Restricts...),
		Commands:  mergeCommands(parent.Commands, b.Commands),
		Bindings:  append(append([]xmlschema.Binding(nil), parent.Bindings...), b.Bindings...),
		Digest:    b.Digest,
	}
}

func mergeCommands(parent, child []xmlschema.Command) []xmlschema.Command {
	out := append([]xmlschema.Command(nil), parent...)
	for _, c := range child {
		replaced := false
		for i := range out {
			if out[i].Name == c.Name {
				out[i], replaced = c, true
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	return out
}

// decodeChild handles the child elements common to every container.
// It reports false for elements it does not know.
func (b *body) decodeChild(d *xml.Decoder, start xml.StartElement) (bool, error) {
	switch start.Name.Local {
	case "requires":
		var dep xmlschema.Dependency
		if err := d.DecodeElement(&dep, &start); err != nil {
			return true, err
		}
		b.Requires = append(b.Requires, dep)
	case "restricts":
		var dep xmlschema.Dependency
		if err := d.DecodeElement(&dep, &start); err != nil {
			return true, err
		}
		b.Restricts = append(b.Restricts, dep)
	case "command":
		var cmd xmlschema.Command
		if err := d.DecodeElement(&cmd, &start); err != nil {
			return true, err
		}
		b.Commands = append(b.Commands, cmd)
	case "manifest-digest":
		var md xmlschema.ManifestDigest
		if err := d.DecodeElement(&md, &start); err != nil {
			return true, err
		}
		b.Digest = &md
	case string(model.BindEnvironment), string(model.BindOverlay),
		string(model.BindExecutableInVar), string(model.BindExecutableInPath):
		var bind xmlschema.Binding
		if err := d.DecodeElement(&bind, &start); err != nil {
			return true, err
		}
		b.Bindings = append(b.Bindings, bind)
	default:
		return false, nil
	}
	return true, nil
}

type implElem struct {
	attrs
	body
}

type packageElem struct {
	Package       string
	Distributions string
	Main          string
	body
}

// container is an <interface> or <group> element. Items keeps
// implementations, package entries and nested groups in document order.
type container struct {
	attrs
	body
	Items []any

	// root only
	URI          string
	Name         string
	Summary      string
	Feeds        []model.FeedReference
	FeedFor      []string
	Capabilities []model.Capability
	feedErr      error
}

func (c *container) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Local == "uri" {
			c.URI = a.Value
		}
		c.attrs.set(a.Name.Local, a.Value)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := c.decodeItem(d, t); err != nil {
				return err
			}
		}
	}
}

func (c *container) decodeItem(d *xml.Decoder, t xml.StartElement) error {
	if handled, err := c.body.decodeChild(d, t); handled || err != nil {
		return err
	}
	switch t.Name.Local {
	case "group":
		var g container
		if err := d.DecodeElement(&g, &t); err != nil {
			return err
		}
		c.Items = append(c.Items, &g)
	case "implementation":
		impl := &implElem{}
		for _, a := range t.Attr {
			impl.attrs.set(a.Name.Local, a.Value)
		}
		if err := decodeBody(d, &impl.body); err != nil {
			return err
		}
		c.Items = append(c.Items, impl)
	case "package-implementation":
		pkg := &packageElem{}
		for _, a := range t.Attr {
			switch a.Name.Local {
			case "package":
				pkg.Package = a.Value
			case "distributions":
				pkg.Distributions = a.Value
			case "main":
				pkg.Main = a.Value
			}
		}
		if err := decodeBody(d, &pkg.body); err != nil {
			return err
		}
		c.Items = append(c.Items, pkg)
	case "name":
		return d.DecodeElement(&c.Name, &t)
	case "summary":
		return d.DecodeElement(&c.Summary, &t)
	case "feed":
		ref := model.FeedReference{}
		for _, a := range t.Attr {
			switch a.Name.Local {
			case "src":
				ref.Source = a.Value
			case "arch":
				arch, err := model.ParseArchitecture(a.Value)
				if err != nil {
					c.feedErr = err
				}
				ref.Architecture = arch
			case "langs":
				ref.Langs = strings.Fields(a.Value)
			}
		}
		if ref.Source != "" {
			c.Feeds = append(c.Feeds, ref)
		}
		return d.Skip()
	case "feed-for":
		for _, a := range t.Attr {
			if a.Name.Local == "interface" {
				c.FeedFor = append(c.FeedFor, a.Value)
			}
		}
		return d.Skip()
	case "capabilities":
		return c.decodeCapabilities(d)
	default:
		return d.Skip()
	}
	return nil
}

func decodeBody(d *xml.Decoder, b *body) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			handled, err := b.decodeChild(d, t)
			if err != nil {
				return err
			}
			if !handled {
				if err := d.Skip(); err != nil {
					return err
				}
			}
		}
	}
}

func (c *container) decodeCapabilities(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			capability := model.Capability{Type: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Local == "id" {
					capability.ID = a.Value
				}
			}
			c.Capabilities = append(c.Capabilities, capability)
			if err := d.Skip(); err != nil {
				return err
			}
		}
	}
}

// Parse parses a feed document fetched for uri. Implementations with
// malformed versions, architectures or identities are skipped with a
// warning; structural XML errors fail the whole feed.
func Parse(data []byte, uri string, opts ParseOptions) (*model.Feed, error) {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}

	var root container
	dec := xml.NewDecoder(bytes.NewReader(data))
	var start *xml.StartElement
	for start == nil {
		tok, err := dec.Token()
		if err != nil {
			return nil, parseError(uri, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			start = &se
		}
	}
	if start.Name.Local != "interface" && start.Name.Local != "feed" {
		return nil, parseError(uri, xmlRootError(start.Name.Local))
	}
	if err := dec.DecodeElement(&root, start); err != nil {
		return nil, parseError(uri, err)
	}
	if root.feedErr != nil {
		return nil, parseError(uri, root.feedErr)
	}

	f := &model.Feed{
		URI:          uri,
		Name:         strings.TrimSpace(root.Name),
		Summary:      strings.TrimSpace(root.Summary),
		Feeds:        root.Feeds,
		FeedFor:      root.FeedFor,
		Capabilities: root.Capabilities,
	}
	p := &parser{feed: f, uri: uri, opts: opts, logger: logger, seen: make(map[string]bool)}
	p.walk(&root, attrs{}, body{})
	return f, nil
}

type xmlRootError string

func (e xmlRootError) Error() string {
	return "expected <interface> root element, got <" + string(e) + ">"
}

type parser struct {
	feed   *model.Feed
	uri    string
	opts   ParseOptions
	logger *log.Logger
	seen   map[string]bool
}

func (p *parser) walk(c *container, inherited attrs, inheritedBody body) {
	a := c.attrs.inherit(inherited)
	b := c.body.merge(inheritedBody)
	for _, item := range c.Items {
		switch it := item.(type) {
		case *container:
			p.walk(it, a, b)
		case *implElem:
			p.addImplementation(it.attrs.inherit(a), it.body.merge(b))
		case *packageElem:
			p.addPackage(it, a, it.body.merge(b))
		}
	}
}

func (p *parser) addImplementation(a attrs, b body) {
	warn := func(msg string, kv ...any) {
		p.logger.Warn(msg, append([]any{"feed", p.uri, "id", a.ID}, kv...)...)
	}
	if a.ID == "" {
		warn("skipping implementation without id")
		return
	}
	if p.seen[a.ID] {
		warn("skipping duplicate implementation id")
		return
	}

	v, err := version.Parse(a.Version + a.VersionModifier)
	if err != nil {
		warn("skipping implementation with invalid version", "version", a.Version, "err", err)
		return
	}
	arch, err := model.ParseArchitecture(a.Arch)
	if err != nil {
		warn("skipping implementation with invalid arch", "arch", a.Arch)
		return
	}
	stability := model.StabilityTesting
	if a.Stability != "" {
		if stability, err = model.ParseStability(a.Stability); err != nil {
			warn("skipping implementation with invalid stability", "stability", a.Stability)
			return
		}
	}

	impl := &model.Implementation{
		ID:           a.ID,
		InterfaceURI: p.uri,
		FromFeed:     p.uri,
		Version:      v,
		Released:     a.Released,
		Stability:    stability,
		Architecture: arch,
		Langs:        strings.Fields(a.Langs),
		License:      a.License,
		Digest:       b.Digest.ToDigest(),
		LocalPath:    p.localPath(a),
	}
	if impl.Digest.IsZero() {
		if d, ok := model.ParseDigestID(a.ID); ok {
			impl.Digest = d
		}
	}
	if impl.LocalPath != "" {
		impl.Digest = model.ManifestDigest{}
	}

	if err := p.fillBody(&impl.Dependencies, &impl.Restrictions, &impl.Bindings, &impl.Commands, a.Main, a.SelfTest, b); err != nil {
		warn("skipping implementation with invalid dependency", "err", err)
		return
	}
	if err := impl.Validate(); err != nil {
		warn("skipping invalid implementation", "err", err)
		return
	}
	p.seen[a.ID] = true
	p.feed.Implementations = append(p.feed.Implementations, impl)
}

func (p *parser) localPath(a attrs) string {
	path := a.LocalPath
	if path == "" && (strings.HasPrefix(a.ID, "/") || strings.HasPrefix(a.ID, ".")) {
		path = a.ID
	}
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		if p.opts.BaseDir == "" {
			return ""
		}
		path = filepath.Join(p.opts.BaseDir, path)
	}
	return filepath.Clean(path)
}

func (p *parser) addPackage(pkg *packageElem, a attrs, b body) {
	entry := model.PackageImplementation{
		Package:       pkg.Package,
		Distributions: strings.Fields(pkg.Distributions),
	}
	main := pkg.Main
	if main == "" {
		main = a.Main
	}
	if err := p.fillBody(&entry.Dependencies, &entry.Restrictions, &entry.Bindings, &entry.Commands, main, "", b); err != nil {
		p.logger.Warn("skipping package implementation", "feed", p.uri, "package", pkg.Package, "err", err)
		return
	}
	if entry.Package == "" {
		p.logger.Warn("skipping package implementation without package name", "feed", p.uri)
		return
	}
	p.feed.PackageImplementations = append(p.feed.PackageImplementations, entry)
}

func (p *parser) fillBody(deps *[]model.Dependency, restrictions *[]model.Restriction,
	bindings *[]model.Binding, commands *[]model.Command, main, selfTest string, b body) error {
	for _, r := range b.Requires {
		dep, err := r.ToDependency()
		if err != nil {
			return err
		}
		*deps = append(*deps, dep)
	}
	for _, r := range b.Restricts {
		res, err := r.ToRestriction()
		if err != nil {
			return err
		}
		*restrictions = append(*restrictions, res)
	}
	*bindings = xmlschema.ToBindings(b.Bindings)
	for _, c := range b.Commands {
		cmd, err := c.ToCommand()
		if err != nil {
			return err
		}
		*commands = append(*commands, cmd)
	}
	addImplicit := func(name, path string) {
		if path == "" {
			return
		}
		for _, c := range *commands {
			if c.Name == name {
				return
			}
		}
		*commands = append(*commands, model.Command{Name: name, Path: path})
	}
	addImplicit(model.CommandRun, main)
	addImplicit("test", selfTest)
	return nil
}
