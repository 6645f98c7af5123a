package render

import (
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/selection"
)

// Summary is a flat, serializable view of a selections document.
type Summary struct {
	Interface  string         `yaml:"interface"`
	Command    string         `yaml:"command,omitempty"`
	Source     bool           `yaml:"source,omitempty"`
	Selections []SummaryEntry `yaml:"selections"`
	Omitted    []OmittedEntry `yaml:"omitted,omitempty"`
}

// SummaryEntry describes one selected implementation.
type SummaryEntry struct {
	Interface string   `yaml:"interface"`
	Version   string   `yaml:"version"`
	ID        string   `yaml:"id"`
	Stability string   `yaml:"stability"`
	Arch      string   `yaml:"arch,omitempty"`
	From      string   `yaml:"from,omitempty"`
	Commands  []string `yaml:"commands,omitempty"`
}

// OmittedEntry is a recommended dependency the solve left out.
type OmittedEntry struct {
	Interface  string `yaml:"interface"`
	RequiredBy string `yaml:"required_by,omitempty"`
	Reason     string `yaml:"reason"`
}

// NewSummary builds the summary of sels.
func NewSummary(sels *selection.Selections) Summary {
	s := Summary{Interface: sels.InterfaceURI, Command: sels.Command, Source: sels.Source}
	for _, sel := range sels.Implementations {
		e := SummaryEntry{
			Interface: sel.InterfaceURI,
			Version:   sel.Version.String(),
			ID:        sel.ID,
			Stability: sel.Stability.String(),
			From:      Source(sel),
		}
		if sel.Architecture.OS != "" || sel.Architecture.CPU != "" {
			e.Arch = sel.Architecture.String()
		}
		for _, c := range sel.Commands {
			e.Commands = append(e.Commands, c.Name)
		}
		s.Selections = append(s.Selections, e)
	}
	return s
}

// YAML encodes the summary.
func (s Summary) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode summary")
	}
	return out, nil
}
