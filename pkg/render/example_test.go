package render_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/render"
	"github.com/matzehuels/feedsolve/pkg/selection"
	"github.com/matzehuels/feedsolve/pkg/version"
)

func ExampleToDOT() {
	sels := selection.New("http://example.com/app.xml", "")
	sels.Add(&selection.Selection{
		InterfaceURI: "http://example.com/app.xml",
		ID:           "sha256new_abc",
		Version:      version.MustParse("1.0"),
		Digest:       model.ManifestDigest{Sha256New: "abc"},
		Dependencies: []model.Dependency{
			{InterfaceURI: "http://example.com/lib.xml", Versions: version.MustParseRange("2.0..!3.0")},
		},
	})
	sels.Add(&selection.Selection{
		InterfaceURI: "http://example.com/lib.xml",
		ID:           "sha256new_def",
		Version:      version.MustParse("2.4"),
		Digest:       model.ManifestDigest{Sha256New: "def"},
	})

	for _, line := range strings.Split(render.ToDOT(sels, render.Options{}), "\n") {
		if strings.Contains(line, "label=") || strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "http://example.com/app.xml" [label="app 1.0", penwidth=2];
	// "http://example.com/lib.xml" [label="lib 2.4"];
	// "http://example.com/app.xml" -> "http://example.com/lib.xml" [label="2.0..!3.0"];
}
