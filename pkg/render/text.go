package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/feedsolve/pkg/selection"
)

// WriteTree prints nodes, as returned by selection.GetTree, one per line
// and indented by depth:
//
//	http://example.com/app.xml: 1.0 (/var/cache/impl/sha256new_abc)
//	  http://example.com/lib.xml: 2.1
//	  http://example.com/extra.xml: (not selected)
func WriteTree(w io.Writer, nodes []*selection.TreeNode) error {
	for _, n := range nodes {
		indent := strings.Repeat("  ", n.Depth())
		var err error
		switch {
		case n.Selection == nil:
			_, err = fmt.Fprintf(w, "%s%s: (not selected)\n", indent, n.InterfaceURI)
		case n.Path != "":
			_, err = fmt.Fprintf(w, "%s%s: %s (%s)\n", indent, n.InterfaceURI, n.Selection.Version, n.Path)
		default:
			_, err = fmt.Fprintf(w, "%s%s: %s\n", indent, n.InterfaceURI, n.Selection.Version)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
