package solver

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/selection"
)

// ExitNoSolution is the exit status an external solver uses to report
// that no selection exists.
const ExitNoSolution = 1

// ExternalSolver runs a solver in another process. The process receives
// Args followed by Requirements.ToArgs and must print a selections
// document on stdout, or exit with ExitNoSolution.
type ExternalSolver struct {
	Path string
	Args []string
}

// TrySolve implements Engine.
func (e *ExternalSolver) TrySolve(ctx context.Context, req model.Requirements) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	args := append(append([]string(nil), e.Args...), req.ToArgs()...)
	cmd := exec.CommandContext(ctx, e.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errs.Wrap(errs.ErrCodeCanceled, ctx.Err(), "external solver canceled")
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == ExitNoSolution {
			return &Result{Failure: &Failure{InterfaceURI: req.InterfaceURI}}, nil
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "external solver %s: %s", e.Path, strings.TrimSpace(stderr.String()))
	}

	sels, err := selection.ParseXML(stdout.Bytes())
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "external solver %s returned invalid selections", e.Path)
	}
	if sels.InterfaceURI != req.InterfaceURI {
		return nil, errs.New(errs.ErrCodeInternal, "external solver %s selected %s, want %s", e.Path, sels.InterfaceURI, req.InterfaceURI)
	}
	return &Result{Selections: sels}, nil
}
