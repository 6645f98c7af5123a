package distro

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
)

// RPM queries the RPM database.
type RPM struct {
	run Runner
}

// NewRPM creates an RPM package manager using run to invoke rpm.
func NewRPM(run Runner) *RPM {
	return &RPM{run: run}
}

// Name returns "RPM".
func (r *RPM) Name() string { return "RPM" }

const rpmFormat = "%{NAME}\t%{VERSION}-%{RELEASE}\t%{ARCH}\n"

// Query lists installed versions of pkg.
func (r *RPM) Query(ctx context.Context, pkg string) ([]*model.Implementation, error) {
	out, err := r.run(ctx, "rpm", "-q", "--qf", rpmFormat, pkg)
	if err != nil {
		// rpm exits 1 with "package X is not installed".
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrCodePackageManager, err, "rpm -q %s", pkg)
	}

	var impls []*model.Implementation
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) != 3 {
			continue
		}
		v, ok := CleanVersion(fields[1])
		if !ok {
			continue
		}
		arch := rpmArch(fields[2])
		impls = append(impls, &model.Implementation{
			ID:           PackageID("rpm", fields[0], v.String(), arch.String()),
			Version:      v,
			Stability:    model.StabilityPackaged,
			Architecture: arch,
			Package:      fields[0],
			Distribution: r.Name(),
			Installed:    true,
		})
	}
	return impls, nil
}

// Lookup resolves a "package:rpm:..." ID.
func (r *RPM) Lookup(ctx context.Context, id string) (*model.Implementation, error) {
	short, pkg, _, _, ok := ParsePackageID(id)
	if !ok || short != "rpm" {
		return nil, nil
	}
	impls, err := r.Query(ctx, pkg)
	if err != nil {
		return nil, err
	}
	for _, impl := range impls {
		if impl.ID == id {
			return impl, nil
		}
	}
	return nil, nil
}

func rpmArch(a string) model.Architecture {
	cpu := model.CPU(a)
	if a == "noarch" {
		cpu = model.CPUAll
	}
	return model.Architecture{OS: model.OSLinux, CPU: cpu}
}

// Ensure RPM implements Manager.
var _ Manager = (*RPM)(nil)
