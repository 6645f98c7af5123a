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

// Dpkg queries the Debian package database with dpkg-query.
type Dpkg struct {
	run Runner
}

// NewDpkg creates a Debian package manager using run to invoke dpkg-query.
func NewDpkg(run Runner) *Dpkg {
	return &Dpkg{run: run}
}

// Name returns "Debian".
func (d *Dpkg) Name() string { return "Debian" }

const dpkgFormat = "${Package}\t${Version}\t${Architecture}\t${db:Status-Status}\n"

// Query lists installed versions of pkg.
func (d *Dpkg) Query(ctx context.Context, pkg string) ([]*model.Implementation, error) {
	out, err := d.run(ctx, "dpkg-query", "-W", "--showformat", dpkgFormat, pkg)
	if err != nil {
		// dpkg-query exits 1 for unknown packages.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrCodePackageManager, err, "dpkg-query %s", pkg)
	}
	return parseDpkg(out, d.Name()), nil
}

// Lookup resolves a "package:deb:..." ID.
func (d *Dpkg) Lookup(ctx context.Context, id string) (*model.Implementation, error) {
	short, pkg, _, _, ok := ParsePackageID(id)
	if !ok || short != "deb" {
		return nil, nil
	}
	impls, err := d.Query(ctx, pkg)
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

func parseDpkg(out []byte, distribution string) []*model.Implementation {
	var impls []*model.Implementation
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) < 4 || fields[3] != "installed" {
			continue
		}
		v, ok := CleanVersion(fields[1])
		if !ok {
			continue
		}
		arch := debArch(fields[2])
		impls = append(impls, &model.Implementation{
			ID:           PackageID("deb", fields[0], v.String(), arch.String()),
			Version:      v,
			Stability:    model.StabilityPackaged,
			Architecture: arch,
			Package:      fields[0],
			Distribution: distribution,
			Installed:    true,
		})
	}
	return impls
}

func debArch(a string) model.Architecture {
	cpu := model.CPUAll
	switch a {
	case "amd64":
		cpu = model.CPUX86_64
	case "i386":
		cpu = model.CPUI686
	case "arm64":
		cpu = model.CPUAArch64
	case "armhf":
		cpu = model.CPUARMv7
	case "armel":
		cpu = model.CPUARMv6
	}
	return model.Architecture{OS: model.OSLinux, CPU: cpu}
}

// Ensure Dpkg implements Manager.
var _ Manager = (*Dpkg)(nil)
