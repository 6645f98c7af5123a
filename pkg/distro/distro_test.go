package distro

import (
	"context"
	"errors"
	"testing"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
)

func fakeRunner(out string, err error) Runner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(out), err
	}
}

func TestCleanVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"3.11.2-6", "3.11.2-6", true},
		{"1:2.38.1-5+deb12u1", "2.38.1-5", true},
		{"1.0~rc2-1", "1.0-rc2-1", true},
		{"2.0~beta1", "2.0-pre1", true},
		{"1.2.3", "1.2.3", true},
		{"7.4p1-2", "7.4-post1-2", true},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CleanVersion(tt.in)
		if ok != tt.ok {
			t.Errorf("CleanVersion(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.String() != tt.want {
			t.Errorf("CleanVersion(%q) = %q, want %q", tt.in, got.String(), tt.want)
		}
	}
}

func TestDpkgQuery(t *testing.T) {
	out := "python3\t3.11.2-1+b1\tamd64\tinstalled\n" +
		"python3\t3.9.2-3\ti386\tconfig-files\n"
	d := NewDpkg(fakeRunner(out, nil))

	impls, err := d.Query(context.Background(), "python3")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(impls) != 1 {
		t.Fatalf("got %d implementations, want 1", len(impls))
	}
	impl := impls[0]
	if impl.ID != "package:deb:python3:3.11.2-1:Linux-x86_64" {
		t.Errorf("ID = %s", impl.ID)
	}
	if !impl.Installed || impl.Distribution != "Debian" || impl.Stability != model.StabilityPackaged {
		t.Errorf("unexpected implementation %+v", impl)
	}
	if impl.Identity() != model.IdentityPackage {
		t.Errorf("Identity = %v", impl.Identity())
	}

	found, err := d.Lookup(context.Background(), impl.ID)
	if err != nil || found == nil {
		t.Fatalf("Lookup = %v, %v", found, err)
	}
	if missing, _ := d.Lookup(context.Background(), "package:rpm:python3:3.11.2-1:Linux-x86_64"); missing != nil {
		t.Error("dpkg should not resolve rpm IDs")
	}
}

func TestDpkgQueryFailure(t *testing.T) {
	d := NewDpkg(fakeRunner("", errors.New("exec: dpkg-query: not found")))
	_, err := d.Query(context.Background(), "x")
	if !errs.Is(err, errs.ErrCodePackageManager) {
		t.Errorf("Query error = %v, want PACKAGE_MANAGER", err)
	}
}

func TestRPMQuery(t *testing.T) {
	r := NewRPM(fakeRunner("gcc\t13.2.1-4.fc39\tx86_64\nbash\t5.2-1\tnoarch\n", nil))
	impls, err := r.Query(context.Background(), "gcc")
	if err != nil {
		t.Fatal(err)
	}
	if len(impls) != 2 {
		t.Fatalf("got %d", len(impls))
	}
	if impls[0].Version.String() != "13.2.1-4" {
		t.Errorf("version = %s", impls[0].Version)
	}
	if impls[1].Architecture.CPU != model.CPUAll {
		t.Errorf("noarch mapped to %s", impls[1].Architecture.CPU)
	}
}

func TestCompositeQuery(t *testing.T) {
	ctx := context.Background()
	deb := NewMemory("Debian")
	deb.Add("python3", "3.11", model.Architecture{OS: model.OSLinux, CPU: model.CPUX86_64}, true)
	arch := NewMemory("Arch")
	arch.Add("python3", "3.12", model.Architecture{OS: model.OSLinux, CPU: model.CPUX86_64}, false)

	c := NewComposite(deb, arch)
	all, err := c.Query(ctx, "python3")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Distribution != "Debian" {
		t.Errorf("Query = %+v", all)
	}

	onlyArch, err := QueryAllowed(ctx, c, "python3", []string{"Arch"})
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyArch) != 1 || onlyArch[0].Distribution != "Arch" {
		t.Errorf("QueryAllowed = %+v", onlyArch)
	}

	impl, err := c.Lookup(ctx, all[1].ID)
	if err != nil || impl == nil || impl.Version.String() != "3.12" {
		t.Errorf("Lookup = %+v, %v", impl, err)
	}
	if c.Name() != "Debian+Arch" {
		t.Errorf("Name = %s", c.Name())
	}
}

func TestPackageID(t *testing.T) {
	id := PackageID("deb", "gcc", "12-1", "Linux-x86_64")
	short, pkg, ver, arch, ok := ParsePackageID(id)
	if !ok || short != "deb" || pkg != "gcc" || ver != "12-1" || arch != "Linux-x86_64" {
		t.Errorf("ParsePackageID(%q) = %s %s %s %s %v", id, short, pkg, ver, arch, ok)
	}
	if _, _, _, _, ok := ParsePackageID("sha1new=abc"); ok {
		t.Error("non-package ID parsed")
	}
}

func TestDetect(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/x", nil }
	if got := detect("windows", found); len(got.Managers) != 0 {
		t.Errorf("windows managers = %d", len(got.Managers))
	}
	if got := detect("linux", found); len(got.Managers) != 2 {
		t.Errorf("linux managers = %d", len(got.Managers))
	}
	missing := func(string) (string, error) { return "", errors.New("not found") }
	if got := detect("linux", missing); len(got.Managers) != 0 {
		t.Errorf("linux without tools = %d", len(got.Managers))
	}
}
