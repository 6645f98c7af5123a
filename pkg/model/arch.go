package model

import (
	"runtime"
	"strings"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
)

// OS is an operating system name as used in feed "arch" attributes.
type OS string

const (
	OSAll     OS = "*"
	OSPOSIX   OS = "POSIX"
	OSLinux   OS = "Linux"
	OSSolaris OS = "SunOS"
	OSFreeBSD OS = "FreeBSD"
	OSDarwin  OS = "Darwin"
	OSMacOSX  OS = "MacOSX"
	OSCygwin  OS = "Cygwin"
	OSWindows OS = "Windows"
)

// CPU is a processor architecture name as used in feed "arch" attributes.
type CPU string

const (
	CPUAll     CPU = "*"
	CPUI386    CPU = "i386"
	CPUI486    CPU = "i486"
	CPUI586    CPU = "i586"
	CPUI686    CPU = "i686"
	CPUX86_64  CPU = "x86_64"
	CPUPPC     CPU = "ppc"
	CPUPPC64   CPU = "ppc64"
	CPUARMv6   CPU = "armv6l"
	CPUARMv7   CPU = "armv7l"
	CPUAArch64 CPU = "aarch64"
	CPUSource  CPU = "src"
)

var posixFamily = map[OS]bool{
	OSPOSIX: true, OSLinux: true, OSSolaris: true, OSFreeBSD: true,
	OSDarwin: true, OSMacOSX: true, OSCygwin: true,
}

// cpuFamilies lists CPUs in order of capability; an implementation built for
// an earlier entry runs on any later entry of the same family.
var cpuFamilies = [][]CPU{
	{CPUI386, CPUI486, CPUI586, CPUI686, CPUX86_64},
	{CPUPPC, CPUPPC64},
	{CPUARMv6, CPUARMv7},
	{CPUAArch64},
}

func cpuRank(c CPU) (family, rank int, ok bool) {
	for f, cpus := range cpuFamilies {
		for r, cpu := range cpus {
			if cpu == c {
				return f, r, true
			}
		}
	}
	return 0, 0, false
}

// Distance reports how well an implementation built for os fits a system
// running sys. It returns -1 when the implementation cannot run at all and
// smaller values for closer matches.
func (os OS) Distance(sys OS) int {
	switch {
	case os == sys:
		return 0
	case os == OSAll || os == "" || sys == OSAll || sys == "":
		return 3
	case os == OSPOSIX && posixFamily[sys]:
		return 2
	case os == OSDarwin && sys == OSMacOSX:
		return 1
	}
	return -1
}

// RunsOn reports whether an implementation built for os runs on sys.
func (os OS) RunsOn(sys OS) bool { return os.Distance(sys) >= 0 }

// Distance reports how well an implementation built for cpu fits a system
// with sys. It returns -1 when incompatible and smaller values for closer
// matches. Source implementations only match a source requirement.
func (cpu CPU) Distance(sys CPU) int {
	if cpu == CPUSource || sys == CPUSource {
		if cpu == sys {
			return 0
		}
		return -1
	}
	switch {
	case cpu == sys:
		return 0
	case cpu == CPUAll || cpu == "":
		return 10
	case sys == CPUAll || sys == "":
		return 10
	}
	cf, cr, ok1 := cpuRank(cpu)
	sf, sr, ok2 := cpuRank(sys)
	if !ok1 || !ok2 || cf != sf || cr > sr {
		return -1
	}
	return sr - cr
}

// RunsOn reports whether an implementation built for cpu runs on sys.
func (cpu CPU) RunsOn(sys CPU) bool { return cpu.Distance(sys) >= 0 }

// Architecture is an OS/CPU pair. Empty fields and "*" match anything.
type Architecture struct {
	OS  OS
	CPU CPU
}

// AnyArchitecture matches every non-source platform.
var AnyArchitecture = Architecture{OS: OSAll, CPU: CPUAll}

// ParseArchitecture parses the feed form "OS-CPU", e.g. "Linux-x86_64",
// "*-src" or "*-*". An empty string is AnyArchitecture.
func ParseArchitecture(s string) (Architecture, error) {
	if s == "" {
		return AnyArchitecture, nil
	}
	osPart, cpuPart, ok := strings.Cut(s, "-")
	if !ok || osPart == "" || cpuPart == "" {
		return Architecture{}, errs.New(errs.ErrCodeInvalidArch, "invalid architecture %q", s)
	}
	return Architecture{OS: OS(osPart), CPU: CPU(cpuPart)}, nil
}

// String returns the "OS-CPU" form.
func (a Architecture) String() string {
	os, cpu := a.OS, a.CPU
	if os == "" {
		os = OSAll
	}
	if cpu == "" {
		cpu = CPUAll
	}
	return string(os) + "-" + string(cpu)
}

// RunsOn reports whether an implementation for a runs on sys.
func (a Architecture) RunsOn(sys Architecture) bool {
	return a.OS.RunsOn(sys.OS) && a.CPU.RunsOn(sys.CPU)
}

// Host returns the architecture of the running process.
func Host() Architecture {
	return Architecture{OS: hostOS(runtime.GOOS), CPU: hostCPU(runtime.GOARCH)}
}

func hostOS(goos string) OS {
	switch goos {
	case "linux":
		return OSLinux
	case "darwin":
		return OSMacOSX
	case "windows":
		return OSWindows
	case "freebsd":
		return OSFreeBSD
	case "solaris", "illumos":
		return OSSolaris
	}
	return OSAll
}

func hostCPU(goarch string) CPU {
	switch goarch {
	case "amd64":
		return CPUX86_64
	case "386":
		return CPUI686
	case "arm64":
		return CPUAArch64
	case "arm":
		return CPUARMv7
	case "ppc64", "ppc64le":
		return CPUPPC64
	}
	return CPUAll
}
