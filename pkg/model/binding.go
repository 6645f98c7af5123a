package model

// BindingKind selects which fields of a Binding are meaningful.
type BindingKind string

const (
	BindEnvironment      BindingKind = "environment"
	BindOverlay          BindingKind = "overlay"
	BindExecutableInVar  BindingKind = "executable-in-var"
	BindExecutableInPath BindingKind = "executable-in-path"
)

// EnvMode controls how an environment binding combines with an existing value.
type EnvMode string

const (
	EnvPrepend EnvMode = "prepend"
	EnvAppend  EnvMode = "append"
	EnvReplace EnvMode = "replace"
)

// Binding tells a launcher how to make a selected implementation visible to
// the program that depends on it. The solver never interprets bindings; it
// only carries them into the selections document.
type Binding struct {
	Kind BindingKind

	// Environment and executable bindings.
	Name string

	// Environment bindings.
	Insert    string
	Value     string
	Mode      EnvMode
	Separator string
	Default   string

	// Overlay bindings.
	Source     string
	MountPoint string

	// Executable bindings.
	Command string
}
