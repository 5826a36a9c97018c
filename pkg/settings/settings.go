// Package settings holds build metadata and the per-run CLI settings that
// travel through context.Context.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "combo"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo is the commit, version and build time of the binary.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Input describes where the item collection comes from.
type Input struct {
	// Path is the data file; empty or "-" reads stdin.
	Path string
	// Format forces the input format; empty detects it.
	Format string
	// Selector is a dotted path to the collection inside the document.
	Selector string
}

// FromStdin reports whether the collection is read from standard input.
func (in Input) FromStdin() bool { return in.Path == "" || in.Path == "-" }

// Run holds the settings of a single CLI invocation.
type Run struct {
	MinLogLevel  int8
	Input        Input
	ConfigFile   string
	OutputFormat string
	Interactive  bool
	IsQuiet      bool
	NoColor      bool
}

// NewCliParams returns the defaults for a CLI run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel:  0,
		OutputFormat: "table",
	}
}
