package languages

// MountPath is where the staging area is bind-mounted inside an
// isolated execution unit.
const MountPath = "/workspace"

// RuntimeConfig describes how one language's submissions are staged and
// executed: the minimal runtime image, the on-disk names of the three
// staged artifacts, and the command that starts the generated harness.
type RuntimeConfig struct {
	Image       string
	SourceFile  string
	HarnessFile string
	TestsFile   string
	RunCommand  []string
	// HostCommand is the interpreter used by the degraded in-process
	// path, resolved against the host PATH.
	HostCommand string
}

type Language struct {
	ID      string
	Name    string
	Aliases []string
	Config  RuntimeConfig
}
