package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built software's version.
	Version string = EtherealSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

// EtherealSemVer is the current version of the resolution engine.
// It's the Semantic Version of the software.
const EtherealSemVer = "0.1.0"
