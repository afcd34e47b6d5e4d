package nodecommand

import (
	"github.com/hashicorp/go-version"
)

type Output struct {
	RawOut   []byte
	ExitCode int
}

type DependencyChecker interface {
	CheckInstall() (*version.Version, error)
}

type Runner interface {
	Run(workDir string, scriptPath string, nodeArgs []string) (Output, error)
}
