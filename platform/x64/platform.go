package x64

import (
	_ "embed"

	"github.com/pattyshack/sparrow/architecture"
	"github.com/pattyshack/sparrow/platform"
)

//go:embed x64.yaml
var targetDescription []byte

var target = mustLoadTarget()

func mustLoadTarget() *platform.Target {
	target, err := platform.LoadTarget(targetDescription)
	if err != nil {
		panic("malformed built-in x64 target description: " + err.Error())
	}
	return target
}

type Platform struct {
	*platform.Target
}

func NewPlatform(os platform.OperatingSystemName) platform.Platform {
	if os != target.OperatingSystemName() {
		panic("unsupported os: " + os)
	}

	return Platform{
		Target: target,
	}
}

// The built-in target description.
func TargetDescription() []byte {
	return targetDescription
}

func RegisterSet() *architecture.RegisterSet {
	return target.ArchitectureRegisters()
}
