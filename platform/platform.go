package platform

import (
	"github.com/pattyshack/sparrow/architecture"
)

type ArchitectureName string
type OperatingSystemName string

const (
	Amd64 = ArchitectureName("amd64")

	Linux = OperatingSystemName("linux")
)

type Platform interface {
	ArchitectureName() ArchitectureName
	OperatingSystemName() OperatingSystemName

	ArchitectureRegisters() *architecture.RegisterSet

	CallConvention() *architecture.CallConvention

	RuntimeFunctions() RuntimeFunctions
}
