package platform

import (
	"bytes"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/pattyshack/sparrow/architecture"
)

// The yaml encoded target description.
type TargetDescription struct {
	Architecture    ArchitectureName    `yaml:"architecture"`
	OperatingSystem OperatingSystemName `yaml:"operating_system"`

	Registers RegisterDescription `yaml:"registers"`

	RuntimeFunctions []RuntimeFunction `yaml:"runtime_functions"`
}

type RegisterDescription struct {
	StackPointer string   `yaml:"stack_pointer"`
	Colorable    []string `yaml:"colorable"`
	CallerSaved  []string `yaml:"caller_saved"`
	CalleeSaved  []string `yaml:"callee_saved"`
	Arguments    []string `yaml:"arguments"`
	Return       string   `yaml:"return"`
	ShiftCount   string   `yaml:"shift_count"`
}

func (desc RegisterDescription) Classification() architecture.RegisterClassification {
	return architecture.RegisterClassification{
		StackPointer: desc.StackPointer,
		Colorable:    desc.Colorable,
		CallerSaved:  desc.CallerSaved,
		CalleeSaved:  desc.CalleeSaved,
		Arguments:    desc.Arguments,
		Return:       desc.Return,
		ShiftCount:   desc.ShiftCount,
	}
}

func ParseTargetDescription(data []byte) (*TargetDescription, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	desc := &TargetDescription{}
	err := decoder.Decode(desc)
	if err != nil {
		return nil, errors.Wrap(err, "decode target description")
	}

	return desc, nil
}

// A platform built from a target description.
type Target struct {
	arch ArchitectureName
	os   OperatingSystemName

	registers  *architecture.RegisterSet
	convention *architecture.CallConvention

	runtimeFunctions RuntimeFunctions
}

var _ Platform = &Target{}

func LoadTarget(data []byte) (*Target, error) {
	desc, err := ParseTargetDescription(data)
	if err != nil {
		return nil, err
	}
	return NewTarget(desc)
}

func NewTarget(desc *TargetDescription) (*Target, error) {
	if desc.Architecture == "" {
		return nil, errors.New("no architecture specified")
	}

	if desc.OperatingSystem == "" {
		return nil, errors.New("no operating system specified")
	}

	registers, err := architecture.NewRegisterSet(
		desc.Registers.Classification())
	if err != nil {
		return nil, errors.Wrap(err, "target %s/%s", desc.Architecture, desc.OperatingSystem)
	}

	funcs := RuntimeFunctions{}
	for _, fn := range desc.RuntimeFunctions {
		if fn.Name == "" {
			return nil, errors.New("empty runtime function name")
		}

		_, ok := funcs[fn.Name]
		if ok {
			return nil, errors.New("duplicate runtime function (%s)", fn.Name)
		}

		if fn.MinArgs < 0 || fn.MaxArgs < fn.MinArgs {
			return nil, errors.New(
				"invalid runtime function (%s) argument range [%d, %d]",
				fn.Name,
				fn.MinArgs,
				fn.MaxArgs)
		}

		funcs[fn.Name] = fn
	}

	return &Target{
		arch:             desc.Architecture,
		os:               desc.OperatingSystem,
		registers:        registers,
		convention:       architecture.NewCallConvention(registers),
		runtimeFunctions: funcs,
	}, nil
}

func (target *Target) ArchitectureName() ArchitectureName {
	return target.arch
}

func (target *Target) OperatingSystemName() OperatingSystemName {
	return target.os
}

func (target *Target) ArchitectureRegisters() *architecture.RegisterSet {
	return target.registers
}

func (target *Target) CallConvention() *architecture.CallConvention {
	return target.convention
}

func (target *Target) RuntimeFunctions() RuntimeFunctions {
	return target.runtimeFunctions
}
