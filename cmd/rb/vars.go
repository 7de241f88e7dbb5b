package main

import (
	"fmt"
	"runtime"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func runtimeGOOS() string { return runtime.GOOS }

func strVal(s string) value.Value  { return value.FromString(s) }
func boolVal(b bool) value.Value   { return value.FromBool(b) }
func dirVal(s string) value.Value  { return value.Value{Kind: value.Directory, Payload: s} }
func fileVal(s string) value.Value { return value.Value{Kind: value.File, Payload: s} }
func arrVal(elems []string) value.Value {
	if elems == nil {
		elems = []string{}
	}
	return value.FromSlice(elems)
}

// printTargetHelp implements spec.md §6's -th/-targethelp: list every
// Target child of root with its flex header field as a one-line
// description, matching the teacher's tabular DisplayPlan rendering style.
func printTargetHelp(root *block.Block) {
	for _, c := range root.Children {
		if c.Kind != block.Target {
			continue
		}
		if c.Flex != "" {
			fmt.Printf("  %-20s %s\n", c.Name, c.Flex)
		} else {
			fmt.Printf("  %s\n", c.Name)
		}
	}
}
