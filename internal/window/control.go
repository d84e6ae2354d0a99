// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"github.com/ijkwin/ijkwin/internal/plugin"
)

// Op is a control protocol operation.
type Op uint8

// Control operations.
const (
	OpLoad Op = iota + 1
	OpReload
	OpUnload
	OpDebug
	OpBuild
	OpRebuild
	OpCopyComplete
	OpCommand
)

func (o Op) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpReload:
		return "reload"
	case OpUnload:
		return "unload"
	case OpDebug:
		return "debug"
	case OpBuild:
		return "build"
	case OpRebuild:
		return "rebuild"
	case OpCopyComplete:
		return "copy_complete"
	case OpCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Control is a control protocol message. Controls are produced by control
// keys, by commands and by other goroutines posting through Native.Post;
// they are always handled on the router goroutine.
type Control struct {
	Op Op

	// OpLoad.
	ID int
	// OpLoad, and OpReload when swapping binaries.
	Descriptor *plugin.Descriptor
	// OpUnload.
	Ownership plugin.Ownership
	// OpDebug: unload the debug plugin when it is already active.
	Toggle bool
	// OpCopyComplete.
	Success bool
	JobID   string
	// OpCommand.
	Text string
}

// Load requests loading desc under id, replacing any loaded plugin.
func Load(id int, desc plugin.Descriptor) Control {
	return Control{Op: OpLoad, ID: id, Descriptor: &desc}
}

// Reload requests an in-place reload, or a binary swap when desc is non-nil.
func Reload(desc *plugin.Descriptor) Control {
	return Control{Op: OpReload, Descriptor: desc}
}

// Unload requests unloading with the given ownership of the user data.
func Unload(own plugin.Ownership) Control {
	return Control{Op: OpUnload, Ownership: own}
}

// Debug requests loading the debug plugin. With toggle set, an active debug
// plugin is unloaded instead.
func Debug(toggle bool) Control {
	return Control{Op: OpDebug, Toggle: toggle}
}

// Build requests an incremental build of the debug plugin.
func Build() Control {
	return Control{Op: OpBuild}
}

// Rebuild requests a clean rebuild of the debug plugin.
func Rebuild() Control {
	return Control{Op: OpRebuild}
}

// CopyComplete reports the end of a build job.
func CopyComplete(jobID string, success bool) Control {
	return Control{Op: OpCopyComplete, JobID: jobID, Success: success}
}

// Command runs a command line.
func Command(text string) Control {
	return Control{Op: OpCommand, Text: text}
}
