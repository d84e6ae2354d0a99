// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"runtime"
	"unsafe"
)

// Argv is a C-style argument vector built from Go strings. The memory is
// pinned until Release so it can be handed to a plugin as char**.
type Argv struct {
	ptrs   []unsafe.Pointer
	pinner runtime.Pinner
}

// NewArgv encodes args as NUL-terminated strings.
func NewArgv(args []string) *Argv {
	a := &Argv{ptrs: make([]unsafe.Pointer, len(args)+1)}
	for i, s := range args {
		buf := make([]byte, len(s)+1)
		copy(buf, s)
		a.pinner.Pin(&buf[0])
		a.ptrs[i] = unsafe.Pointer(&buf[0])
	}
	a.pinner.Pin(&a.ptrs[0])
	return a
}

// Len returns argc.
func (a *Argv) Len() int32 {
	return int32(len(a.ptrs) - 1)
}

// Ref returns the char** to pass as the ref argument.
func (a *Argv) Ref() *unsafe.Pointer {
	return &a.ptrs[0]
}

// Release unpins the vector. The Argv must not be used afterwards.
func (a *Argv) Release() {
	a.pinner.Unpin()
	a.ptrs = nil
}

// DecodeArgv reads argc NUL-terminated strings from a char**.
func DecodeArgv(argc int32, ref *unsafe.Pointer) []string {
	if argc <= 0 || ref == nil {
		return nil
	}
	ptrs := unsafe.Slice(ref, argc)
	out := make([]string, 0, argc)
	for _, p := range ptrs {
		out = append(out, cString(p))
	}
	return out
}

func cString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}
