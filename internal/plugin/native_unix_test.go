// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

//go:build linux

package plugin_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijkwin/ijkwin/internal/plugin"
)

var libcCandidates = []string{
	"/lib/x86_64-linux-gnu/libc.so.6",
	"/usr/lib/x86_64-linux-gnu/libc.so.6",
	"/lib/aarch64-linux-gnu/libc.so.6",
	"/usr/lib/aarch64-linux-gnu/libc.so.6",
	"/lib64/libc.so.6",
	"/usr/lib64/libc.so.6",
	"/usr/lib/libc.so.6",
	"/lib/libc.so.6",
}

// libcDir links the system C library into a temp dir as libc<ext>, so it
// loads through NativeOpener like a plugin binary named "libc".
func libcDir(t *testing.T) string {
	t.Helper()
	for _, path := range libcCandidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		dir := t.TempDir()
		require.NoError(t, os.Symlink(path, plugin.LibraryPath(dir, "libc")))
		return dir
	}
	t.Skip("no glibc shared object found")
	return ""
}

func TestNativeOpener_ResolvesNothingFromForeignLibrary(t *testing.T) {
	lib, err := plugin.NativeOpener{}.Open(libcDir(t), "libc")
	require.NoError(t, err)

	table := plugin.Resolve(lib)
	assert.Zero(t, table.ResolvedCount())
	assert.Zero(t, table.Call(plugin.OnIdle, nil))
	assertAllSlotsReturnZero(t, table)

	require.NoError(t, lib.Close())
	assert.ErrorIs(t, lib.Close(), plugin.ErrLibraryClosed)

	var getpid plugin.DataFunc
	assert.ErrorIs(t, lib.Bind("getpid", &getpid), plugin.ErrLibraryClosed)
}

func TestNativeOpener_BindsExportedSymbol(t *testing.T) {
	lib, err := plugin.NativeOpener{}.Open(libcDir(t), "libc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })

	var getpid plugin.DataFunc
	require.NoError(t, lib.Bind("getpid", &getpid))
	assert.Equal(t, int32(os.Getpid()), getpid(nil)) //nolint:gosec // pids fit in int32

	var missing plugin.DataFunc
	assert.ErrorIs(t, lib.Bind("OnIdle", &missing), plugin.ErrSymbolNotFound)
}

func TestNativeOpener_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := plugin.NativeOpener{}.Open(dir, "absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, "absent"+plugin.Ext()))
}

func TestFreeDestructor_FreesMallocedData(t *testing.T) {
	free := plugin.FreeDestructor()
	require.NotNil(t, free)

	lib, err := plugin.NativeOpener{}.Open(libcDir(t), "libc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })

	var malloc func(size uintptr) unsafe.Pointer
	require.NoError(t, lib.Bind("malloc", &malloc))
	data := malloc(64)
	require.NotNil(t, data)

	free(data)
}

func TestPlugin_LoadsNativeLibrary(t *testing.T) {
	ctx := context.Background()
	p := plugin.New(plugin.WithDir(libcDir(t)))

	require.NoError(t, p.Load(ctx, plugin.NewDescriptor("C runtime", "libc", "", "1.0.0", ""), 0))
	assert.True(t, p.Loaded())
	assert.Zero(t, p.Table().ResolvedCount())
	assert.Zero(t, p.Invoke(plugin.OnIdle))

	require.NoError(t, p.Unload(ctx, plugin.HostOwns))
	assert.False(t, p.Status().Loaded)
}
