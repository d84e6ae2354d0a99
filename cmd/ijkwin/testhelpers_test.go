// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCatalog = `# sample plugins
@ "Triangle", "triangle", "ijk", "1.0.0", "spinning triangle"
@ "Cube", "cube", "ijk", "1.2.0", "rotating cube"
@ "Broken", "broken"
`

const testScript = `
function OnLoad(id)
  return 0
end
`

// pluginTree writes a catalog and Lua scripts for its entries, isolates the
// XDG dirs and resets the global --config value.
func pluginTree(t *testing.T) (dir, catalog string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	configFile = ""
	t.Cleanup(func() { configFile = "" })

	dir = t.TempDir()
	catalog = filepath.Join(dir, "catalog.txt")
	require.NoError(t, os.WriteFile(catalog, []byte(testCatalog), 0o600))
	for _, name := range []string{"triangle", "cube"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".lua"), []byte(testScript), 0o600))
	}
	return dir, catalog
}
