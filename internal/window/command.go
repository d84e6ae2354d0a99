// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ijkwin/ijkwin/internal/plugin"
)

// Command names understood by the router. Anything else is forwarded to the
// plugin's OnUserCommand.
const (
	CmdExit    = "EXIT"
	CmdInfo    = "INFO"
	CmdLoad    = "LOAD"
	CmdReload  = "RELOAD"
	CmdUnload  = "UNLOAD"
	CmdDebug   = "DEBUG"
	CmdBuild   = "BUILD"
	CmdRebuild = "REBUILD"
	CmdFullscr = "FULLSCR"
	CmdUser1   = "USER1"
	CmdUser2   = "USER2"
	CmdUser3   = "USER3"
	CmdUser4   = "USER4"
)

const loadUsage = "LOAD [n]"

// parsedCommand is a command line split on whitespace.
type parsedCommand struct {
	name   string   // first token, upper-cased
	fields []string // all tokens as typed
	raw    string
}

func parseCommand(text string) (parsedCommand, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return parsedCommand{}, false
	}
	return parsedCommand{
		name:   strings.ToUpper(fields[0]),
		fields: fields,
		raw:    text,
	}, true
}

func (c parsedCommand) args() []string {
	return c.fields[1:]
}

// command executes one command line.
func (r *Router) command(ctx context.Context, text string) error {
	cmd, ok := parseCommand(text)
	if !ok {
		return nil
	}
	r.logger.Debug("command", "name", cmd.name, "args", len(cmd.args()))

	switch cmd.name {
	case CmdExit:
		r.requestClose()
	case CmdInfo:
		r.info()
	case CmdLoad:
		return r.loadCommand(ctx, cmd)
	case CmdReload:
		return r.control(ctx, Reload(nil))
	case CmdUnload:
		return r.control(ctx, Unload(plugin.PluginOwns))
	case CmdDebug:
		return r.control(ctx, Debug(false))
	case CmdBuild:
		return r.control(ctx, Build())
	case CmdRebuild:
		return r.control(ctx, Rebuild())
	case CmdFullscr:
		return r.toggleFullScreen()
	case CmdUser1:
		r.plugin.Invoke(plugin.OnUser1)
	case CmdUser2:
		r.plugin.Invoke(plugin.OnUser2)
	case CmdUser3:
		r.plugin.Invoke(plugin.OnUser3)
	case CmdUser4:
		r.plugin.Command(nil)
	default:
		rc := r.plugin.Command(cmd.fields)
		r.logger.Debug("user command forwarded", "command", cmd.fields[0], "code", rc)
	}
	return nil
}

// loadCommand handles "LOAD n", and lists the catalog for a bare "LOAD".
func (r *Router) loadCommand(ctx context.Context, cmd parsedCommand) error {
	if r.catalog.Len() == 0 {
		return ErrNoCatalog()
	}
	args := cmd.args()
	if len(args) == 0 {
		entries := r.catalog.Entries()
		parts := make([]string, len(entries))
		for i, d := range entries {
			parts[i] = fmt.Sprintf("%d %s", i, d.Name())
		}
		r.setStatus(loadUsage + ": " + strings.Join(parts, ", "))
		return nil
	}
	if len(args) > 1 {
		return ErrInvalidCommand(cmd.raw, loadUsage)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return ErrInvalidCommand(cmd.raw, loadUsage)
	}
	desc, ok := r.catalog.At(id)
	if !ok {
		return plugin.ErrInvalidID(id)
	}
	return r.control(ctx, Load(id, desc))
}
