// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package plugin

import (
	"context"
	"log/slog"
	"sync/atomic"
	"unsafe"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("ijkwin/plugin")

// Reserved plugin ids. Non-negative ids are hard loads of catalog entries;
// negative ids other than NoPlugin are hot (debug) loads.
const (
	NoPlugin = -1
	DebugID  = -2
)

// Ownership decides who frees the plugin's user data on unload.
type Ownership int

const (
	// HostOwns makes the host free the user data with the Destructor. Used
	// when the plugin may be in an inconsistent state, e.g. before a rebuild.
	HostOwns Ownership = iota
	// PluginOwns trusts the unload callback to have freed its own data.
	PluginOwns
)

func (o Ownership) String() string {
	if o == PluginOwns {
		return "plugin"
	}
	return "host"
}

// State is the lifecycle state of a Plugin.
type State int

// Plugin states.
const (
	StateEmpty State = iota
	StateLoaded
)

func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "empty"
}

// Plugin owns one loaded plugin binary: its library handle, resolved
// callback table and opaque user data. A Plugin is not safe for concurrent
// use; all transitions run on the window's router goroutine. Status is the
// exception.
type Plugin struct {
	opener  Opener
	dir     string
	host    unsafe.Pointer
	destroy Destructor
	logger  *slog.Logger

	lib   Library
	table *Table
	data  unsafe.Pointer
	id    int
	desc  Descriptor

	status atomic.Pointer[Status]
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithOpener sets how plugin binaries are opened. Default NativeOpener.
func WithOpener(o Opener) Option {
	return func(p *Plugin) {
		p.opener = o
	}
}

// WithDir sets the plugin directory. Default DefaultDir.
func WithDir(dir string) Option {
	return func(p *Plugin) {
		p.dir = dir
	}
}

// WithHost sets the pointer passed first to the load-family callbacks.
func WithHost(host unsafe.Pointer) Option {
	return func(p *Plugin) {
		p.host = host
	}
}

// WithDestructor sets how host-owned user data is freed. Default
// FreeDestructor.
func WithDestructor(d Destructor) Option {
	return func(p *Plugin) {
		p.destroy = d
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Plugin) {
		p.logger = l
	}
}

// New creates an empty plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{
		opener: NativeOpener{},
		dir:    DefaultDir,
		table:  DefaultTable(),
		id:     NoPlugin,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.destroy == nil {
		p.destroy = FreeDestructor()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.publish()
	return p
}

// State returns the lifecycle state.
func (p *Plugin) State() State {
	if p.lib == nil {
		return StateEmpty
	}
	return StateLoaded
}

// Loaded reports whether a library is loaded.
func (p *Plugin) Loaded() bool {
	return p.lib != nil
}

// ID returns the plugin id, NoPlugin when empty.
func (p *Plugin) ID() int {
	return p.id
}

// Hot reports whether the loaded plugin is a hot (debug) load.
func (p *Plugin) Hot() bool {
	return p.lib != nil && p.id < 0
}

// Descriptor returns the loaded descriptor; zero when empty.
func (p *Plugin) Descriptor() Descriptor {
	return p.desc
}

// Data returns the plugin's opaque user data.
func (p *Plugin) Data() unsafe.Pointer {
	return p.data
}

// Table returns the current callback table. Never nil.
func (p *Plugin) Table() *Table {
	return p.table
}

// Dir returns the directory binaries are loaded from.
func (p *Plugin) Dir() string {
	return p.dir
}

// Load opens desc's binary, resolves its callbacks and calls the load
// callback: OnHotLoad for negative ids, OnLoad otherwise. The callback
// receives a reference to nil user data and may replace it.
func (p *Plugin) Load(ctx context.Context, desc Descriptor, id int) (err error) {
	_, span := tracer.Start(ctx, "plugin.load", trace.WithAttributes(
		attribute.String("plugin.dylib", desc.Dylib()),
		attribute.Int("plugin.id", id),
	))
	defer func() {
		endSpan(span, err)
		recordTransition("load", err)
	}()

	if p.lib != nil {
		return ErrAlreadyLoaded(p.desc.Name())
	}
	if id == NoPlugin {
		return ErrInvalidID(id)
	}
	if desc.IsZero() {
		return ErrInvalidParams("descriptor")
	}
	if p.opener == nil {
		return ErrInvalidParams("opener")
	}

	lib, err := p.opener.Open(p.dir, desc.Dylib())
	if err != nil {
		return ErrOperationFailed("open plugin "+desc.Dylib(), err)
	}

	p.lib = lib
	p.table = Resolve(lib)
	p.id = id
	p.desc = desc
	p.data = nil
	p.publish()

	slot := hotVariant(OnLoad, id < 0)
	if rc := p.callRef(slot); rc < 0 {
		p.logger.Warn("plugin load callback reported failure",
			"plugin", desc.Name(),
			"slot", slot.String(),
			"code", rc)
	}

	p.logger.Info("loaded plugin",
		"plugin", desc.Name(),
		"dylib", desc.Dylib(),
		"version", desc.Version(),
		"id", id,
		"hot", id < 0,
		"resolved", p.table.ResolvedCount())
	return nil
}

// Reload with a descriptor swaps the binary: Unload(own) then Load(desc)
// with the same id. Without one it reloads in place, calling OnWillReload and
// then OnHotReload/OnReload with the current user data; the library stays
// open.
func (p *Plugin) Reload(ctx context.Context, desc *Descriptor, own Ownership) (err error) {
	ctx, span := tracer.Start(ctx, "plugin.reload", trace.WithAttributes(
		attribute.Bool("plugin.swap", desc != nil),
	))
	defer func() {
		endSpan(span, err)
		recordTransition("reload", err)
	}()

	if p.lib == nil {
		return ErrNotLoaded("reload")
	}

	if desc != nil {
		id := p.id
		if err := p.Unload(ctx, own); err != nil {
			return err
		}
		return p.Load(ctx, *desc, id)
	}

	p.table.Call(OnWillReload, p.data)
	slot := hotVariant(OnReload, p.id < 0)
	if rc := p.callRef(slot); rc < 0 {
		p.logger.Warn("plugin reload callback reported failure",
			"plugin", p.desc.Name(),
			"code", rc)
	}
	p.logger.Info("reloaded plugin in place", "plugin", p.desc.Name(), "id", p.id)
	return nil
}

// Unload calls OnWillUnload and the unload callback, then closes the
// library. With HostOwns, user data left non-nil by the callback is freed
// with the Destructor; with PluginOwns it is never freed by the host. Either
// way the plugin ends Empty with a default table and id NoPlugin.
func (p *Plugin) Unload(ctx context.Context, own Ownership) (err error) {
	_, span := tracer.Start(ctx, "plugin.unload", trace.WithAttributes(
		attribute.String("plugin.ownership", own.String()),
	))
	defer func() {
		endSpan(span, err)
		recordTransition("unload", err)
	}()

	if p.lib == nil {
		return ErrNotLoaded("unload")
	}

	name := p.desc.Name()
	p.table.Call(OnWillUnload, p.data)
	p.callRef(hotVariant(OnUnload, p.id < 0))

	if own == HostOwns && p.data != nil {
		if p.destroy != nil {
			p.destroy(p.data)
		} else {
			p.logger.Warn("no destructor for host-owned plugin data, leaking", "plugin", name)
		}
	}

	lib := p.lib
	p.lib = nil
	p.data = nil
	p.id = NoPlugin
	p.desc = Descriptor{}
	p.table = DefaultTable()
	p.publish()

	if err := lib.Close(); err != nil {
		return ErrOperationFailed("close plugin "+name, err)
	}
	p.logger.Info("unloaded plugin", "plugin", name, "ownership", own.String())
	return nil
}

// Reset forces the Empty state. A loaded plugin is unloaded host-owned.
func (p *Plugin) Reset(ctx context.Context) error {
	if p.lib != nil {
		return p.Unload(ctx, HostOwns)
	}
	p.table = DefaultTable()
	p.id = NoPlugin
	p.data = nil
	p.publish()
	return nil
}

// Invoke calls a SigData slot with the user data.
func (p *Plugin) Invoke(s Slot) int32 {
	return p.table.Call(s, p.data)
}

// InvokeInt calls a SigInt slot with the user data.
func (p *Plugin) InvokeInt(s Slot, a int32) int32 {
	return p.table.CallInt(s, p.data, a)
}

// InvokeInt2 calls a SigInt2 slot with the user data.
func (p *Plugin) InvokeInt2(s Slot, a, b int32) int32 {
	return p.table.CallInt2(s, p.data, a, b)
}

// InvokeInt3 calls a SigInt3 slot with the user data.
func (p *Plugin) InvokeInt3(s Slot, a, b, c int32) int32 {
	return p.table.CallInt3(s, p.data, a, b, c)
}

// Command calls OnUserCommand with args as argc/argv.
func (p *Plugin) Command(args []string) int32 {
	argv := NewArgv(args)
	defer argv.Release()
	return p.table.CallRef(OnUserCommand, p.data, argv.Len(), argv.Ref())
}

// callRef calls a load-family slot with (host, id, &data) and keeps whatever
// data the plugin hands back.
func (p *Plugin) callRef(s Slot) int32 {
	data := p.data
	rc := p.table.CallRef(s, p.host, int32(p.id), &data) //nolint:gosec // ids are small
	p.data = data
	return rc
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
