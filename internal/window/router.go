// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/samber/oops"

	"github.com/ijkwin/ijkwin/internal/plugin"
	"github.com/ijkwin/ijkwin/pkg/errutil"
)

// State is the lifecycle state of a Router.
type State uint8

// Router states.
const (
	StateCreated State = iota
	StateRunning
	StateClosing
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// DefaultFrameWait bounds how long the router waits for an event after an
// idle callback that drew nothing.
const DefaultFrameWait = 10 * time.Millisecond

// Builder starts plugin builds and installs their output. The router calls
// Request when a build key or command is used and Copy when a successful
// CopyComplete arrives.
type Builder interface {
	// Request starts a build job unless one is running. It reports whether
	// a job was started.
	Request(ctx context.Context, rebuild bool) bool

	// Copy moves the freshly built binary into the plugin directory.
	Copy(ctx context.Context) error
}

// Router owns one native window and its plugin. All plugin transitions
// happen on the goroutine running Run; other goroutines talk to the router
// only by posting events to the native window.
type Router struct {
	native    Native
	plugin    *plugin.Plugin
	platform  *Platform
	flags     ControlFlags
	catalog   *plugin.Catalog
	builder   Builder
	debug     plugin.Descriptor
	logger    *slog.Logger
	frameWait time.Duration

	state   State
	active  bool
	buttons uint32
	x, y    int32
	width   int32
	height  int32
	prompt  *prompt
}

// Option configures a Router.
type Option func(*Router)

// WithPlatform sets the shared platform context. By default each router
// gets a private one.
func WithPlatform(p *Platform) Option {
	return func(r *Router) {
		r.platform = p
	}
}

// WithFlags sets the control flags. Default DefaultFlags.
func WithFlags(f ControlFlags) Option {
	return func(r *Router) {
		r.flags = f
	}
}

// WithCatalog sets the catalog used by LOAD.
func WithCatalog(c *plugin.Catalog) Option {
	return func(r *Router) {
		r.catalog = c
	}
}

// WithBuilder sets the plugin builder used by BUILD and REBUILD.
func WithBuilder(b Builder) Option {
	return func(r *Router) {
		r.builder = b
	}
}

// WithDebugDescriptor sets the descriptor loaded by DEBUG and after builds.
// Default plugin.DebugDescriptor("").
func WithDebugDescriptor(d plugin.Descriptor) Option {
	return func(r *Router) {
		r.debug = d
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithFrameWait sets how long to wait for events when idle drew nothing.
// Zero disables waiting. Default DefaultFrameWait.
func WithFrameWait(d time.Duration) Option {
	return func(r *Router) {
		r.frameWait = d
	}
}

// New creates a router for native driving p and registers it with the
// platform.
func New(native Native, p *plugin.Plugin, opts ...Option) (*Router, error) {
	if native == nil {
		return nil, ErrInvalidParams("native")
	}
	if p == nil {
		return nil, ErrInvalidParams("plugin")
	}
	r := &Router{
		native:    native,
		plugin:    p,
		flags:     DefaultFlags,
		debug:     plugin.DebugDescriptor(""),
		frameWait: DefaultFrameWait,
		active:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.platform == nil {
		r.platform = NewPlatform(r.logger)
	}
	if err := r.platform.Acquire(); err != nil {
		return nil, err
	}
	return r, nil
}

// State returns the router state.
func (r *Router) State() State {
	return r.state
}

// Flags returns the control flags.
func (r *Router) Flags() ControlFlags {
	return r.flags
}

// Plugin returns the plugin driven by the router.
func (r *Router) Plugin() *plugin.Plugin {
	return r.plugin
}

// Size returns the last size reported by a Resize event.
func (r *Router) Size() (width, height int32) {
	return r.width, r.height
}

// Position returns the last position reported by a Move event.
func (r *Router) Position() (x, y int32) {
	return r.x, r.y
}

// Prompting reports whether the command prompt is open.
func (r *Router) Prompting() bool {
	return r.prompt != nil
}

// Run resets the plugin and pumps events until the window closes, an EXIT
// command runs, the idle callback fails without a prompt to fall back on, or
// ctx is done. It then destroys the router.
func (r *Router) Run(ctx context.Context) error {
	if r.state != StateCreated {
		return ErrInvalidState("run", r.state)
	}
	if err := r.plugin.Reset(ctx); err != nil {
		errutil.LogError(r.logger, "plugin reset failed", err)
	}
	r.state = StateRunning
	r.applyCursor()
	r.logger.Info("window running", "flags", r.flags.String())

	for r.state == StateRunning {
		if ctx.Err() != nil {
			r.requestClose()
			break
		}
		if ev, ok := r.native.PumpEvent(); ok {
			if err := r.Dispatch(ctx, ev); err != nil {
				errutil.LogError(r.logger, "window event failed", err)
				r.setStatus(err.Error())
			}
			continue
		}
		r.idle(ctx)
	}

	return r.Destroy(ctx)
}

// Dispatch routes one event to exactly one plugin callback or router
// handler. Errors come from control handlers; plugin callback results are
// not errors.
func (r *Router) Dispatch(ctx context.Context, ev Event) error {
	if r.state == StateDestroyed {
		return ErrInvalidState("dispatch", r.state)
	}
	EventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	switch ev.Kind {
	case KindKeyDown, KindKeyUp:
		return r.key(ctx, ev)
	case KindMouseDown:
		r.buttons |= buttonBit(ev.Button)
		r.plugin.InvokeInt3(plugin.OnMouseClick, ev.X, ev.Y, ev.Button)
	case KindMouseDoubleClick:
		r.plugin.InvokeInt3(plugin.OnMouseClick2, ev.X, ev.Y, ev.Button)
	case KindMouseUp:
		r.buttons &^= buttonBit(ev.Button)
		r.plugin.InvokeInt3(plugin.OnMouseRelease, ev.X, ev.Y, ev.Button)
	case KindMouseWheel:
		r.plugin.InvokeInt3(plugin.OnMouseWheel, ev.X, ev.Y, ev.Delta)
	case KindMouseMove:
		if r.buttons != 0 {
			r.plugin.InvokeInt2(plugin.OnMouseDrag, ev.X, ev.Y)
		} else {
			r.plugin.InvokeInt2(plugin.OnMouseMove, ev.X, ev.Y)
		}
	case KindMouseEnter:
		r.plugin.Invoke(plugin.OnMouseEnter)
	case KindMouseLeave:
		r.buttons = 0
		r.plugin.Invoke(plugin.OnMouseLeave)
	case KindMove:
		r.x, r.y = ev.X, ev.Y
		r.plugin.InvokeInt2(plugin.OnMove, ev.X, ev.Y)
	case KindResize:
		r.width, r.height = ev.Width, ev.Height
		r.plugin.InvokeInt2(plugin.OnResize, ev.Width, ev.Height)
	case KindActivate:
		r.active = true
		r.applyCursor()
		r.plugin.Invoke(plugin.OnActivate)
	case KindDeactivate:
		r.active = false
		r.buttons = 0
		r.applyCursor()
		r.plugin.Invoke(plugin.OnDeactivate)
	case KindPaint:
		r.plugin.Invoke(plugin.OnDisplay)
	case KindClose:
		r.requestClose()
	case KindControl:
		return r.control(ctx, ev.Control)
	default:
		r.logger.Debug("ignoring event", "kind", ev.Kind.String())
	}
	return nil
}

// Destroy unloads the plugin host-owned so no plugin memory outlives the
// window, closes the native window and releases the platform. Later calls
// are no-ops.
func (r *Router) Destroy(ctx context.Context) error {
	if r.state == StateDestroyed {
		return nil
	}
	r.state = StateClosing

	var errs []error
	if r.plugin.Loaded() {
		if err := r.plugin.Unload(ctx, plugin.HostOwns); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.native.Close(); err != nil {
		errs = append(errs, oops.Wrapf(err, "close native window"))
	}
	r.platform.Release()
	r.state = StateDestroyed
	r.logger.Info("window destroyed")
	return errors.Join(errs...)
}

// idle runs OnIdle when nothing is pending. A negative result is fatal: it
// opens the command prompt when Escape is enabled and closes the window
// otherwise.
func (r *Router) idle(ctx context.Context) {
	if !r.active && !r.flags.Has(FlagDrawInactive) {
		r.wait(ctx)
		return
	}
	rc := r.plugin.Invoke(plugin.OnIdle)
	switch {
	case rc < 0:
		r.logger.Warn("plugin idle reported fatal error", "code", rc)
		if r.flags.Has(FlagEscape) {
			if r.prompt == nil {
				r.openPrompt("")
			}
			r.wait(ctx)
			return
		}
		r.requestClose()
	case rc == 0:
		r.wait(ctx)
	}
}

func (r *Router) wait(ctx context.Context) {
	if r.frameWait <= 0 {
		return
	}
	if w, ok := r.native.(Waiter); ok {
		w.Wait(ctx, r.frameWait)
	}
}

func (r *Router) requestClose() {
	if r.state == StateRunning {
		r.state = StateClosing
	}
}

// key routes a key event to the prompt, a control key handler or the
// plugin.
func (r *Router) key(ctx context.Context, ev Event) error {
	if r.prompt != nil {
		return r.promptKey(ctx, ev)
	}
	if flag := controlFlagFor(ev.Key); flag != 0 && r.flags.Has(flag) {
		if ev.Kind != KindKeyDown || ev.Repeat {
			return nil
		}
		return r.controlKey(ctx, ev.Key)
	}
	r.forwardKey(ev)
	return nil
}

// forwardKey calls the character callbacks for printable runes and the
// virtual-key callbacks for everything else.
func (r *Router) forwardKey(ev Event) {
	press, hold, release := plugin.OnVirtualKeyPress, plugin.OnVirtualKeyHold, plugin.OnVirtualKeyRelease
	code := int32(ev.Key)
	if ev.Rune != 0 && unicode.IsPrint(ev.Rune) {
		press, hold, release = plugin.OnKeyPress, plugin.OnKeyHold, plugin.OnKeyRelease
		code = ev.Rune
	}
	switch {
	case ev.Kind == KindKeyUp:
		r.plugin.InvokeInt(release, code)
	case ev.Repeat:
		r.plugin.InvokeInt(hold, code)
	default:
		r.plugin.InvokeInt(press, code)
	}
}

// controlKey runs the router action bound to an enabled control key.
func (r *Router) controlKey(ctx context.Context, k Key) error {
	switch k {
	case KeyF1:
		r.info()
	case KeyF2:
		r.openPrompt(CmdLoad + " ")
	case KeyF3:
		return r.control(ctx, Reload(nil))
	case KeyF4:
		return r.control(ctx, Unload(plugin.PluginOwns))
	case KeyF5:
		return r.control(ctx, Debug(true))
	case KeyF6:
		return r.control(ctx, Build())
	case KeyF7:
		return r.control(ctx, Rebuild())
	case KeyF8:
		r.plugin.Invoke(plugin.OnUser1)
	case KeyF9:
		r.plugin.Invoke(plugin.OnUser2)
	case KeyF10:
		r.plugin.Invoke(plugin.OnUser3)
	case KeyF11:
		return r.toggleFullScreen()
	case KeyF12:
		r.plugin.Command(nil)
	case KeyEscape:
		r.openPrompt("")
	}
	return nil
}

// control runs one control protocol message.
func (r *Router) control(ctx context.Context, c Control) error {
	switch c.Op {
	case OpLoad:
		if c.Descriptor == nil {
			return ErrInvalidParams("descriptor")
		}
		return r.load(ctx, *c.Descriptor, c.ID)
	case OpReload:
		return r.plugin.Reload(ctx, c.Descriptor, r.swapOwnership())
	case OpUnload:
		return r.plugin.Unload(ctx, c.Ownership)
	case OpDebug:
		return r.debugLoad(ctx, c.Toggle)
	case OpBuild:
		return r.build(ctx, false)
	case OpRebuild:
		return r.build(ctx, true)
	case OpCopyComplete:
		return r.copyComplete(ctx, c)
	case OpCommand:
		return r.command(ctx, c.Text)
	default:
		return ErrInvalidParams(fmt.Sprintf("control op %d", c.Op))
	}
}

// swapOwnership is the ownership used when the router itself replaces a
// plugin binary: a hot plugin frees its own data, a hard one is freed by the
// host.
func (r *Router) swapOwnership() plugin.Ownership {
	if r.plugin.Hot() {
		return plugin.PluginOwns
	}
	return plugin.HostOwns
}

// load replaces any loaded plugin with desc under id.
func (r *Router) load(ctx context.Context, desc plugin.Descriptor, id int) error {
	if r.plugin.Loaded() {
		if err := r.plugin.Unload(ctx, plugin.PluginOwns); err != nil {
			return err
		}
	}
	if err := r.plugin.Load(ctx, desc, id); err != nil {
		return err
	}
	r.setStatus("loaded " + desc.Name())
	return nil
}

// debugLoad loads the debug plugin, reloads it in place when it is already
// active, or unloads it when toggling.
func (r *Router) debugLoad(ctx context.Context, toggle bool) error {
	if r.plugin.Hot() {
		if toggle {
			return r.plugin.Unload(ctx, plugin.PluginOwns)
		}
		return r.plugin.Reload(ctx, nil, plugin.PluginOwns)
	}
	return r.load(ctx, r.debug, plugin.DebugID)
}

func (r *Router) build(ctx context.Context, rebuild bool) error {
	if r.builder == nil {
		return ErrNoBuilder()
	}
	if !r.builder.Request(ctx, rebuild) {
		r.logger.Info("build already in progress, request dropped", "rebuild", rebuild)
		r.setStatus("build already in progress")
		return nil
	}
	if rebuild {
		r.setStatus("rebuilding plugin")
	} else {
		r.setStatus("building plugin")
	}
	return nil
}

// copyComplete finishes a build job. On success the current plugin is
// unloaded, the new binary copied in and the debug plugin loaded, reusing
// the hot id when a debug plugin was active. A failed build changes nothing.
func (r *Router) copyComplete(ctx context.Context, c Control) error {
	if !c.Success {
		r.logger.Warn("plugin build failed, keeping current plugin", "job", c.JobID)
		r.setStatus("build failed")
		return nil
	}

	id := plugin.DebugID
	if r.plugin.Loaded() {
		own := plugin.HostOwns
		if r.plugin.Hot() {
			own = plugin.PluginOwns
			id = r.plugin.ID()
		}
		if err := r.plugin.Unload(ctx, own); err != nil {
			errutil.LogError(r.logger, "unload before plugin swap failed", err)
		}
	}
	if r.builder != nil {
		if err := r.builder.Copy(ctx); err != nil {
			errutil.LogError(r.logger, "copy plugin binary failed", err)
		}
	}
	if err := r.plugin.Load(ctx, r.debug, id); err != nil {
		return err
	}
	r.logger.Info("hot-swapped plugin", "job", c.JobID, "id", id)
	r.setStatus("build complete, reloaded " + r.debug.Name())
	return nil
}

// info shows the loaded plugin's descriptor.
func (r *Router) info() {
	if !r.plugin.Loaded() {
		r.setStatus("no plugin loaded")
		return
	}
	d := r.plugin.Descriptor()
	text := fmt.Sprintf("[%d] %s: %s", r.plugin.ID(), d, d.Info())
	r.logger.Info("plugin info", "id", r.plugin.ID(), "plugin", d.Name(), "version", d.Version())
	r.setStatus(text)
}

func (r *Router) toggleFullScreen() error {
	fs, ok := r.native.(FullScreener)
	if !ok {
		return ErrUnsupported("full-screen")
	}
	if err := fs.ToggleFullScreen(); err != nil {
		return oops.Code(CodeUnsupported).Wrapf(err, "toggle full-screen")
	}
	return nil
}

// applyCursor locks and hides the pointer per the flags while active.
func (r *Router) applyCursor() {
	cc, ok := r.native.(CursorController)
	if !ok {
		return
	}
	cc.SetCursorLocked(r.active && r.flags.Has(FlagLockCursor))
	cc.SetCursorHidden(r.active && r.flags.Has(FlagHideCursor))
}

func (r *Router) setStatus(text string) {
	if sw, ok := r.native.(StatusWriter); ok {
		sw.SetStatus(text)
	}
}

func buttonBit(b int32) uint32 {
	if b < 0 || b > 31 {
		return 0
	}
	return 1 << uint32(b)
}
