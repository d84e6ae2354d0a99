// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window_test

import (
	"context"

	"github.com/samber/oops"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/ijkwin/ijkwin/internal/plugin"
	"github.com/ijkwin/ijkwin/internal/window"
)

func errorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

var _ = Describe("Router with only F3 enabled", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		f, err = newFixture(window.FlagF3)
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Context("with no plugin loaded", func() {
		It("ignores F4 as a control key", func() {
			Expect(f.router.Dispatch(ctx, window.KeyDown(window.KeyF4))).To(Succeed())
			Expect(f.spy.count(plugin.OnUnload)).To(BeZero())
			Expect(f.plugin.Loaded()).To(BeFalse())
		})

		It("reports NOT_LOADED for F3 without crashing", func() {
			err := f.router.Dispatch(ctx, window.KeyDown(window.KeyF3))
			Expect(err).To(HaveOccurred())
			Expect(errorCode(err)).To(Equal(plugin.CodeNotLoaded))
			Expect(f.plugin.State()).To(Equal(plugin.StateEmpty))
		})
	})

	Context("with a plugin loaded", func() {
		BeforeEach(func() {
			Expect(f.router.Dispatch(ctx, window.ControlEvent(window.Load(0, triangle)))).To(Succeed())
			f.spy.reset()
		})

		It("delivers F4 to the plugin as a virtual key", func() {
			Expect(f.router.Dispatch(ctx, window.KeyDown(window.KeyF4))).To(Succeed())
			Expect(f.spy.names()).To(Equal([]string{"OnVirtualKeyPress"}))
			Expect(f.spy.last().args).To(Equal([]int32{int32(window.KeyF4)}))
			Expect(f.plugin.Loaded()).To(BeTrue())
		})

		It("reloads in place on F3", func() {
			Expect(f.router.Dispatch(ctx, window.KeyDown(window.KeyF3))).To(Succeed())
			Expect(f.spy.names()).To(Equal([]string{"OnWillReload", "OnReload"}))
			Expect(f.opener.opened).To(HaveLen(1))
		})
	})
})

var _ = Describe("Build completion", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		f, err = newFixture(window.DefaultFlags)
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		Expect(f.router.Dispatch(ctx, window.KeyDown(window.KeyF5))).To(Succeed())
		f.spy.reset()
	})

	It("never touches the plugin when the build failed", func() {
		Expect(f.router.Dispatch(ctx, window.ControlEvent(window.CopyComplete("job", false)))).To(Succeed())
		Expect(f.spy.names()).To(BeEmpty())
		Expect(f.builder.copies).To(BeZero())
	})

	It("unloads exactly once and loads exactly once after a successful build", func() {
		Expect(f.router.Dispatch(ctx, window.ControlEvent(window.CopyComplete("job", true)))).To(Succeed())
		Expect(f.spy.count(plugin.OnHotUnload) + f.spy.count(plugin.OnUnload)).To(Equal(1))
		Expect(f.spy.count(plugin.OnHotLoad) + f.spy.count(plugin.OnLoad)).To(Equal(1))
		Expect(f.builder.copies).To(Equal(1))
		Expect(f.plugin.ID()).To(Equal(plugin.DebugID))
	})
})
