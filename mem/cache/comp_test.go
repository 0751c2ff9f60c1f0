package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/addrsim/mem"
	"github.com/sarchlab/addrsim/sim/hooking"
)

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		c        *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		c = MakeBuilder().
			WithMemorySize(8).
			WithCacheSize(4).
			WithBlockSize(2).
			Build("Cache")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("configuration", func() {
		It("should reject zero sizes", func() {
			c := NewComp("Cache")

			Expect(c.Configure(0, 4, 2)).To(MatchError(mem.ErrConfig))
			Expect(c.Configure(8, 0, 2)).To(MatchError(mem.ErrConfig))
			Expect(c.Configure(8, 4, 0)).To(MatchError(mem.ErrConfig))
			Expect(c.Configured()).To(BeFalse())
		})

		It("should reject a block larger than the cache", func() {
			Expect(c.Configure(8, 2, 4)).To(MatchError(mem.ErrConfig))
		})

		It("should reject a cache that is not made of whole blocks", func() {
			Expect(c.Configure(8, 5, 2)).To(MatchError(mem.ErrConfig))
		})

		It("should keep the previous state on error", func() {
			_, err := c.Read(5)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Configure(8, 2, 4)).To(MatchError(mem.ErrConfig))

			Expect(c.Geometry()).To(Equal(Geometry{8, 4, 2}))
			Expect(c.Lines()[0].IsValid).To(BeTrue())
		})

		It("should reset lines and memory when reconfigured", func() {
			_, err := c.Write(5, 100)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.Configure(8, 4, 2)).To(Succeed())

			Expect(c.MemoryWords()).To(Equal([]int64{8, 7, 6, 5, 4, 3, 2, 1}))
			for _, l := range c.Lines() {
				Expect(l.IsValid).To(BeFalse())
				Expect(l.Block).To(BeNil())
			}
			Expect(c.Stats()).To(BeZero())
		})

		It("should panic when the builder is given a bad geometry", func() {
			Expect(func() {
				MakeBuilder().
					WithMemorySize(8).
					WithCacheSize(2).
					WithBlockSize(4).
					Build("Cache")
			}).To(Panic())
		})

		It("should leave a built cache unconfigured without sizes", func() {
			c := MakeBuilder().Build("Cache")

			Expect(c.Configured()).To(BeFalse())
			Expect(c.Lines()).To(BeNil())
		})
	})

	Context("request validation", func() {
		It("should fail before configuration", func() {
			c := NewComp("Cache")

			_, err := c.Read(0)

			Expect(err).To(MatchError(mem.ErrNotConfigured))
		})

		It("should reject addresses beyond the memory", func() {
			_, err := c.Read(8)
			Expect(err).To(MatchError(mem.ErrOutOfRange))

			_, err = c.Write(8, 1)
			Expect(err).To(MatchError(mem.ErrOutOfRange))

			Expect(c.Stats()).To(BeZero())
			Expect(c.MemoryWords()).To(Equal([]int64{8, 7, 6, 5, 4, 3, 2, 1}))
		})

		It("should reject a write without value", func() {
			_, err := c.Access(AccessReq{Mode: AccessModeWrite, Address: 1})

			Expect(err).To(MatchError(mem.ErrMissingValue))
			for _, l := range c.Lines() {
				Expect(l.IsValid).To(BeFalse())
			}
		})

		It("should reject an unknown mode", func() {
			_, err := c.Access(AccessReq{Mode: AccessMode(7), Address: 1})

			Expect(err).To(HaveOccurred())
		})
	})

	Context("read", func() {
		It("should miss and fill the block", func() {
			rsp, err := c.Read(5)

			Expect(err).NotTo(HaveOccurred())
			Expect(rsp.Hit).To(BeFalse())
			Expect(rsp.Tag).To(Equal(uint64(1)))
			Expect(rsp.Index).To(Equal(uint64(0)))
			Expect(rsp.Word).To(Equal(uint64(1)))
			Expect(rsp.Value).To(Equal(int64(3)))
			Expect(c.Lines()[0].Block).To(Equal([]int64{4, 3}))
		})

		It("should hit when reading the same address again", func() {
			_, err := c.Read(5)
			Expect(err).NotTo(HaveOccurred())

			rsp, err := c.Read(5)

			Expect(err).NotTo(HaveOccurred())
			Expect(rsp.Hit).To(BeTrue())
			Expect(rsp.Value).To(Equal(int64(3)))
			Expect(c.Stats()).To(Equal(Statistics{ReadHits: 1, ReadMisses: 1}))
		})

		It("should hit on the other word of the block", func() {
			_, err := c.Read(5)
			Expect(err).NotTo(HaveOccurred())

			rsp, err := c.Read(4)

			Expect(err).NotTo(HaveOccurred())
			Expect(rsp.Hit).To(BeTrue())
			Expect(rsp.Value).To(Equal(int64(4)))
		})

		It("should replace a line holding another tag", func() {
			_, err := c.Read(1)
			Expect(err).NotTo(HaveOccurred())

			rsp, err := c.Read(5)

			Expect(err).NotTo(HaveOccurred())
			Expect(rsp.Hit).To(BeFalse())
			Expect(c.Lines()[0].Tag).To(Equal(uint64(1)))
			Expect(c.Lines()[0].Block).To(Equal([]int64{4, 3}))
		})

		It("should set the tag of every line it reads", func() {
			for addr := uint64(0); addr < 8; addr++ {
				rsp, err := c.Read(addr)
				Expect(err).NotTo(HaveOccurred())

				line := c.Lines()[rsp.Index]
				Expect(line.Tag).To(Equal(addr / 4))

				again, err := c.Read(addr)
				Expect(err).NotTo(HaveOccurred())
				Expect(again.Hit).To(BeTrue())
			}
		})

		It("should zero the words of a block past the end of memory", func() {
			Expect(c.Configure(6, 4, 4)).To(Succeed())

			_, err := c.Read(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Lines()[0].Block).To(Equal([]int64{6, 5, 4, 3}))

			rsp, err := c.Read(5)

			Expect(err).NotTo(HaveOccurred())
			Expect(rsp.Value).To(Equal(int64(1)))
			Expect(c.Lines()[0].Block).To(Equal([]int64{2, 1, 0, 0}))
		})
	})

	Context("write", func() {
		It("should write through on a hit", func() {
			_, err := c.Read(5)
			Expect(err).NotTo(HaveOccurred())

			rsp, err := c.Write(5, 42)

			Expect(err).NotTo(HaveOccurred())
			Expect(rsp.Hit).To(BeTrue())
			Expect(rsp.Value).To(Equal(int64(42)))
			Expect(c.Lines()[0].Block).To(Equal([]int64{4, 42}))
			Expect(c.ReadMemory(5)).To(Equal(int64(42)))
		})

		It("should allocate without fill on a never used line", func() {
			rsp, err := c.Write(5, 42)

			Expect(err).NotTo(HaveOccurred())
			Expect(rsp.Hit).To(BeFalse())
			Expect(rsp.Value).To(Equal(int64(42)))
			Expect(c.Lines()[0].Tag).To(Equal(uint64(1)))
			Expect(c.Lines()[0].Block).To(Equal([]int64{0, 42}))
			Expect(c.ReadMemory(5)).To(Equal(int64(42)))

			again, err := c.Read(4)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Hit).To(BeTrue())
			Expect(again.Value).To(Equal(int64(0)))
		})

		It("should refill a previously used line before writing", func() {
			_, err := c.Read(1)
			Expect(err).NotTo(HaveOccurred())

			rsp, err := c.Write(5, 42)

			Expect(err).NotTo(HaveOccurred())
			Expect(rsp.Hit).To(BeFalse())
			Expect(c.Lines()[0].Block).To(Equal([]int64{4, 42}))
			Expect(c.Stats()).To(Equal(Statistics{ReadMisses: 1, WriteMisses: 1}))
		})

		It("should always commit the value to memory", func() {
			addrs := []uint64{0, 5, 5, 7, 1, 3}
			for i, addr := range addrs {
				value := int64(100 + i)

				_, err := c.Write(addr, value)
				Expect(err).NotTo(HaveOccurred())

				Expect(c.ReadMemory(addr)).To(Equal(value))
			}
		})
	})

	Context("hooks", func() {
		It("should invoke the hook on configuration and access", func() {
			hook := NewMockHook(mockCtrl)
			c := MakeBuilder().WithHook(hook).Build("Cache")

			hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosConfigure))
				Expect(ctx.Item).To(Equal(Geometry{8, 4, 2}))
			})
			Expect(c.Configure(8, 4, 2)).To(Succeed())

			hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosAccess))
				Expect(ctx.Domain).To(BeIdenticalTo(c))
				Expect(ctx.Item).To(Equal(ReadReq(5)))
				Expect(ctx.Detail.(AccessResult).Hit).To(BeFalse())
			})
			_, err := c.Read(5)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should not invoke the hook when an access fails", func() {
			hook := NewMockHook(mockCtrl)
			c.AcceptHook(hook)

			_, err := c.Read(100)

			Expect(err).To(HaveOccurred())
		})
	})
})
