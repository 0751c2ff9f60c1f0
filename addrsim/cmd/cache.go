package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/addrsim/mem"
	"github.com/sarchlab/addrsim/mem/cache"
)

func newCacheCmd(env *environment) *cobra.Command {
	var memorySize, cacheSize, blockSize uint64

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Read from and write to a direct-mapped write-through cache.",
		Long: `Read from and write to a direct-mapped write-through cache. ` +
			`Sizes are counted in words. If any size flag is given, the ` +
			`cache starts configured; otherwise, enter the parameters from ` +
			`the menu first.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := cache.NewComp("Cache")
			env.attach(c)

			if memorySize != 0 || cacheSize != 0 || blockSize != 0 {
				err := c.Configure(memorySize, cacheSize, blockSize)
				if err != nil {
					return err
				}
			}

			err := env.startMonitor()
			if err != nil {
				return err
			}

			s := &cacheSession{env: env, comp: c}
			err = s.menu().run(env.prompter)

			env.logger.Info("cache finished",
				"geometry", c.Geometry(), "stats", c.Stats())

			return err
		},
	}

	cacheCmd.Flags().Uint64Var(&memorySize, "mm-size", 0,
		"Main memory size in words.")
	cacheCmd.Flags().Uint64Var(&cacheSize, "cache-size", 0,
		"Cache size in words.")
	cacheCmd.Flags().Uint64Var(&blockSize, "block-size", 0,
		"Block size in words.")

	return cacheCmd
}

type cacheSession struct {
	env  *environment
	comp *cache.Comp
}

func (s *cacheSession) menu() menu {
	return menu{
		title: "Cache memory allocation and mapping",
		items: []menuItem{
			{label: "Enter parameters", run: s.configure},
			{
				label: "Access cache for reading/writing and transfer data",
				run:   s.access,
			},
		},
	}
}

func (s *cacheSession) configure() error {
	p := s.env.prompter

	memorySize, err := p.askUint("Enter main memory size (words): ")
	if err != nil {
		return err
	}

	cacheSize, err := p.askUint("Enter cache size (words): ")
	if err != nil {
		return err
	}

	blockSize, err := p.askUint("Enter block size (words/block): ")
	if err != nil {
		return err
	}

	return s.env.do(func() error {
		return s.comp.Configure(memorySize, cacheSize, blockSize)
	})
}

func (s *cacheSession) access() error {
	p := s.env.prompter

	configured := false
	_ = s.env.do(func() error {
		configured = s.comp.Configured()
		return nil
	})

	if !configured {
		return mem.ErrNotConfigured
	}

	req, err := s.askReq()
	if err != nil {
		return err
	}

	var rsp cache.AccessResult

	err = s.env.do(func() error {
		rsp, err = s.comp.Access(req)
		return err
	})
	if err != nil {
		return err
	}

	outcome := "miss!"
	if rsp.Hit {
		outcome = "hit!"
	}

	if rsp.Mode == cache.AccessModeRead {
		p.printf("Read %s\n", outcome)
	} else {
		p.printf("Write %s\n", outcome)
	}

	p.printf("Word %d of block %d with tag %d contains value %d\n",
		rsp.Word, rsp.Index, rsp.Tag, rsp.Value)

	return nil
}

func (s *cacheSession) askReq() (cache.AccessReq, error) {
	p := s.env.prompter

	selection, err := p.ask("Select read (0) or write (1): ")
	if err != nil {
		return cache.AccessReq{}, err
	}

	switch selection {
	case "0":
		address, err := p.askUint("Enter main memory address to read from: ")
		if err != nil {
			return cache.AccessReq{}, err
		}

		return cache.ReadReq(address), nil
	case "1":
		address, err := p.askUint("Enter main memory address to write to: ")
		if err != nil {
			return cache.AccessReq{}, err
		}

		value, err := p.askInt("Enter value to write: ")
		if err != nil {
			return cache.AccessReq{}, err
		}

		return cache.WriteReq(address, value), nil
	default:
		return cache.AccessReq{}, errBadSelection
	}
}
