package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/addrsim/mem"
	"github.com/sarchlab/addrsim/mem/vm"
)

func newPageTableCmd(env *environment) *cobra.Command {
	var memorySize, pageSize uint64

	policyName := "lru"

	pageTableCmd := &cobra.Command{
		Use:     "pagetable",
		Aliases: []string{"pt"},
		Short:   "Translate virtual addresses with a fully associative page table.",
		Long: `Translate virtual addresses with a fully associative page ` +
			`table that replaces pages by LRU or FIFO. If a size flag is ` +
			`given, the table starts configured; otherwise, enter the ` +
			`parameters from the menu first.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			policy, err := vm.ParsePolicy(policyName)
			if err != nil {
				return err
			}

			t := vm.NewPageTable("PageTable")
			env.attach(t)

			if memorySize != 0 || pageSize != 0 {
				err = t.Configure(memorySize, pageSize, policy)
				if err != nil {
					return err
				}
			}

			err = env.startMonitor()
			if err != nil {
				return err
			}

			s := &pageTableSession{env: env, table: t}
			err = s.menu().run(env.prompter)

			env.logger.Info("page table finished",
				"geometry", t.Geometry(), "stats", t.Stats())

			return err
		},
	}

	pageTableCmd.Flags().Uint64Var(&memorySize, "mm-size", 0,
		"Main memory size in words.")
	pageTableCmd.Flags().Uint64Var(&pageSize, "page-size", 0,
		"Page size in words.")
	pageTableCmd.Flags().StringVar(&policyName, "policy", policyName,
		"Replacement policy, lru (0) or fifo (1).")

	return pageTableCmd
}

type pageTableSession struct {
	env   *environment
	table *vm.PageTable
}

func (s *pageTableSession) menu() menu {
	return menu{
		title: "Virtual address mapping",
		items: []menuItem{
			{label: "Enter parameters", run: s.configure},
			{label: "Map virtual address", run: s.translate},
			{label: "Print page table", run: s.print},
		},
	}
}

func (s *pageTableSession) configure() error {
	p := s.env.prompter

	memorySize, err := p.askUint("Enter main memory size (words): ")
	if err != nil {
		return err
	}

	pageSize, err := p.askUint("Enter page size (words): ")
	if err != nil {
		return err
	}

	answer, err := p.ask("Enter replacement policy (0=LRU, 1=FIFO): ")
	if err != nil {
		return err
	}

	policy, err := vm.ParsePolicy(answer)
	if err != nil {
		return err
	}

	return s.env.do(func() error {
		return s.table.Configure(memorySize, pageSize, policy)
	})
}

func (s *pageTableSession) translate() error {
	p := s.env.prompter

	configured := false
	_ = s.env.do(func() error {
		configured = s.table.Configured()
		return nil
	})

	if !configured {
		return mem.ErrNotConfigured
	}

	vAddr, err := p.askUint("Enter virtual memory address to access: ")
	if err != nil {
		return err
	}

	var rsp vm.TranslationResult

	err = s.env.do(func() error {
		rsp, err = s.table.Translate(vAddr)
		return err
	})
	if err != nil {
		return err
	}

	if rsp.Fault {
		p.printf("Page fault!\n")
		return nil
	}

	p.printf("Virtual address %d maps to physical address %d\n",
		rsp.VirtualAddress, rsp.PhysicalAddress)

	return nil
}

func (s *pageTableSession) print() error {
	var entries []vm.Page

	_ = s.env.do(func() error {
		entries = s.table.Entries()
		return nil
	})

	for _, e := range entries {
		s.env.prompter.printf("VP %d --> PF %d\n", e.VirtualPage, e.Frame)
	}

	return nil
}
