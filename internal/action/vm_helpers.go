package action

import (
	"github.com/owlbrowser/core/internal/contextmgr"
	"github.com/owlbrowser/core/internal/vm"
)

func vmFilterFrom(opts contextmgr.CreateOpts) vm.Filter {
	return vm.Filter{OS: opts.OSFilter, GPU: opts.GPUFilter}
}
