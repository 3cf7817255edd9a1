package main

import (
	"github.com/lunixbochs/cellcorn/go/cmd"

	_ "github.com/lunixbochs/cellcorn/go/cmd/disasm"
	_ "github.com/lunixbochs/cellcorn/go/cmd/run"
)

func main() { cmd.Main() }
