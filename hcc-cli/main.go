package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/yejune/go-hcc/hcc-cli/cmd"
	_ "github.com/yejune/go-hcc/hcc-cli/cmd/generate"
	_ "github.com/yejune/go-hcc/hcc-cli/cmd/types"
	_ "github.com/yejune/go-hcc/hcc-cli/cmd/verify"
	_ "github.com/yejune/go-hcc/hcc-cli/cmd/watch"
)

func main() {
	if os.Getenv("HCC_NO_BANNER") == "" {
		art := figure.NewFigure("hcc", "slant", true)
		fmt.Fprintln(os.Stderr, art.String())
	}
	cmd.Execute()
}
