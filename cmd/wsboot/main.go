package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
)

var opt struct {
	Root   string `long:"root" default:"." description:"workspace root"`
	Config string `long:"config" description:"configuration file (default: wsboot.yaml inside the workspace root)"`

	Setup setupCmd `command:"setup" description:"initialize the workspace: submodules, go agent and release dependencies"`
	Build buildCmd `command:"build" description:"prepare the install directory and build the go agent"`
}

// ctx is cancelled on interrupt; commands take it from here since go-flags doesn't
// pass a context along.
var appctx context.Context

func main() {
	var stop context.CancelFunc
	appctx, stop = signal.NotifyContext(context.Background(), os.Interrupt)

	parser := flags.NewParser(&opt, flags.HelpFlag|flags.PassDoubleDash)
	_, err := parser.Parse()
	stop()

	if err == nil {
		return
	}

	var flagerr *flags.Error
	if errors.As(err, &flagerr) && flagerr.Type == flags.ErrHelp {
		fmt.Println(flagerr.Message)
		return
	}

	color.Red("[FATAL] %s", err)
	os.Exit(1)
}
