//go:build mage

package main

import (
	"context"
	"runtime"

	"github.com/maaend/wsboot"
	"github.com/maaend/wsboot/commons"
)

var h = wsboot.New(
	wsboot.WithPreExecFunc(
		func(ctx context.Context) error { // ensure go mod download is run before any task
			return wsboot.Run(ctx, "go", wsboot.WithArgs("mod", "download"))
		},
	),
)

// build the wsboot cli into ./bin
func Build(ctx context.Context) error {
	out := "bin/wsboot"
	if runtime.GOOS == "windows" {
		out += ".exe"
	}

	return h.Execute(
		ctx,
		commons.GoBuild("./cmd/wsboot", out, commons.WithGoBuildLDFlags("-s", "-w")),
	)
}

// run unit tests
func Test(ctx context.Context) error {
	return h.Execute(
		ctx,
		func(ctx context.Context) error {
			return wsboot.Run(ctx, "go", wsboot.WithArgs("test", "-race", "-cover", "./..."))
		},
	)
}

// run go mod tidy
func Tidy(ctx context.Context) error {
	return h.Execute(
		ctx,
		commons.GoModTidy("."),
	)
}
