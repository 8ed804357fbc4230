// Command resolve-dev serves a directory as an ES module playground,
// resolving bare imports against its node_modules the way a bundler's dev
// server does. Grounded on esm.sh's cli/command_dev.go flag parsing and
// banner, and cli/cli.go's rex.Serve wiring.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ije/gox/term"
	"github.com/ije/rex"

	"github.com/esmresolve/modresolve/internal/app_dir"
	"github.com/esmresolve/modresolve/internal/devserver"
	"github.com/esmresolve/modresolve/internal/optimizer"
	"github.com/esmresolve/modresolve/resolver"
)

func main() {
	var port int
	var dir string
	var dev bool
	flag.IntVar(&port, "port", 3000, "port to listen on")
	flag.StringVar(&dir, "dir", ".", "directory to serve")
	flag.BoolVar(&dev, "dev", true, "serve development-mode browser-external stubs")
	flag.Parse()

	rootDir, err := filepath.Abs(dir)
	if err != nil {
		fmt.Println(term.Red("[error] " + err.Error()))
		os.Exit(1)
	}

	cfg, err := loadConfig(filepath.Join(rootDir, "modresolve.jsonc"))
	if err != nil {
		fmt.Println(term.Red("[error] failed to load modresolve.jsonc: " + err.Error()))
		os.Exit(1)
	}
	if cfg.Port != 0 {
		port = cfg.Port
	}

	appDir, err := app_dir.GetAppDir()
	if err != nil {
		fmt.Println(term.Red("[error] " + err.Error()))
		os.Exit(1)
	}
	opt, err := optimizer.New(filepath.Join(appDir, "deps"), nil)
	if err != nil {
		fmt.Println(term.Red("[error] " + err.Error()))
		os.Exit(1)
	}
	opt.MarkScanComplete()

	res := resolver.New()
	opts := resolver.Options{
		Root:       rootDir,
		AsSrc:      true,
		Dev:        dev,
		Optimizer:  opt,
		MainFields: cfg.MainFields,
		Conditions: cfg.Conditions,
		Dedupe:     cfg.Dedupe,
	}

	srv, err := devserver.New(rootDir, res, opts, dev)
	if err != nil {
		fmt.Println(term.Red("[error] " + err.Error()))
		os.Exit(1)
	}
	defer srv.Close()

	rex.Use(
		rex.Header("Server", "modresolve"),
		srv.Handler(),
	)

	fmt.Println(term.Green("✦"), "Serving", term.Dim(rootDir))
	fmt.Println(term.Green("✦"), fmt.Sprintf("http://localhost:%d", port))
	rex.Serve(rex.ServerConfig{Port: uint16(port)})
}
