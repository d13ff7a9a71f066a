package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	toolchain "github.com/iss4e/toolchain"
	"github.com/iss4e/toolchain/config"
	"github.com/iss4e/toolchain/dist"
	"github.com/iss4e/toolchain/logutil"
)

// Command manifest inspects the public surface of the toolchain
// distribution.
//
// Usage:
//
//	manifest [flags]
//
// The flags are:
//
//	-package string
//	      print only the exports of the named sub-package
//	-resolve string
//	      resolve a single "subpackage.symbol" name and report whether
//	      it is exported, private, or unknown
func main() {
	pkgFlag := flag.String("package", "", "print only the exports of this sub-package")
	resolveFlag := flag.String("resolve", "", "resolve a single subpackage.symbol name")
	flag.Parse()

	logger := logutil.New()

	// The shared config may adjust the log level; its absence is fine.
	if cwd, err := os.Getwd(); err == nil {
		if cfg, err := config.Load(cwd); err == nil {
			if err := logutil.Configure(logger, cfg.Logging.Level, cfg.Logging.Format); err != nil {
				logger.WithError(err).Warn("Ignoring invalid logging configuration")
			}
		}
	}

	m := toolchain.Manifest()

	if *resolveFlag != "" {
		os.Exit(resolve(m, logger, *resolveFlag))
	}

	subs := m.SubPackages()
	if *pkgFlag != "" {
		subs = []string{*pkgFlag}
	}

	for _, sub := range subs {
		exports, err := m.ListExports(sub)
		if err != nil {
			logger.WithError(err).Fatal("Failed to list exports")
		}
		fmt.Printf("%s/\n", sub)
		for _, name := range exports {
			sym, err := m.Resolve(sub, name)
			if err != nil {
				logger.WithError(err).Fatal("Manifest inconsistency")
			}
			fmt.Printf("    %-12s %s\n", sym.Kind, sym.Name)
		}
	}
}

func resolve(m *dist.Distribution, logger *logrus.Logger, spec string) int {
	sub, name, ok := strings.Cut(spec, ".")
	if !ok {
		logger.Error("Expected -resolve argument of the form subpackage.symbol")
		return 2
	}

	sym, err := m.Resolve(sub, name)
	switch {
	case err == nil:
		fmt.Printf("%s.%s: exported %s\n", sub, sym.Name, sym.Kind)
		return 0
	case isNotExported(err):
		fmt.Printf("%s.%s: exists but is not part of the public surface\n", sub, name)
		return 1
	default:
		fmt.Printf("%s.%s: %v\n", sub, name, err)
		return 1
	}
}

func isNotExported(err error) bool {
	var notExported *dist.NotExportedError
	return errors.As(err, &notExported)
}
