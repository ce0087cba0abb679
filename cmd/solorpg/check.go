package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/daemonforge/solorpg/internal/config"
	"github.com/daemonforge/solorpg/internal/data"
	"github.com/daemonforge/solorpg/internal/world"
)

func runCheck(cfg *config.Config, log *zap.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	pkg, err := newLoader(cfg, log).LoadFile(path)
	if err != nil {
		return fmt.Errorf("load package: %w", err)
	}

	printPackage(pkg, info.Size())

	issues := data.CheckReferences(pkg)
	printSection("References")
	if len(issues) == 0 {
		printOK("all references resolve")
		return nil
	}
	for _, is := range issues {
		printWarn(is.String())
	}
	printStat("Dangling references", fmt.Sprint(len(issues)))
	return nil
}

func printPackage(pkg *world.Package, size int64) {
	def := pkg.Definition
	printSection(def.Name)
	printStat("Id", def.ID)
	if def.Version != "" {
		printStat("Version", def.Version)
	}
	if def.Author != "" {
		printStat("Author", def.Author)
	}
	printStat("Archive size", humanize.IBytes(uint64(size)))
	printStat("Digest", pkg.Digest[:16])
	printStat("Locations", fmt.Sprint(len(pkg.Locations)))
	printStat("NPCs", fmt.Sprint(len(pkg.NPCs)))
	printStat("Factions", fmt.Sprint(len(pkg.Factions)))
	printStat("Items", fmt.Sprint(len(pkg.Items)))
	printStat("Events", fmt.Sprint(len(pkg.Events)))
	printStat("Story nodes", fmt.Sprint(len(pkg.StoryNodes)))
	printOK("package loaded")
}
