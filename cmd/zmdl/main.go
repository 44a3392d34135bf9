// zmdl exports scene snapshots and glTF files to zmdl model documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/zmdl/internal/config"
	"github.com/Faultbox/zmdl/internal/exporter"
	"github.com/Faultbox/zmdl/internal/logger"
	"github.com/Faultbox/zmdl/internal/web"
	"github.com/Faultbox/zmdl/pkg/gltfscene"
	"github.com/Faultbox/zmdl/pkg/scene"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := initLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := args[0]
	rest := args[1:]

	switch command {
	case "export":
		err = cmdExport(ctx, cfg, rest)
	case "inspect":
		err = cmdInspect(cfg, rest)
	case "gltf2scene":
		err = cmdGLTF2Scene(cfg, rest)
	case "serve":
		err = cmdServe(ctx, cfg, rest)
	case "config":
		err = cmdConfig(cfg, rest)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) error {
	opts := logger.Options{
		Level:   cfg.Logging.Level,
		JSON:    cfg.Logging.JSON,
		Console: true,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	return logger.InitWithOptions(opts)
}

func printUsage() {
	fmt.Println(`zmdl - model exporter

Usage:
  zmdl [global options] <command> [options]

Commands:
  export [-selected] <scene> <out.zmdl>  Export a scene (.yaml, .json, .gltf, .glb)
  inspect [-dump] <scene>                Summarize objects, armatures and actions
  gltf2scene <in.gltf> <out.yaml>        Convert glTF to a scene snapshot
  serve                                  Run the HTTP export service
  config [path]                          Write the effective configuration

Global options:
  -config <file>   Config file (default ./zmdl.yaml, then user config dir)
  -debug           Debug logging
  -log-file <file> Also log to a rotating file
  -fps <n>         Frames per second for glTF keyframe times
  -addr <addr>     Listen address for serve

Examples:
  zmdl export hero.yaml hero.zmdl
  zmdl -fps 30 export -selected hero.glb hero.zmdl
  zmdl inspect -dump hero.yaml`)
}

// loadScene reads a scene snapshot or a glTF file, chosen by extension.
func loadScene(cfg *config.Config, path string) (*scene.Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return gltfscene.Load(path, gltfscene.Options{FPS: cfg.GLTF.FPS})
	default:
		return scene.Load(path)
	}
}

func cmdExport(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	selected := fs.Bool("selected", cfg.Export.SelectedOnly, "Export only selected objects")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: zmdl export [-selected] <scene> <out.zmdl>")
	}

	s, err := loadScene(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	opts := exporter.OptionsFromConfig(cfg)
	opts.SelectedOnly = *selected
	sum, err := exporter.New(opts).ExportFile(ctx, s, fs.Arg(1))
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d objects to %s\n", sum.Objects, fs.Arg(1))
	fmt.Printf("  vertices:   %d\n", sum.Vertices)
	fmt.Printf("  triangles:  %d\n", sum.Triangles)
	fmt.Printf("  bones:      %d\n", sum.Bones)
	fmt.Printf("  animations: %d\n", sum.Animations)
	return nil
}

func cmdInspect(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dump := fs.Bool("dump", false, "Dump the full scene snapshot")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: zmdl inspect [-dump] <scene>")
	}

	s, err := loadScene(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	if *dump {
		spew.Dump(s)
		return nil
	}

	exportable := make(map[string]bool)
	for _, o := range s.Exportable(false) {
		exportable[o.Name] = true
	}

	fmt.Printf("Scene: %s\n", fs.Arg(0))
	fmt.Printf("Objects: %d\n", len(s.Objects))
	for _, o := range s.Objects {
		mark := " "
		if exportable[o.Name] {
			mark = "*"
		}
		fmt.Printf("  %s %-24s %-9s", mark, o.Name, o.Type)
		if o.Mesh != "" {
			if m := s.Mesh(o.Mesh); m != nil {
				fmt.Printf(" %d verts, %d faces", len(m.Vertices), len(m.Polygons))
			}
		}
		if o.Armature != "" {
			fmt.Printf(" armature=%s", o.Armature)
		}
		fmt.Println()
	}

	fmt.Printf("Armatures: %d\n", len(s.Armatures))
	for _, a := range s.Armatures {
		actions := s.ActionsFor(a)
		names := make([]string, 0, len(actions))
		for _, act := range actions {
			names = append(names, act.ActionName())
		}
		sort.Strings(names)
		fmt.Printf("  %-26s %d bones, actions: %s\n", a.Name, len(a.BoneList), strings.Join(names, ", "))
	}

	fmt.Printf("Actions: %d\n", len(s.Actions))
	for _, a := range s.Actions {
		start, end := a.FrameRange()
		fmt.Printf("  %-26s frames %g-%g, %d curves\n", a.Name, start, end, len(a.FCurves))
	}
	return nil
}

func cmdGLTF2Scene(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: zmdl gltf2scene <in.gltf> <out.yaml>")
	}
	s, err := gltfscene.Load(args[0], gltfscene.Options{FPS: cfg.GLTF.FPS})
	if err != nil {
		return err
	}
	if err := s.Save(args[1]); err != nil {
		return err
	}
	fmt.Printf("Wrote %d objects, %d armatures, %d actions to %s\n",
		len(s.Objects), len(s.Armatures), len(s.Actions), args[1])
	return nil
}

func cmdServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.Parse(args)
	return web.New(cfg).ListenAndServe(ctx)
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote config to %s\n", args[0])
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Wrote config to %s\n", config.ConfigDir())
	return nil
}
