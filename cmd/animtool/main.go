// animtool is a CLI utility for inspecting skeletons and animations of glTF models.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "bones":
		err = cmdBones(args)
	case "tracks":
		err = cmdTracks(args)
	case "sample":
		err = cmdSample(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`animtool - skeletal animation inspector

Usage:
  animtool <command> [options] <model.gltf|model.glb>

Commands:
  info                              Show meshes, skin and animations
  bones   [-anim name|-index n]     List bone ids and the node hierarchy
  tracks  [-anim name|-index n]     List keyframe tracks of a clip
  sample  -t seconds [-bone name]   Print final bone matrices at a time

Common options:
  -anim name    Select a clip by name
  -index n      Select a clip by index (default 0)
  -v            Log loading details to stderr

Examples:
  animtool info character.glb
  animtool bones -anim Walk character.glb
  animtool sample -t 0.5 -bone Hips -matrix character.glb`)
}

// commonFlags registers the options every command shares.
type commonFlags struct {
	anim    *string
	index   *int
	verbose *bool
}

func newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, commonFlags{
		anim:    fs.String("anim", "", "Clip name"),
		index:   fs.Int("index", 0, "Clip index when -anim is not given"),
		verbose: fs.Bool("v", false, "Log loading details"),
	}
}

// open parses args and loads the model named by the first positional argument.
func open(fs *flag.FlagSet, common commonFlags, args []string) (*asset, error) {
	fs.Parse(args)
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("usage: animtool %s [options] <model>", fs.Name())
	}

	level := "warn"
	if *common.verbose {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		return nil, err
	}

	return loadAsset(fs.Arg(0))
}

func cmdInfo(args []string) error {
	fs, common := newFlagSet("info")
	a, err := open(fs, common, args)
	if err != nil {
		return err
	}
	return writeInfo(os.Stdout, a)
}

func cmdBones(args []string) error {
	fs, common := newFlagSet("bones")
	a, err := open(fs, common, args)
	if err != nil {
		return err
	}
	clip, err := a.clip(*common.anim, *common.index)
	if err != nil {
		return err
	}
	return writeBones(os.Stdout, a, clip)
}

func cmdTracks(args []string) error {
	fs, common := newFlagSet("tracks")
	a, err := open(fs, common, args)
	if err != nil {
		return err
	}
	clip, err := a.clip(*common.anim, *common.index)
	if err != nil {
		return err
	}
	return writeTracks(os.Stdout, clip)
}

func cmdSample(args []string) error {
	fs, common := newFlagSet("sample")
	seconds := fs.Float64("t", 0, "Time in seconds")
	bone := fs.String("bone", "", "Only print this bone")
	matrix := fs.Bool("matrix", false, "Print full matrices instead of translations")
	a, err := open(fs, common, args)
	if err != nil {
		return err
	}
	clip, err := a.clip(*common.anim, *common.index)
	if err != nil {
		return err
	}

	player := skeletal.NewPlayer(a.table.Len())
	if err := player.SetClip(clip); err != nil {
		return err
	}
	return writeSample(os.Stdout, player, float32(*seconds), sampleOptions{bone: *bone, matrix: *matrix})
}
