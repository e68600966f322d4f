package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/skinview/internal/engine/model"
	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/pkg/formats"
	"github.com/Faultbox/skinview/pkg/math"
)

// asset is a model loaded with its skin registered in a fresh table.
type asset struct {
	scene *formats.Scene
	model *model.Model
	table *skeletal.BindingTable
}

func loadAsset(path string) (*asset, error) {
	table := skeletal.NewBindingTable()
	m, err := model.LoadSkinned(path, table)
	if err != nil {
		return nil, err
	}
	return &asset{scene: m.Scene, model: m, table: table}, nil
}

// clip builds the selected animation. Bones it adds are visible in a.table.
func (a *asset) clip(name string, index int) (*skeletal.Clip, error) {
	return a.model.Clip(name, index)
}

func writeInfo(w io.Writer, a *asset) error {
	vertices, skinned := 0, 0
	for _, m := range a.model.Meshes {
		vertices += len(m.Vertices)
		if m.Skinned {
			skinned++
		}
	}

	fmt.Fprintf(w, "Model:      %s\n", a.model.Name)
	fmt.Fprintf(w, "Nodes:      %d\n", a.scene.Root.Count())
	fmt.Fprintf(w, "Meshes:     %d (%d skinned)\n", len(a.model.Meshes), skinned)
	fmt.Fprintf(w, "Vertices:   %d\n", vertices)
	fmt.Fprintf(w, "Skin bones: %d\n", a.table.Len())
	if b := a.model.Bounds; b.Valid() {
		fmt.Fprintf(w, "Bounds:     %v .. %v\n", b.Min, b.Max)
	}
	fmt.Fprintln(w)

	if len(a.scene.Animations) == 0 {
		fmt.Fprintln(w, "No animations")
		return nil
	}

	fmt.Fprintln(w, "Animations:")
	for i, anim := range a.scene.Animations {
		tps := anim.TicksPerSecond
		if tps == 0 {
			tps = skeletal.DefaultTicksPerSecond
		}
		fmt.Fprintf(w, "  [%d] %-20s %8.3f ticks @ %g/s = %.3fs, %d channels\n",
			i, anim.Name, anim.Duration, tps, anim.Duration/tps, len(anim.Channels))
	}
	return nil
}

func writeBones(w io.Writer, a *asset, clip *skeletal.Clip) error {
	bindings := clip.Bindings()

	fmt.Fprintf(w, "Bones (%d):\n", bindings.Len())
	for id := 0; id < bindings.Len(); id++ {
		name := bindings.Name(id)
		b, _ := bindings.Lookup(name)
		source := "skin"
		if !b.HasOffset {
			source = "animation only"
		}
		fmt.Fprintf(w, "  %4d  %-30s %s\n", id, name, source)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Hierarchy:")
	clip.Root().Walk(func(n *skeletal.Node, depth int) bool {
		marks := ""
		if b, ok := bindings.Lookup(n.Name()); ok {
			marks += fmt.Sprintf(" #%d", b.ID)
		}
		if clip.FindTrack(n.Name()) != nil {
			marks += " *"
		}
		fmt.Fprintf(w, "  %s%s%s\n", strings.Repeat("  ", depth), n.Name(), marks)
		return true
	})
	fmt.Fprintln(w)
	fmt.Fprintln(w, "#id = bone slot, * = animated")
	return nil
}

func writeTracks(w io.Writer, clip *skeletal.Clip) error {
	fmt.Fprintf(w, "Clip %q: %g ticks @ %g/s (%.3fs)\n",
		clip.Name(), clip.Duration(), clip.TicksPerSecond(), clip.Seconds())
	fmt.Fprintf(w, "  %4s  %-30s %5s %5s %5s %9s\n", "id", "bone", "pos", "rot", "scl", "last key")
	for _, t := range clip.Tracks() {
		p, r, s := t.KeyCounts()
		fmt.Fprintf(w, "  %4d  %-30s %5d %5d %5d %9.3f\n", t.ID(), t.Name(), p, r, s, t.LastKeyTime())
	}
	return nil
}

type sampleOptions struct {
	bone   string
	matrix bool
}

// writeSample poses player at seconds into its clip and prints the final matrices.
func writeSample(w io.Writer, player *skeletal.Player, seconds float32, opts sampleOptions) error {
	clip := player.Clip()
	player.SetTime(seconds * clip.TicksPerSecond())
	bindings := clip.Bindings()
	final := player.FinalMatrices()

	fmt.Fprintf(w, "Clip %q at %gs (tick %g)\n", clip.Name(), seconds, player.Time())

	found := false
	for id := 0; id < bindings.Len(); id++ {
		name := bindings.Name(id)
		if opts.bone != "" && name != opts.bone {
			continue
		}
		found = true

		if opts.matrix {
			fmt.Fprintf(w, "  %4d  %s\n", id, name)
			writeMatrix(w, final[id])
			continue
		}
		t := final[id].Translation()
		fmt.Fprintf(w, "  %4d  %-30s t=(%.4f, %.4f, %.4f)\n", id, name, t.X, t.Y, t.Z)
	}

	if opts.bone != "" && !found {
		return fmt.Errorf("bone %q not bound", opts.bone)
	}
	return nil
}

// writeMatrix prints m row by row.
func writeMatrix(w io.Writer, m math.Mat4) {
	for row := 0; row < 4; row++ {
		fmt.Fprintf(w, "        [%9.4f %9.4f %9.4f %9.4f]\n", m[row], m[4+row], m[8+row], m[12+row])
	}
}
