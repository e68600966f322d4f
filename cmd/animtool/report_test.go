package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/skinview/internal/engine/model"
	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/pkg/formats"
	"github.com/Faultbox/skinview/pkg/math"
)

func newAsset(scene *formats.Scene) (*asset, error) {
	table := skeletal.NewBindingTable()
	m, err := model.BuildSkinned(scene, table)
	if err != nil {
		return nil, err
	}
	return &asset{scene: scene, model: m, table: table}, nil
}

func fixture() *formats.Scene {
	arm := formats.IdentityMatrix
	arm[12] = 1
	return &formats.Scene{
		Name: "rig",
		Root: &formats.Node{Name: "Root", Matrix: formats.IdentityMatrix, Children: []*formats.Node{
			{Name: "Arm", Matrix: arm},
		}},
		Meshes: []formats.Mesh{{
			Name:      "Body",
			Node:      "Root",
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Indices:   []uint32{0, 1, 2},
			Bones: []formats.MeshBone{{
				Name:    "Arm",
				Offset:  [16]float32(math.Translate(-1, 0, 0)),
				Weights: []formats.VertexWeight{{Vertex: 1, Weight: 1}},
			}},
		}},
		Animations: []formats.Animation{{
			Name:           "lift",
			Duration:       4,
			TicksPerSecond: 2,
			Channels: []formats.Channel{{
				Node:      "Root",
				Positions: []formats.VectorKey{{Time: 0}, {Time: 4, Value: [3]float32{0, 4, 0}}},
				Rotations: []formats.QuatKey{{Value: [4]float32{0, 0, 0, 1}}},
				Scales:    []formats.VectorKey{{Value: [3]float32{1, 1, 1}}},
			}},
		}},
	}
}

func mustAsset(t *testing.T) *asset {
	t.Helper()
	a, err := newAsset(fixture())
	require.NoError(t, err)
	return a
}

func TestWriteInfo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeInfo(&out, mustAsset(t)))

	s := out.String()
	assert.Contains(t, s, "Model:      rig")
	assert.Contains(t, s, "Nodes:      2")
	assert.Contains(t, s, "Meshes:     1 (1 skinned)")
	assert.Contains(t, s, "Skin bones: 1")
	assert.Contains(t, s, "[0] lift")
	assert.Contains(t, s, "= 2.000s, 1 channels")
}

func TestWriteBones(t *testing.T) {
	a := mustAsset(t)
	clip, err := a.clip("", 0)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeBones(&out, a, clip))

	s := out.String()
	assert.Contains(t, s, "Bones (2):")
	assert.Regexp(t, `0  Arm\s+skin`, s)
	assert.Regexp(t, `1  Root\s+animation only`, s)
	assert.Contains(t, s, "  Root #1 *\n")
	assert.Contains(t, s, "    Arm #0\n")
}

func TestWriteTracks(t *testing.T) {
	a := mustAsset(t)
	clip, err := a.clip("lift", 0)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeTracks(&out, clip))
	assert.Contains(t, out.String(), `Clip "lift": 4 ticks @ 2/s (2.000s)`)
	assert.Regexp(t, `1  Root\s+2\s+1\s+1\s+4.000`, out.String())
}

func TestWriteSample(t *testing.T) {
	a := mustAsset(t)
	clip, err := a.clip("", 0)
	require.NoError(t, err)

	player := skeletal.NewPlayer(a.table.Len())
	require.NoError(t, player.SetClip(clip))

	var out bytes.Buffer
	require.NoError(t, writeSample(&out, player, 1, sampleOptions{}))
	s := out.String()
	assert.Contains(t, s, `Clip "lift" at 1s (tick 2)`)
	// Arm: T(0,2,0) * T(1,0,0) * offset T(-1,0,0)
	assert.Contains(t, s, "Arm                            t=(0.0000, 2.0000, 0.0000)")
	assert.Contains(t, s, "Root                           t=(0.0000, 2.0000, 0.0000)")

	out.Reset()
	require.NoError(t, writeSample(&out, player, 1, sampleOptions{bone: "Arm", matrix: true}))
	assert.Contains(t, out.String(), "[   1.0000    0.0000    0.0000    0.0000]")
	assert.Contains(t, out.String(), "[   0.0000    1.0000    0.0000    2.0000]")
	assert.NotContains(t, out.String(), "Root")

	err = writeSample(&out, player, 0, sampleOptions{bone: "Leg"})
	assert.ErrorContains(t, err, `bone "Leg" not bound`)
}
