package viewer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/skinview/internal/config"
	"github.com/Faultbox/skinview/internal/engine/skeletal"
	"github.com/Faultbox/skinview/internal/logger"
	"github.com/Faultbox/skinview/pkg/formats"
	"github.com/Faultbox/skinview/pkg/math"
)

func node(name string, x float64, children ...*formats.Node) *formats.Node {
	m := formats.IdentityMatrix
	m[12] = x
	return &formats.Node{Name: name, Matrix: m, Children: children}
}

// walker is one triangle skinned to Hips with a clip sliding Hips along x.
func walker() *formats.Scene {
	return &formats.Scene{
		Name: "walker",
		Root: node("Armature", 0, node("Hips", 0, node("Head", 1))),
		Meshes: []formats.Mesh{{
			Name:      "Body",
			Node:      "Armature",
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Indices:   []uint32{0, 1, 2},
			Bones: []formats.MeshBone{{
				Name:    "Hips",
				Offset:  [16]float32(math.Identity()),
				Weights: []formats.VertexWeight{{Vertex: 0, Weight: 1}, {Vertex: 1, Weight: 1}, {Vertex: 2, Weight: 1}},
			}},
		}},
		Animations: []formats.Animation{{
			Name:           "walk",
			Duration:       2,
			TicksPerSecond: 1,
			Channels: []formats.Channel{
				{
					Node:      "Hips",
					Positions: []formats.VectorKey{{Time: 0}, {Time: 2, Value: [3]float32{2, 0, 0}}},
					Rotations: []formats.QuatKey{{Value: [4]float32{0, 0, 0, 1}}},
					Scales:    []formats.VectorKey{{Value: [3]float32{1, 1, 1}}},
				},
				{
					Node:      "Head",
					Positions: []formats.VectorKey{{Value: [3]float32{1, 0, 0}}},
					Rotations: []formats.QuatKey{{Value: [4]float32{0, 0, 0, 1}}},
					Scales:    []formats.VectorKey{{Value: [3]float32{1, 1, 1}}},
				},
			},
		}},
	}
}

func house() *formats.Scene {
	return &formats.Scene{
		Name: "house",
		Root: node("House", 0),
		Meshes: []formats.Mesh{{
			Name:      "Walls",
			Node:      "House",
			Positions: [][3]float32{{0, 0, 0}, {4, 0, 0}, {0, 3, 0}},
			Indices:   []uint32{0, 1, 2},
		}},
	}
}

func animConfig() config.AnimationConfig {
	return config.Default().Animation
}

func TestBuildScene(t *testing.T) {
	s, err := BuildScene(walker(), house(), animConfig())
	require.NoError(t, err)

	assert.True(t, s.Table.Frozen())
	assert.Equal(t, 2, s.BoneCount(), "Hips from the skin, Head from the clip")
	require.NotNil(t, s.Clip)
	assert.Same(t, s.Clip, s.Player.Clip())
	require.NotNil(t, s.House)
	assert.False(t, s.House.Meshes[0].Skinned)

	s.Update(0.5)
	hips, _ := s.Table.Lookup("Hips")
	assert.True(t, s.Player.FinalMatrices()[hips.ID].ApproxEqual(math.Translate(0.5, 0, 0), 1e-6))

	head, _ := s.Table.Lookup("Head")
	assert.True(t, s.Player.FinalMatrices()[head.ID].ApproxEqual(math.Translate(1.5, 0, 0), 1e-6))
}

func TestBuildSceneSpeedAndPause(t *testing.T) {
	anim := animConfig()
	anim.Speed = 2
	s, err := BuildScene(walker(), nil, anim)
	require.NoError(t, err)
	assert.Nil(t, s.House)

	s.Update(0.25)
	assert.InDelta(t, 0.5, s.Player.Time(), 1e-6)

	assert.True(t, s.TogglePause())
	s.Update(1)
	assert.InDelta(t, 0.5, s.Player.Time(), 1e-6)

	assert.False(t, s.TogglePause())
	s.Restart()
	assert.Zero(t, s.Player.Time())
}

func TestBuildSceneWithoutAnimations(t *testing.T) {
	scene := walker()
	scene.Animations = nil

	s, err := BuildScene(scene, nil, animConfig())
	require.NoError(t, err)
	assert.Nil(t, s.Clip)
	assert.Equal(t, 1, s.BoneCount())

	s.Update(1)
	assert.True(t, s.Player.FinalMatrices()[0].IsIdentity(), "bind pose")
}

func TestBuildSceneWarnsOnSinglePose(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logger.Replace(zap.New(core))()

	_, err := BuildScene(walker(), nil, animConfig())
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("animations hold a single pose").Len())

	still := walker()
	still.Animations[0].Channels[0].Positions = still.Animations[0].Channels[0].Positions[:1]
	s, err := BuildScene(still, nil, animConfig())
	require.NoError(t, err)
	assert.NotNil(t, s.Clip, "a single pose still plays")

	warned := logs.FilterMessage("animations hold a single pose").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "walker", warned[0].ContextMap()["model"])
}

func TestBuildSceneErrors(t *testing.T) {
	anim := animConfig()
	anim.Clip = "fly"
	_, err := BuildScene(walker(), nil, anim)
	assert.Error(t, err)

	anim = animConfig()
	anim.MaxBones = 1
	_, err = BuildScene(walker(), nil, anim)
	assert.ErrorIs(t, err, skeletal.ErrCapacityExceeded)

	_, err = BuildScene(&formats.Scene{}, nil, animConfig())
	assert.Error(t, err)
}

func TestLoadSceneRequiresModel(t *testing.T) {
	_, err := LoadScene(config.Default())
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestHouseTransform(t *testing.T) {
	s, err := BuildScene(walker(), house(), animConfig())
	require.NoError(t, err)
	s.HouseScale = 2
	assert.Equal(t, math.Scale(2, 2, 2), s.HouseTransform())
}

func TestMovementFromKeys(t *testing.T) {
	held := map[sdl.Scancode]bool{sdl.SCANCODE_W: true, sdl.SCANCODE_Q: true, sdl.SCANCODE_RCTRL: true}
	m := movementFromKeys(func(k sdl.Scancode) bool { return held[k] })

	assert.True(t, m.Forward)
	assert.True(t, m.TurnLeft)
	assert.True(t, m.Down)
	assert.False(t, m.Backward)
	assert.False(t, m.Up)
}

func TestFrameStats(t *testing.T) {
	f := frameStats{interval: time.Second}
	for i := 0; i < 9; i++ {
		_, _, ok := f.add(100 * time.Millisecond)
		require.False(t, ok)
	}
	fps, worst, ok := f.add(200 * time.Millisecond)
	require.True(t, ok)
	assert.InDelta(t, 10/1.1, fps, 1e-9)
	assert.Equal(t, 200*time.Millisecond, worst)
	assert.Zero(t, f.frames)
}

func TestFrameDeltaAndBudget(t *testing.T) {
	assert.InDelta(t, 0.016, frameDelta(16*time.Millisecond), 1e-6)
	assert.InDelta(t, 0.25, frameDelta(5*time.Second), 1e-6)
	assert.Zero(t, frameDelta(-time.Second))

	assert.Zero(t, frameBudget(0))
	assert.Equal(t, 16666666*time.Nanosecond, frameBudget(60))
}
