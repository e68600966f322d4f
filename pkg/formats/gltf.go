package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/skinview/pkg/math"
)

// glTF import errors.
var (
	ErrNoNodes         = errors.New("gltf: document has no nodes")
	ErrBadIndex        = errors.New("gltf: index out of range")
	ErrAccessorLayout  = errors.New("gltf: unexpected accessor layout")
	ErrHierarchyCycle  = errors.New("gltf: node hierarchy contains a cycle")
	ErrMissingPosition = errors.New("gltf: primitive has no POSITION attribute")
)

// GLTFTicksPerSecond is the tick rate of imported glTF animations.
// glTF keyframe times are already in seconds.
const GLTFTicksPerSecond = 1

// syntheticRootName names the node inserted when a scene has several roots.
const syntheticRootName = "RootNode"

// LoadGLTF reads a .gltf or .glb file into a Scene.
func LoadGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	scene, err := DecodeGLTF(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if scene.Name == "" {
		scene.Name = filepath.Base(path)
	}
	return scene, nil
}

// DecodeGLTF converts an already parsed glTF document.
// baseDir resolves relative image URIs.
func DecodeGLTF(doc *gltf.Document, baseDir string) (*Scene, error) {
	if len(doc.Nodes) == 0 {
		return nil, ErrNoNodes
	}

	d := &gltfDecoder{doc: doc, baseDir: baseDir}
	d.assignNames()

	root, err := d.buildRoot()
	if err != nil {
		return nil, err
	}

	meshes, err := d.meshes()
	if err != nil {
		return nil, err
	}

	animations, err := d.animations()
	if err != nil {
		return nil, err
	}

	scene := &Scene{
		Root:       root,
		Meshes:     meshes,
		Animations: animations,
	}
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		scene.Name = doc.Scenes[*doc.Scene].Name
	}
	return scene, nil
}

type gltfDecoder struct {
	doc     *gltf.Document
	baseDir string
	// names holds a unique name per node index.
	names []string
}

// assignNames gives every node a unique, non-empty name.
// Bones are bound by name, so a duplicate gets a numeric suffix starting at
// its node index, bumped until the result is unused.
func (d *gltfDecoder) assignNames() {
	d.names = make([]string, len(d.doc.Nodes))
	seen := make(map[string]bool, len(d.doc.Nodes))
	for i, n := range d.doc.Nodes {
		base := n.Name
		if base == "" {
			base = fmt.Sprintf("node_%d", i)
		}
		name := base
		for k := i; seen[name]; k++ {
			name = fmt.Sprintf("%s_%d", base, k)
		}
		seen[name] = true
		d.names[i] = name
	}
}

func (d *gltfDecoder) buildRoot() (*Node, error) {
	roots, err := d.rootIndices()
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, ErrNoNodes
	}

	visiting := make([]bool, len(d.doc.Nodes))
	if len(roots) == 1 {
		return d.buildNode(roots[0], visiting)
	}

	root := &Node{Name: syntheticRootName, Matrix: IdentityMatrix}
	for _, idx := range roots {
		child, err := d.buildNode(idx, visiting)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	return root, nil
}

// rootIndices returns the root nodes of the default scene, or every
// parentless node when the document declares no scenes.
func (d *gltfDecoder) rootIndices() ([]int, error) {
	if len(d.doc.Scenes) > 0 {
		idx := 0
		if d.doc.Scene != nil {
			idx = *d.doc.Scene
		}
		if idx < 0 || idx >= len(d.doc.Scenes) {
			return nil, fmt.Errorf("scene %d: %w", idx, ErrBadIndex)
		}
		return d.doc.Scenes[idx].Nodes, nil
	}

	isChild := make([]bool, len(d.doc.Nodes))
	for _, n := range d.doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func (d *gltfDecoder) buildNode(idx int, visiting []bool) (*Node, error) {
	if idx < 0 || idx >= len(d.doc.Nodes) {
		return nil, fmt.Errorf("node %d: %w", idx, ErrBadIndex)
	}
	if visiting[idx] {
		return nil, fmt.Errorf("node %q: %w", d.names[idx], ErrHierarchyCycle)
	}
	visiting[idx] = true
	defer func() { visiting[idx] = false }()

	src := d.doc.Nodes[idx]
	node := &Node{
		Name:   d.names[idx],
		Matrix: localMatrix(src),
	}
	for _, c := range src.Children {
		child, err := d.buildNode(c, visiting)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// localMatrix returns a node's local transform, composing TRS when no
// explicit matrix is present.
func localMatrix(n *gltf.Node) [16]float64 {
	if n.Matrix != [16]float64{} && n.Matrix != IdentityMatrix {
		return n.Matrix
	}

	t, r, s := nodeTRS(n)
	m := math.Compose(t, r, s)

	var out [16]float64
	for i, v := range m {
		out[i] = float64(v)
	}
	return out
}

// nodeTRS returns the bind translation, rotation and scale of a node.
func nodeTRS(n *gltf.Node) (math.Vec3, math.Quat, math.Vec3) {
	if n.Matrix != [16]float64{} && n.Matrix != IdentityMatrix {
		return math.FromColumnMajor64(n.Matrix).Decompose()
	}

	t := math.Vec3{X: float32(n.Translation[0]), Y: float32(n.Translation[1]), Z: float32(n.Translation[2])}

	r := math.QuatIdentity()
	if n.Rotation != [4]float64{} {
		r = math.Quat{
			X: float32(n.Rotation[0]),
			Y: float32(n.Rotation[1]),
			Z: float32(n.Rotation[2]),
			W: float32(n.Rotation[3]),
		}
	}

	s := math.Vec3{X: 1, Y: 1, Z: 1}
	if n.Scale != [3]float64{} {
		s = math.Vec3{X: float32(n.Scale[0]), Y: float32(n.Scale[1]), Z: float32(n.Scale[2])}
	}
	return t, r, s
}

func (d *gltfDecoder) meshes() ([]Mesh, error) {
	var out []Mesh
	for ni, node := range d.doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		if *node.Mesh < 0 || *node.Mesh >= len(d.doc.Meshes) {
			return nil, fmt.Errorf("node %q mesh %d: %w", d.names[ni], *node.Mesh, ErrBadIndex)
		}
		src := d.doc.Meshes[*node.Mesh]

		var skin *gltf.Skin
		var offsets [][16]float32
		if node.Skin != nil {
			if *node.Skin < 0 || *node.Skin >= len(d.doc.Skins) {
				return nil, fmt.Errorf("node %q skin %d: %w", d.names[ni], *node.Skin, ErrBadIndex)
			}
			skin = d.doc.Skins[*node.Skin]
			var err error
			if offsets, err = d.inverseBindMatrices(skin); err != nil {
				return nil, fmt.Errorf("node %q: %w", d.names[ni], err)
			}
		}

		name := src.Name
		if name == "" {
			name = d.names[ni]
		}
		for pi, prim := range src.Primitives {
			m, err := d.primitive(prim, skin, offsets)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", name, pi, err)
			}
			m.Name = name
			if len(src.Primitives) > 1 {
				m.Name = fmt.Sprintf("%s#%d", name, pi)
			}
			m.Node = d.names[ni]
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *gltfDecoder) primitive(prim *gltf.Primitive, skin *gltf.Skin, offsets [][16]float32) (Mesh, error) {
	var m Mesh

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return m, ErrMissingPosition
	}
	acr, err := d.accessor(posIdx)
	if err != nil {
		return m, err
	}
	if m.Positions, err = modeler.ReadPosition(d.doc, acr, nil); err != nil {
		return m, fmt.Errorf("reading positions: %w", err)
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = d.accessor(idx); err != nil {
			return m, err
		}
		if m.Normals, err = modeler.ReadNormal(d.doc, acr, nil); err != nil {
			return m, fmt.Errorf("reading normals: %w", err)
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = d.accessor(idx); err != nil {
			return m, err
		}
		if m.TexCoords, err = modeler.ReadTextureCoord(d.doc, acr, nil); err != nil {
			return m, fmt.Errorf("reading texture coordinates: %w", err)
		}
	}

	if prim.Indices != nil {
		if acr, err = d.accessor(*prim.Indices); err != nil {
			return m, err
		}
		if m.Indices, err = modeler.ReadIndices(d.doc, acr, nil); err != nil {
			return m, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		m.Indices = make([]uint32, len(m.Positions))
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}

	if skin != nil {
		if m.Bones, err = d.meshBones(prim, skin, offsets, len(m.Positions)); err != nil {
			return m, err
		}
	}

	if prim.Material != nil {
		if m.Texture, err = d.baseColorTexture(*prim.Material); err != nil {
			return m, err
		}
	}

	return m, nil
}

// meshBones regroups per-vertex JOINTS_0/WEIGHTS_0 data into per-bone weight
// lists. Only joints that actually influence a vertex are returned, ordered
// by their joint slot.
func (d *gltfDecoder) meshBones(prim *gltf.Primitive, skin *gltf.Skin, offsets [][16]float32, vertexCount int) ([]MeshBone, error) {
	jointsIdx, ok := prim.Attributes[gltf.JOINTS_0]
	if !ok {
		return nil, nil
	}
	weightsIdx, ok := prim.Attributes[gltf.WEIGHTS_0]
	if !ok {
		return nil, nil
	}

	acr, err := d.accessor(jointsIdx)
	if err != nil {
		return nil, err
	}
	joints, err := modeler.ReadJoints(d.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading joints: %w", err)
	}

	if acr, err = d.accessor(weightsIdx); err != nil {
		return nil, err
	}
	weights, err := modeler.ReadWeights(d.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading weights: %w", err)
	}

	if len(joints) != vertexCount || len(weights) != vertexCount {
		return nil, fmt.Errorf("skin attributes cover %d/%d of %d vertices: %w",
			len(joints), len(weights), vertexCount, ErrAccessorLayout)
	}

	perJoint := make(map[int]*MeshBone)
	for v := range joints {
		for k := 0; k < 4; k++ {
			w := weights[v][k]
			if w <= 0 {
				continue
			}
			slot := int(joints[v][k])
			if slot >= len(skin.Joints) {
				return nil, fmt.Errorf("vertex %d joint slot %d: %w", v, slot, ErrBadIndex)
			}
			bone, ok := perJoint[slot]
			if !ok {
				nodeIdx := skin.Joints[slot]
				if nodeIdx < 0 || nodeIdx >= len(d.names) {
					return nil, fmt.Errorf("joint %d node %d: %w", slot, nodeIdx, ErrBadIndex)
				}
				bone = &MeshBone{Name: d.names[nodeIdx], Offset: identity32()}
				if slot < len(offsets) {
					bone.Offset = offsets[slot]
				}
				perJoint[slot] = bone
			}
			bone.Weights = append(bone.Weights, VertexWeight{Vertex: uint32(v), Weight: w})
		}
	}

	slots := make([]int, 0, len(perJoint))
	for slot := range perJoint {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	bones := make([]MeshBone, 0, len(slots))
	for _, slot := range slots {
		bones = append(bones, *perJoint[slot])
	}
	return bones, nil
}

func (d *gltfDecoder) inverseBindMatrices(skin *gltf.Skin) ([][16]float32, error) {
	if skin.InverseBindMatrices == nil {
		return nil, nil
	}
	acr, err := d.accessor(*skin.InverseBindMatrices)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(d.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading inverse bind matrices: %w", err)
	}
	mats, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("inverse bind matrices are %T: %w", data, ErrAccessorLayout)
	}

	out := make([][16]float32, len(mats))
	for i, m := range mats {
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				out[i][col*4+row] = m[col][row]
			}
		}
	}
	return out, nil
}

func (d *gltfDecoder) baseColorTexture(materialIdx int) (*TextureRef, error) {
	if materialIdx < 0 || materialIdx >= len(d.doc.Materials) {
		return nil, fmt.Errorf("material %d: %w", materialIdx, ErrBadIndex)
	}
	mat := d.doc.Materials[materialIdx]
	if mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
		return nil, nil
	}

	texIdx := mat.PBRMetallicRoughness.BaseColorTexture.Index
	if texIdx < 0 || texIdx >= len(d.doc.Textures) {
		return nil, fmt.Errorf("texture %d: %w", texIdx, ErrBadIndex)
	}
	tex := d.doc.Textures[texIdx]
	if tex.Source == nil {
		return nil, nil
	}
	if *tex.Source < 0 || *tex.Source >= len(d.doc.Images) {
		return nil, fmt.Errorf("image %d: %w", *tex.Source, ErrBadIndex)
	}
	img := d.doc.Images[*tex.Source]

	switch {
	case img.BufferView != nil:
		data, err := d.bufferViewData(*img.BufferView)
		if err != nil {
			return nil, err
		}
		return &TextureRef{Data: data, MimeType: img.MimeType}, nil
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("decoding embedded image: %w", err)
		}
		return &TextureRef{Data: data, MimeType: img.MimeType}, nil
	case img.URI != "":
		return &TextureRef{Path: filepath.Join(d.baseDir, filepath.FromSlash(img.URI))}, nil
	}
	return nil, nil
}

func (d *gltfDecoder) bufferViewData(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(d.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d: %w", idx, ErrBadIndex)
	}
	view := d.doc.BufferViews[idx]
	if view.Buffer < 0 || view.Buffer >= len(d.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d: %w", view.Buffer, ErrBadIndex)
	}
	buf := d.doc.Buffers[view.Buffer].Data
	end := view.ByteOffset + view.ByteLength
	if end > len(buf) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer: %w", idx, ErrAccessorLayout)
	}
	return buf[view.ByteOffset:end], nil
}

func (d *gltfDecoder) animations() ([]Animation, error) {
	out := make([]Animation, 0, len(d.doc.Animations))
	for ai, src := range d.doc.Animations {
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("animation_%d", ai)
		}
		anim, err := d.animation(src)
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", name, err)
		}
		anim.Name = name
		out = append(out, anim)
	}
	return out, nil
}

func (d *gltfDecoder) animation(src *gltf.Animation) (Animation, error) {
	anim := Animation{TicksPerSecond: GLTFTicksPerSecond}

	channels := make(map[int]*Channel)
	var order []int

	for ci, ch := range src.Channels {
		if ch.Target.Node == nil {
			continue
		}
		nodeIdx := *ch.Target.Node
		if nodeIdx < 0 || nodeIdx >= len(d.doc.Nodes) {
			return anim, fmt.Errorf("channel %d node %d: %w", ci, nodeIdx, ErrBadIndex)
		}
		if ch.Sampler < 0 || ch.Sampler >= len(src.Samplers) {
			return anim, fmt.Errorf("channel %d sampler %d: %w", ci, ch.Sampler, ErrBadIndex)
		}
		sampler := src.Samplers[ch.Sampler]

		times, err := d.readScalars(sampler.Input)
		if err != nil {
			return anim, fmt.Errorf("channel %d times: %w", ci, err)
		}
		if len(times) == 0 {
			continue
		}
		if last := times[len(times)-1]; last > anim.Duration {
			anim.Duration = last
		}

		out, ok := channels[nodeIdx]
		if !ok {
			out = &Channel{Node: d.names[nodeIdx]}
			channels[nodeIdx] = out
			order = append(order, nodeIdx)
		}

		switch ch.Target.Path {
		case gltf.TRSTranslation:
			values, err := d.readVec3s(sampler.Output)
			if err == nil {
				values, err = samplerValues(values, len(times), sampler.Interpolation)
			}
			if err != nil {
				return anim, fmt.Errorf("channel %d translation: %w", ci, err)
			}
			out.Positions = vectorKeys(times, values)
		case gltf.TRSScale:
			values, err := d.readVec3s(sampler.Output)
			if err == nil {
				values, err = samplerValues(values, len(times), sampler.Interpolation)
			}
			if err != nil {
				return anim, fmt.Errorf("channel %d scale: %w", ci, err)
			}
			out.Scales = vectorKeys(times, values)
		case gltf.TRSRotation:
			values, err := d.readQuats(sampler.Output)
			if err == nil {
				values, err = samplerValues(values, len(times), sampler.Interpolation)
			}
			if err != nil {
				return anim, fmt.Errorf("channel %d rotation: %w", ci, err)
			}
			keys := make([]QuatKey, len(times))
			for i := range times {
				keys[i] = QuatKey{Time: times[i], Value: values[i]}
			}
			out.Rotations = keys
		}
	}

	// Sequences the clip does not animate hold the node's bind pose.
	for _, nodeIdx := range order {
		ch := channels[nodeIdx]
		t, r, s := nodeTRS(d.doc.Nodes[nodeIdx])
		if len(ch.Positions) == 0 {
			ch.Positions = []VectorKey{{Value: t.Array()}}
		}
		if len(ch.Rotations) == 0 {
			ch.Rotations = []QuatKey{{Value: [4]float32{r.X, r.Y, r.Z, r.W}}}
		}
		if len(ch.Scales) == 0 {
			ch.Scales = []VectorKey{{Value: s.Array()}}
		}
		anim.Channels = append(anim.Channels, *ch)
	}
	return anim, nil
}

// samplerValues keeps one output value per keyframe. Cubic spline samplers
// store (in-tangent, value, out-tangent) triplets; only the value is kept and
// the track is evaluated linearly. Step samplers are evaluated linearly as well.
func samplerValues[T any](values []T, keyCount int, interp gltf.Interpolation) ([]T, error) {
	if interp == gltf.InterpolationCubicSpline {
		if len(values) != 3*keyCount {
			return nil, fmt.Errorf("cubic spline has %d values for %d keys: %w", len(values), keyCount, ErrAccessorLayout)
		}
		out := make([]T, keyCount)
		for i := range out {
			out[i] = values[3*i+1]
		}
		return out, nil
	}
	if len(values) < keyCount {
		return nil, fmt.Errorf("%d values for %d keys: %w", len(values), keyCount, ErrAccessorLayout)
	}
	return values[:keyCount], nil
}

func vectorKeys(times []float32, values [][3]float32) []VectorKey {
	keys := make([]VectorKey, len(times))
	for i := range times {
		keys[i] = VectorKey{Time: times[i], Value: values[i]}
	}
	return keys
}

func (d *gltfDecoder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(d.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", idx, ErrBadIndex)
	}
	return d.doc.Accessors[idx], nil
}

func (d *gltfDecoder) readScalars(idx int) ([]float32, error) {
	acr, err := d.accessor(idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(d.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	v, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d is %T: %w", idx, data, ErrAccessorLayout)
	}
	return v, nil
}

func (d *gltfDecoder) readVec3s(idx int) ([][3]float32, error) {
	acr, err := d.accessor(idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(d.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d is %T: %w", idx, data, ErrAccessorLayout)
	}
	return v, nil
}

// readQuats reads rotation outputs, expanding normalized integer encodings.
func (d *gltfDecoder) readQuats(idx int) ([][4]float32, error) {
	acr, err := d.accessor(idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(d.doc, acr, nil)
	if err != nil {
		return nil, err
	}

	switch v := data.(type) {
	case [][4]float32:
		return v, nil
	case [][4]int8:
		return normalizeQuats(v, 127, true), nil
	case [][4]uint8:
		return normalizeQuats(v, 255, false), nil
	case [][4]int16:
		return normalizeQuats(v, 32767, true), nil
	case [][4]uint16:
		return normalizeQuats(v, 65535, false), nil
	}
	return nil, fmt.Errorf("accessor %d is %T: %w", idx, data, ErrAccessorLayout)
}

func normalizeQuats[T int8 | uint8 | int16 | uint16](src [][4]T, maxValue float32, signed bool) [][4]float32 {
	out := make([][4]float32, len(src))
	for i, q := range src {
		for k := 0; k < 4; k++ {
			c := float32(q[k]) / maxValue
			if signed && c < -1 {
				c = -1
			}
			out[i][k] = c
		}
	}
	return out
}

func identity32() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
