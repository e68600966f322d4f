package shader

import (
	"fmt"
	"sort"
	"strings"
)

// BoneMatricesUniform is the mat4 array the skinning vertex shader reads.
const BoneMatricesUniform = "finalBonesMatrices"

// BoneUniformName returns the uniform name of bone matrix i.
func BoneUniformName(i int) string {
	return fmt.Sprintf("%s[%d]", BoneMatricesUniform, i)
}

// WithDefines inserts a #define line per entry right after the #version
// directive of src. Defines are emitted in name order.
func WithDefines(src string, defines map[string]string) string {
	if len(defines) == 0 {
		return src
	}

	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)

	var block strings.Builder
	for _, name := range names {
		fmt.Fprintf(&block, "#define %s %s\n", name, defines[name])
	}

	trimmed := strings.TrimLeft(src, " \t\r\n")
	if !strings.HasPrefix(trimmed, "#version") {
		return block.String() + src
	}
	end := strings.IndexByte(trimmed, '\n')
	if end < 0 {
		return trimmed + "\n" + block.String()
	}
	return trimmed[:end+1] + block.String() + trimmed[end+1:]
}
