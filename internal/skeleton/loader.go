package skeleton

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
)

const (
	extVRM0 = "VRM"
	extVRM1 = "VRMC_vrm"
)

// vrm0Humanoid is the humanoid section of the VRM 0.x extension.
type vrm0Humanoid struct {
	Humanoid struct {
		HumanBones []struct {
			Bone string `json:"bone"`
			Node int    `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
}

// vrm1Humanoid is the humanoid section of the VRMC_vrm 1.0 extension.
type vrm1Humanoid struct {
	Humanoid struct {
		HumanBones map[string]struct {
			Node int `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
}

// LoadModel opens a glTF, GLB or VRM file and enumerates its joints.
func LoadModel(path string) ([]RestJoint, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", path, err)
	}
	return JointsFromDocument(doc)
}

// JointsFromDocument enumerates joints from a decoded document. A VRM
// humanoid map is preferred; otherwise the first skin's joint nodes are
// used under their node names. A document with neither yields no joints
// and no error.
func JointsFromDocument(doc *gltf.Document) ([]RestJoint, error) {
	bones, err := humanBones(doc)
	if err != nil {
		return nil, err
	}
	if len(bones) > 0 {
		return bones, nil
	}
	return skinJoints(doc), nil
}

func humanBones(doc *gltf.Document) ([]RestJoint, error) {
	var v1 vrm1Humanoid
	ok, err := decodeExtension(doc, extVRM1, &v1)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", extVRM1, err)
	}
	if ok && len(v1.Humanoid.HumanBones) > 0 {
		nodes := make(map[string]int, len(v1.Humanoid.HumanBones))
		for bone, ref := range v1.Humanoid.HumanBones {
			nodes[bone] = ref.Node
		}
		return orderedBones(doc, nodes), nil
	}

	var v0 vrm0Humanoid
	ok, err = decodeExtension(doc, extVRM0, &v0)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", extVRM0, err)
	}
	if ok && len(v0.Humanoid.HumanBones) > 0 {
		nodes := make(map[string]int, len(v0.Humanoid.HumanBones))
		for _, hb := range v0.Humanoid.HumanBones {
			nodes[hb.Bone] = hb.Node
		}
		return orderedBones(doc, nodes), nil
	}

	return nil, nil
}

// orderedBones reports known humanoid bones in canonical order, followed by
// any other declared bones sorted by name.
func orderedBones(doc *gltf.Document, nodes map[string]int) []RestJoint {
	out := make([]RestJoint, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))

	for _, bone := range HumanBones {
		idx, ok := nodes[bone]
		if !ok {
			continue
		}
		seen[bone] = true
		out = append(out, RestJoint{ID: bone, Rotation: nodeRotation(doc, idx)})
	}
	extra := make([]string, 0, len(nodes)-len(seen))
	for bone := range nodes {
		if !seen[bone] {
			extra = append(extra, bone)
		}
	}
	sort.Strings(extra)
	for _, bone := range extra {
		out = append(out, RestJoint{ID: bone, Rotation: nodeRotation(doc, nodes[bone])})
	}
	return out
}

func skinJoints(doc *gltf.Document) []RestJoint {
	if len(doc.Skins) == 0 {
		return nil
	}
	skin := doc.Skins[0]
	out := make([]RestJoint, 0, len(skin.Joints))
	for _, j := range skin.Joints {
		idx := int(j)
		if idx < 0 || idx >= len(doc.Nodes) || doc.Nodes[idx] == nil {
			continue
		}
		name := doc.Nodes[idx].Name
		if name == "" {
			name = fmt.Sprintf("joint_%d", idx)
		}
		out = append(out, RestJoint{ID: name, Rotation: nodeRotation(doc, idx)})
	}
	return out
}

func nodeRotation(doc *gltf.Document, idx int) mgl64.Vec3 {
	if idx < 0 || idx >= len(doc.Nodes) || doc.Nodes[idx] == nil {
		return mgl64.Vec3{}
	}
	r := doc.Nodes[idx].Rotation
	return QuatToEuler(mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}})
}

// QuatToEuler converts a quaternion to XYZ-order Euler angles in radians.
// A zero quaternion is treated as identity.
func QuatToEuler(q mgl64.Quat) mgl64.Vec3 {
	if q.Len() == 0 {
		return mgl64.Vec3{}
	}
	m := q.Normalize().Mat4()

	m11, m12, m13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m22, m23 := m.At(1, 1), m.At(1, 2)
	m32, m33 := m.At(2, 1), m.At(2, 2)

	var x, z float64
	y := math.Asin(mgl64.Clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		x = math.Atan2(-m23, m33)
		z = math.Atan2(-m12, m11)
	} else {
		x = math.Atan2(m32, m22)
	}
	return mgl64.Vec3{x, y, z}
}

// decodeExtension unmarshals a document-level extension into v. Extensions
// without a registered decoder arrive as raw JSON.
func decodeExtension(doc *gltf.Document, name string, v any) (bool, error) {
	raw, ok := doc.Extensions[name]
	if !ok || raw == nil {
		return false, nil
	}

	var data []byte
	switch ext := raw.(type) {
	case json.RawMessage:
		data = ext
	case []byte:
		data = ext
	default:
		b, err := json.Marshal(ext)
		if err != nil {
			return true, err
		}
		data = b
	}
	return true, json.Unmarshal(data, v)
}
