package skeleton

// HumanBones is the VRM humanoid bone set in canonical order. Joints read
// from a VRM humanoid map are reported in this order.
var HumanBones = []string{
	"hips", "spine", "chest", "upperChest", "neck", "head",
	"leftEye", "rightEye", "jaw",
	"leftShoulder", "leftUpperArm", "leftLowerArm", "leftHand",
	"rightShoulder", "rightUpperArm", "rightLowerArm", "rightHand",
	"leftUpperLeg", "leftLowerLeg", "leftFoot", "leftToes",
	"rightUpperLeg", "rightLowerLeg", "rightFoot", "rightToes",
	"leftThumbProximal", "leftThumbIntermediate", "leftThumbDistal",
	"leftIndexProximal", "leftIndexIntermediate", "leftIndexDistal",
	"leftMiddleProximal", "leftMiddleIntermediate", "leftMiddleDistal",
	"leftRingProximal", "leftRingIntermediate", "leftRingDistal",
	"leftLittleProximal", "leftLittleIntermediate", "leftLittleDistal",
	"rightThumbProximal", "rightThumbIntermediate", "rightThumbDistal",
	"rightIndexProximal", "rightIndexIntermediate", "rightIndexDistal",
	"rightMiddleProximal", "rightMiddleIntermediate", "rightMiddleDistal",
	"rightRingProximal", "rightRingIntermediate", "rightRingDistal",
	"rightLittleProximal", "rightLittleIntermediate", "rightLittleDistal",
}

var labels = map[string]string{
	"hips":          "臀部",
	"spine":         "脊柱",
	"chest":         "胸部",
	"upperChest":    "上胸部",
	"neck":          "颈部",
	"head":          "头部",
	"leftEye":       "左眼",
	"rightEye":      "右眼",
	"jaw":           "下颌",
	"leftShoulder":  "左肩",
	"leftUpperArm":  "左上臂",
	"leftLowerArm":  "左前臂",
	"leftHand":      "左手",
	"rightShoulder": "右肩",
	"rightUpperArm": "右上臂",
	"rightLowerArm": "右前臂",
	"rightHand":     "右手",
	"leftUpperLeg":  "左大腿",
	"leftLowerLeg":  "左小腿",
	"leftFoot":      "左脚",
	"leftToes":      "左脚趾",
	"rightUpperLeg": "右大腿",
	"rightLowerLeg": "右小腿",
	"rightFoot":     "右脚",
	"rightToes":     "右脚趾",
}

// Label returns the localized display label for a joint, or the identifier
// itself when no label is known.
func Label(id string) string {
	if l, ok := labels[id]; ok {
		return l
	}
	return id
}
