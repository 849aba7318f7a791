package command

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ChinaCraig/Zy/internal/pose"
)

// Fixed magnitudes, in degrees.
const (
	HeadTurnDeg     = 30
	UpperArmLiftDeg = 60
	ForearmBendDeg  = 45
	SpineLeanDeg    = 30
)

// Handler performs a rule's pose change and reports the outcome.
type Handler func(in *Interpreter) Outcome

// Rule pairs a containment predicate with a handler. Patterns holds
// alternative clauses; a clause matches when every one of its substrings
// occurs in the normalized input.
type Rule struct {
	Name     string
	Patterns [][]string
	Handle   Handler
}

// Matches reports whether normalized text satisfies any clause.
func (r Rule) Matches(text string) bool {
	for _, clause := range r.Patterns {
		if len(clause) == 0 {
			continue
		}
		all := true
		for _, s := range clause {
			if !strings.Contains(text, s) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

var (
	headRegion  = []string{"head", "neck"}
	armRegion   = []string{"leftUpperArm", "leftLowerArm", "rightUpperArm", "rightLowerArm"}
	spineRegion = []string{"spine", "chest", "upperChest"}
)

// DefaultRules returns the built-in rule table. Order matters: region
// resets come before the full reset so "重置手臂" only resets the arms,
// and nothing but the full reset matches a bare "重置".
func DefaultRules() []Rule {
	return []Rule{
		resetRegion("reset_head", [][]string{{"重置", "头"}, {"reset", "head"}}, "头部", headRegion),
		resetRegion("reset_arms", [][]string{{"重置", "手臂"}, {"重置", "胳膊"}, {"reset", "arm"}}, "手臂", armRegion),
		resetRegion("reset_spine", [][]string{{"重置", "身体"}, {"重置", "脊柱"}, {"reset", "spine"}}, "身体", spineRegion),
		{
			Name:     "reset_all",
			Patterns: [][]string{{"重置"}, {"复位"}, {"reset"}},
			Handle:   resetAll,
		},
		rotate("head_down", [][]string{{"头", "向下"}, {"低头"}, {"head", "down"}},
			"head", mgl64.Vec3{HeadTurnDeg, 0, 0}, "好的，我低下头了"),
		rotate("head_left", [][]string{{"头", "向左"}, {"向左看"}, {"head", "left"}},
			"head", mgl64.Vec3{0, HeadTurnDeg, 0}, "好的，我把头转向左边了"),
		rotate("head_right", [][]string{{"头", "向右"}, {"向右看"}, {"head", "right"}},
			"head", mgl64.Vec3{0, -HeadTurnDeg, 0}, "好的，我把头转向右边了"),
		rotate("raise_left_arm", [][]string{{"举", "左"}, {"抬", "左臂"}, {"raise", "left"}},
			"leftUpperArm", mgl64.Vec3{0, 0, UpperArmLiftDeg}, "好的，我举起了左臂"),
		rotate("raise_right_arm", [][]string{{"举", "右"}, {"抬", "右臂"}, {"raise", "right"}},
			"rightUpperArm", mgl64.Vec3{0, 0, -UpperArmLiftDeg}, "好的，我举起了右臂"),
		rotate("bend_left_forearm", [][]string{{"弯", "左"}, {"bend", "left"}},
			"leftLowerArm", mgl64.Vec3{0, ForearmBendDeg, 0}, "好的，我弯曲了左前臂"),
		rotate("bend_right_forearm", [][]string{{"弯", "右"}, {"bend", "right"}},
			"rightLowerArm", mgl64.Vec3{0, -ForearmBendDeg, 0}, "好的，我弯曲了右前臂"),
		rotate("lean_forward", [][]string{{"前倾"}, {"弯腰"}, {"lean", "forward"}},
			"spine", mgl64.Vec3{SpineLeanDeg, 0, 0}, "好的，我向前倾了身体"),
		{
			Name:     "list_joints",
			Patterns: [][]string{{"骨骼"}, {"关节"}, {"list", "joints"}, {"list", "bones"}},
			Handle:   listJoints,
		},
	}
}

func rotate(name string, patterns [][]string, joint string, deg mgl64.Vec3, reply string) Rule {
	return Rule{
		Name:     name,
		Patterns: patterns,
		Handle: func(in *Interpreter) Outcome {
			err := in.store.RotateFrom(pose.SourceCommand, joint, pose.Radians(deg))
			return Outcome{Reply: reply, Err: err}
		},
	}
}

func resetRegion(name string, patterns [][]string, label string, joints []string) Rule {
	return Rule{
		Name:     name,
		Patterns: patterns,
		Handle: func(in *Interpreter) Outcome {
			var firstErr error
			for _, j := range joints {
				if err := in.store.ResetFrom(pose.SourceCommand, j); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return Outcome{Reply: fmt.Sprintf("好的，%s已经恢复原位", label), Err: firstErr}
		},
	}
}

func resetAll(in *Interpreter) Outcome {
	n := in.store.ResetAllFrom(pose.SourceCommand)
	return Outcome{Reply: fmt.Sprintf("好的，已重置全部 %d 个骨骼", n)}
}

func listJoints(in *Interpreter) Outcome {
	ids := in.registry.ListJoints()
	if len(ids) == 0 {
		return Outcome{Reply: "当前模型没有可控制的骨骼"}
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		j, err := in.registry.Resolve(id)
		if err != nil {
			continue
		}
		if j.Label == id {
			names = append(names, id)
		} else {
			names = append(names, fmt.Sprintf("%s(%s)", j.Label, id))
		}
	}
	return Outcome{Reply: fmt.Sprintf("可控制的骨骼共 %d 个：%s", len(names), strings.Join(names, "、"))}
}
