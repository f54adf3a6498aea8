// Package detector provides hand-pose extraction interfaces and the landmark
// types shared by the rest of the gesture pipeline.
package detector

// Joint identifies one of the 21 hand landmarks.
//
// The numeric value is the joint's position in the canonical order. Feature
// vector columns are derived from it, so a trained model depends on this
// order and it must not change.
type Joint int

// Hand joints in canonical order.
const (
	Wrist Joint = iota
	ThumbCMC
	ThumbMP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	LittleMCP
	LittlePIP
	LittleDIP
	LittleTip
	NumJoints = 21
)

var jointNames = [NumJoints]string{
	"wrist",
	"thumbCMC", "thumbMP", "thumbIP", "thumbTip",
	"indexMCP", "indexPIP", "indexDIP", "indexTip",
	"middleMCP", "middlePIP", "middleDIP", "middleTip",
	"ringMCP", "ringPIP", "ringDIP", "ringTip",
	"littleMCP", "littlePIP", "littleDIP", "littleTip",
}

// String returns the joint name used in dataset headers and wire formats.
func (j Joint) String() string {
	if !j.Valid() {
		return "unknown"
	}
	return jointNames[j]
}

// Valid reports whether j is one of the 21 known joints.
func (j Joint) Valid() bool {
	return j >= 0 && j < NumJoints
}

// Joints returns all joints in canonical order.
func Joints() []Joint {
	joints := make([]Joint, NumJoints)
	for i := range joints {
		joints[i] = Joint(i)
	}
	return joints
}

// ParseJoint looks up a joint by name.
func ParseJoint(name string) (Joint, bool) {
	for i, n := range jointNames {
		if n == name {
			return Joint(i), true
		}
	}
	return 0, false
}

// Point is a 2D coordinate in normalized [0,1] image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Observation is the set of joints recognized in one processed frame.
// Joints that were occluded or below the confidence threshold are absent.
// An Observation is not modified after it is produced.
type Observation map[Joint]Point

// Point returns the coordinate of j, or the zero Point when j is absent.
func (o Observation) Point(j Joint) Point {
	return o[j]
}

// Has reports whether j was recognized.
func (o Observation) Has(j Joint) bool {
	_, ok := o[j]
	return ok
}
