package detector

// FeatureLen is the length of a feature vector: two coordinates per joint.
const FeatureLen = 2 * NumJoints

// FeatureVector is the classifier input: x and y of every joint in canonical
// order. Entries 2i and 2i+1 belong to Joint(i).
type FeatureVector [FeatureLen]float64

// Features builds the feature vector for an observation. Missing joints
// contribute 0 for both coordinates.
func Features(obs Observation) FeatureVector {
	var v FeatureVector
	for j := Joint(0); j < NumJoints; j++ {
		p, ok := obs[j]
		if !ok {
			continue
		}
		v[2*j] = p.X
		v[2*j+1] = p.Y
	}
	return v
}

// Columns returns the feature column names in vector order, e.g. "wristx",
// "wristy", "thumbCMCx".
func Columns() []string {
	cols := make([]string, 0, FeatureLen)
	for _, j := range Joints() {
		name := j.String()
		cols = append(cols, name+"x", name+"y")
	}
	return cols
}
