package control

// Gains holds feedback and feed-forward coefficients. Feed-forward terms left
// unset are zero.
type Gains struct {
	P        float64 `yaml:"kp" json:"kp"`
	I        float64 `yaml:"ki" json:"ki"`
	D        float64 `yaml:"kd" json:"kd"`
	VelFF    float64 `yaml:"kv" json:"kv"`
	AccFF    float64 `yaml:"ka" json:"ka"`
	StaticFF float64 `yaml:"ks" json:"ks"`
}

// Params returns the gains keyed by their short names for display.
func (g Gains) Params() map[string]float64 {
	return map[string]float64{
		"kp": g.P,
		"ki": g.I,
		"kd": g.D,
		"kv": g.VelFF,
		"ka": g.AccFF,
		"ks": g.StaticFF,
	}
}
