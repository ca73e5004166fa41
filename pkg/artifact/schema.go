// pkg/artifact/schema.go
package artifact

// Link functions supported by a LinearModel.
const (
	LinkLogit    = "logit"
	LinkIdentity = "identity"
)

// LinearModel is the on-disk form of a linear scoring model and its
// attribution baseline.
type LinearModel struct {
	Version      string    `json:"version"`
	TrainedAt    string    `json:"trainedAt"`
	FeatureNames []string  `json:"featureNames"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	// Link is "logit" for a probability model or "identity" for a model that
	// only emits a raw prediction.
	Link string `json:"link"`
	// Means are the training-set feature means used as the attribution baseline.
	Means []float64 `json:"means"`
}
