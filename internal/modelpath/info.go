package modelpath

import (
	"encoding/json"
	"fmt"
)

// Info describes the packaged model. It is shipped as a model_info.json
// sidecar next to the model by the training pipeline. The sidecar is
// advisory: the shapes declared by the model graph itself win on mismatch.
type Info struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`
	InputSize    int    `json:"input_size"`
	NumClasses   int    `json:"num_classes"`
}

// ParseInfo decodes a model_info.json sidecar.
func ParseInfo(data []byte) (Info, error) {
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("failed to parse model info: %w", err)
	}
	return info, nil
}
