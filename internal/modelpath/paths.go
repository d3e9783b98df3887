package modelpath

import (
	"errors"
	"os"
	"path/filepath"
)

// Canonical asset file names inside the packaged models directory.
const (
	ModelFile  = "model.onnx"
	LabelsFile = "labels.txt"
	InfoFile   = "model_info.json"
)

// Logical asset paths as the build pipeline writes them. The resolver derives
// physical candidates from these; see internal/assets.
const (
	ModelLogicalPath  = "assets/models/" + ModelFile
	LabelsLogicalPath = "assets/models/" + LabelsFile
	InfoLogicalPath   = "assets/models/" + InfoFile
)

// DefaultAssetsDir is the models directory relative to the project root.
const DefaultAssetsDir = "assets/models"

// EnvModelsDir overrides the models directory location.
const EnvModelsDir = "CATSCAN_MODELS_DIR"

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find project root (go.mod not found)")
}

// Dir returns the models directory path.
// Priority: 1. explicit override, 2. CATSCAN_MODELS_DIR, 3. project root +
// default, 4. relative default.
func Dir(override string) string {
	if override != "" {
		return override
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if root, err := findProjectRoot(); err == nil {
		return filepath.Join(root, DefaultAssetsDir)
	}
	return DefaultAssetsDir
}

// ModelPath returns the model file path under the given models directory.
func ModelPath(modelsDir string) string {
	return filepath.Join(Dir(modelsDir), ModelFile)
}

// LabelsPath returns the label file path under the given models directory.
func LabelsPath(modelsDir string) string {
	return filepath.Join(Dir(modelsDir), LabelsFile)
}

// InfoPath returns the metadata sidecar path under the given models directory.
func InfoPath(modelsDir string) string {
	return filepath.Join(Dir(modelsDir), InfoFile)
}
