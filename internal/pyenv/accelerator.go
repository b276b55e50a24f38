package pyenv

import (
	"os"
	"os/exec"
)

// Accelerator names match the keys of a manifest's torch_index table.
const (
	AcceleratorCUDA = "cuda"
	AcceleratorROCm = "rocm"
	AcceleratorCPU  = "cpu"
)

// DetectAccelerator guesses which torch build fits this machine. The guess is
// heuristic and can be overridden by configuration.
func DetectAccelerator() string {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return AcceleratorCUDA
	}
	if _, err := os.Stat("/opt/rocm"); err == nil {
		return AcceleratorROCm
	}
	return AcceleratorCPU
}
