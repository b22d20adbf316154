package qpu

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/oqtopus-team/oqtopus-qir/common"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"go.uber.org/zap"
)

// DeviceSetting describes the device the DummyQPU pretends to be.
type DeviceSetting struct {
	DeviceName          string          `toml:"device_name"`
	ProviderName        string          `toml:"provider_name"`
	MaxQubits           int             `toml:"max_qubits"`
	MaxShots            int             `toml:"max_shots"`
	SupportedOperations []string        `toml:"supported_operations"`
	Qubits              []*QubitSetting `toml:"qubits"`
}

type QubitSetting struct {
	ID             int     `toml:"id"`
	ProbMeas1Prep0 float64 `toml:"prob_meas1_prep0"`
	ProbMeas0Prep1 float64 `toml:"prob_meas0_prep1"`
}

func LoadDeviceSetting(path string) (*DeviceSetting, error) {
	blob, assetErr := common.ReadFile(path)
	ds := NewDeviceSetting()
	if assetErr != nil {
		zap.L().Info(fmt.Sprintf("failed to read file(%s)/reason:%s", path, assetErr))
		return ds, nil
	}
	if _, err := toml.Decode(blob, ds); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode device setting(%s)/reason:%s", path, err))
		return &DeviceSetting{}, err
	}
	return ds, nil
}

func NewDeviceSetting() *DeviceSetting {
	return &DeviceSetting{
		DeviceName:   DummyDeviceName,
		ProviderName: DummyProviderName,
		MaxQubits:    core.MockMaxQubits,
		MaxShots:     core.MockMaxShots,
		SupportedOperations: []string{
			"PauliX", "PauliZ", "Hadamard", "CNOT",
			"MeasureQubit", "PragmaRepeatedMeasurement",
		},
	}
}

// Supports reports whether the named operation may be sent to the device.
// Register definitions and shot-count pragmas are always accepted.
func (ds *DeviceSetting) Supports(name string) bool {
	switch name {
	case "DefinitionBit", "DefinitionFloat", "DefinitionComplex", "InputSymbolic",
		"PragmaSetNumberOfMeasurements", "PragmaGlobalPhase", "PragmaStopParallelBlock":
		return true
	}
	return common.ContainsOperationName(name, ds.SupportedOperations)
}

// MeasErrors returns the readout errors of the configured qubits.
func (ds *DeviceSetting) MeasErrors() map[int]core.MeasError {
	out := make(map[int]core.MeasError, len(ds.Qubits))
	for _, q := range ds.Qubits {
		out[q.ID] = core.MeasError{
			ProbMeas1Prep0: q.ProbMeas1Prep0,
			ProbMeas0Prep1: q.ProbMeas0Prep1,
		}
	}
	return out
}

// Spec renders the qubit settings as the device info reported to clients.
func (ds *DeviceSetting) Spec() *core.DeviceInfoSpec {
	spec := &core.DeviceInfoSpec{DeviceID: ds.DeviceName}
	for _, q := range ds.Qubits {
		spec.Qubits = append(spec.Qubits, core.Qubit{
			ID: q.ID,
			MeasError: core.MeasError{
				ProbMeas1Prep0: q.ProbMeas1Prep0,
				ProbMeas0Prep1: q.ProbMeas0Prep1,
			},
		})
	}
	sort.Slice(spec.Qubits, func(i, j int) bool { return spec.Qubits[i].ID < spec.Qubits[j].ID })
	return spec
}
