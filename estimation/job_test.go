//go:build unit
// +build unit

package estimation

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/common"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"github.com/oqtopus-team/oqtopus-qir/measurement"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"github.com/oqtopus-team/oqtopus-qir/qpu"
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hadamardInput(t *testing.T, gates ...ir.Operation) string {
	ops := []ir.Operation{ir.DefinitionBit{Name: "ro", Length: 1, IsOutput: true}}
	ops = append(ops, gates...)
	ops = append(ops, ir.MeasureQubit{Qubit: 0, Readout: "ro", ReadoutIndex: 0})
	c, err := ir.NewCircuitFromOperations(ops...)
	require.Nil(t, err)
	in := &measurement.Input{
		Circuits: []*ir.Circuit{c},
		Products: []measurement.PauliProduct{{Circuit: 0, Readout: "ro", Slots: []int{0}}},
		Definitions: []measurement.Definition{{
			Name:  "z",
			Kind:  measurement.KindPauliProduct,
			Terms: []measurement.Term{{Product: 0, Coefficient: symbolic.Expression("scale")}},
		}},
	}
	b, err := in.Marshal()
	require.Nil(t, err)
	return string(b)
}

func newEstimationJob(t *testing.T, id, input string, shots int) *EstimationJob {
	jm, err := core.NewJobManager(&EstimationJob{})
	require.Nil(t, err)
	jd := core.NewJobData()
	jd.ID = id
	jd.JobType = ESTIMATION_JOB
	jd.Input = input
	jd.Shots = shots
	jd.Params["scale"] = 1
	jc, err := core.NewJobContext()
	require.Nil(t, err)
	job, err := jm.NewJobFromJobData(jd, jc)
	require.Nil(t, err)
	return job.(*EstimationJob)
}

func TestEstimationOnDummyQPU(t *testing.T) {
	d := &qpu.DummyQPU{}
	s := core.SCWithBackend(d)
	defer s.TearDown()
	require.Nil(t, d.Setup(&core.Conf{UseDummyDevice: true, Seed: 5}))

	j := newEstimationJob(t, "hadamard", hadamardInput(t, ir.Hadamard{Qubit: 0}), 1000)
	j.PreProcess()
	require.False(t, j.IsFinished(), j.JobData().Result.Message)
	n, ok := j.circuits[0].NumberOfMeasurements("ro")
	assert.True(t, ok)
	assert.Equal(t, 1000, n)

	j.Process()
	require.False(t, j.IsFinished(), j.JobData().Result.Message)
	j.PostProcess()
	assert.True(t, j.IsFinished())
	assert.Equal(t, core.SUCCEEDED, j.JobData().Status)
	assert.InDelta(t, 0.0, real(j.JobData().Result.Values["z"]), 0.15)
	assert.Nil(t, j.JobData().Result.Registers)

	flipped := newEstimationJob(t, "flipped", hadamardInput(t, ir.PauliX{Qubit: 0}), 10)
	flipped.JobData().Params["scale"] = 2
	flipped.PreProcess()
	flipped.Process()
	flipped.PostProcess()
	assert.Equal(t, core.SUCCEEDED, flipped.JobData().Status)
	assert.Equal(t, complex(-2, 0), flipped.JobData().Result.Values["z"])
}

func TestEstimationKeepsRegisters(t *testing.T) {
	core.ResetSetting()
	defer core.ResetSetting()
	require.Nil(t, core.ParseSetting("[com.estimation]\nkeep_registers = true\nparallelism = 1\n"))

	d := &qpu.DummyQPU{}
	s := core.SCWithBackend(d)
	defer s.TearDown()

	j := newEstimationJob(t, "keep", hadamardInput(t, ir.PauliX{Qubit: 0}), 3)
	assert.Equal(t, EstimationSetting{Parallelism: 1, KeepRegisters: true}, j.setting)
	j.PreProcess()
	j.Process()
	j.PostProcess()
	require.Len(t, j.JobData().Result.Registers, 1)
	assert.Equal(t, [][]bool{{true}, {true}, {true}}, j.JobData().Result.Registers[0].Bits["ro"])
}

func TestEstimationPreProcessFailures(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()

	j := newEstimationJob(t, "broken", "{not json", 10)
	j.PreProcess()
	assert.True(t, j.IsFinished())
	assert.Equal(t, core.FAILED, j.JobData().Status)

	unbound := newEstimationJob(t, "unbound", hadamardInput(t, ir.RotateX{Qubit: 0, Theta: symbolic.Expression("theta")}), 10)
	unbound.PreProcess()
	assert.True(t, unbound.IsFinished())
	assert.Equal(t, core.FAILED, unbound.JobData().Status)
	assert.Contains(t, unbound.JobData().Result.Message, "theta")
}

func TestEstimationRejectsDuplicateJobID(t *testing.T) {
	s := core.SCWithDBContainer()
	defer s.TearDown()

	input := hadamardInput(t)
	first := newEstimationJob(t, "same", input, 10)
	first.PreProcess()
	assert.False(t, first.IsFinished())

	second := newEstimationJob(t, "same", input, 10)
	second.PreProcess()
	assert.True(t, second.IsFinished())
	assert.Contains(t, second.JobData().Result.Message, core.ErrorJobIDConflict.Error())
}

func TestEstimationBackendFailure(t *testing.T) {
	s := core.SCWithFailingBackendContainer()
	defer s.TearDown()

	j := newEstimationJob(t, "offline", hadamardInput(t), 10)
	j.PreProcess()
	require.False(t, j.IsFinished())
	j.Process()
	assert.True(t, j.IsFinished())
	assert.Equal(t, core.FAILED, j.JobData().Status)
	assert.Equal(t, "failed to execute circuit 0: device is offline", j.JobData().Result.Message)
}

func TestEstimationDeviceCalibration(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()

	j := newEstimationJob(t, "mitigated", hadamardInput(t), 10)
	j.JobData().MitigationInfo = `{"readout": "pseudo_inverse"}`
	j.PreProcess()
	require.False(t, j.IsFinished(), j.JobData().Result.Message)

	cal := j.input.Calibrations["ro"]
	require.NotNil(t, cal)
	assert.Equal(t, 1, cal.NumberOfBits())
	assert.InDelta(t, 1-0.2789, cal.At(0, 0), 1e-12)
	assert.InDelta(t, 0.1903, cal.At(0, 1), 1e-12)
}

func TestBindCircuitsIsStrict(t *testing.T) {
	in, err := measurement.ParseInput([]byte(hadamardInput(t, ir.RotateZ{Qubit: 0, Theta: symbolic.Expression("phi")})))
	require.Nil(t, err)

	_, err = bindCircuits(in, nil, 10)
	assert.True(t, errors.Is(err, qerr.ErrSymbolicResolution))

	circuits, err := bindCircuits(in, map[string]float64{"phi": 0.5}, 10)
	require.Nil(t, err)
	assert.False(t, circuits[0].IsParametrized())
	// the input circuits are untouched
	assert.True(t, in.Circuits[0].IsParametrized())
}

func TestEstimationOfAssetInput(t *testing.T) {
	d := &qpu.DummyQPU{}
	s := core.SCWithBackend(d)
	defer s.TearDown()
	require.Nil(t, d.Setup(&core.Conf{UseDummyDevice: true, Seed: 11}))

	input, err := common.GetAsset("plus_one_input.json")
	require.Nil(t, err)
	j := newEstimationJob(t, "asset", input, 1000)
	j.JobData().Params["theta"] = 1
	j.PreProcess()
	require.False(t, j.IsFinished(), j.JobData().Result.Message)
	j.Process()
	require.False(t, j.IsFinished(), j.JobData().Result.Message)
	j.PostProcess()
	require.Equal(t, core.SUCCEEDED, j.JobData().Status, j.JobData().Result.Message)

	values := j.JobData().Result.Values
	assert.InDelta(t, 0.0, real(values["z0"]), 0.15)
	assert.InDelta(t, -2.0, real(values["energy"]), 0.1)
}
