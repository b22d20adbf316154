// Package estimation runs a measurement input on the backend and evaluates
// its expectation values.
package estimation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"github.com/oqtopus-team/oqtopus-qir/measurement"
	"github.com/oqtopus-team/oqtopus-qir/mitig"
	"github.com/oqtopus-team/oqtopus-qir/qpu"
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"go.uber.org/zap"
)

const (
	ESTIMATION_JOB         = "estimation"
	ESTIMATION_SETTING_KEY = "estimation"
)

type EstimationSetting struct {
	// Parallelism bounds the circuits run at the same time, 0 is unbounded.
	Parallelism int `toml:"parallelism"`
	// NumberQubits is passed to the backend, 0 lets every circuit use its own.
	NumberQubits  int  `toml:"number_qubits"`
	KeepRegisters bool `toml:"keep_registers"`
}

func NewEstimationSetting() EstimationSetting {
	return EstimationSetting{
		Parallelism: 4,
	}
}

type EstimationJob struct {
	setting    EstimationSetting
	jobData    *core.JobData
	jobContext *core.JobContext

	input    *measurement.Input
	circuits []*ir.Circuit
	outputs  []*core.Registers
	finished bool
}

func (j *EstimationJob) New(jd *core.JobData, jc *core.JobContext) core.Job {
	setting := NewEstimationSetting()
	if err := core.DecodeComponentSetting(ESTIMATION_SETTING_KEY, &setting); err != nil {
		zap.L().Debug(fmt.Sprintf("using the default estimation setting/reason:%s", err))
	}
	return &EstimationJob{
		setting:    setting,
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *EstimationJob) PreProcess() {
	if err := j.preProcessImpl(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s)/reason:%s", j.JobData().ID, err))
		core.SetFailureWithError(j, err)
		j.finished = true
	}
}

func (j *EstimationJob) preProcessImpl() error {
	jd := j.JobData()
	if err := core.InsertJob(j); err != nil {
		zap.L().Error(fmt.Sprintf("failed to insert a job(%s)/reason:%s", jd.ID, err))
		return err
	}

	in, err := measurement.ParseInput([]byte(jd.Input))
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	circuits, err := bindCircuits(in, jd.Params, jd.Shots)
	if err != nil {
		return err
	}
	if mitig.NewMitigationInfoFromJobData(jd).NeedToBeMitigated && len(in.Calibrations) == 0 {
		cals, err := deviceCalibrations(in, circuits)
		if err != nil {
			return err
		}
		in.Calibrations = cals
	}
	j.input = in
	j.circuits = circuits
	zap.L().Debug(fmt.Sprintf("job(%s) runs %d circuits", jd.ID, len(circuits)))
	return nil
}

// bindCircuits resolves every parameter of the executable circuits and
// requests shots measurements of every register read by a pauli product.
func bindCircuits(in *measurement.Input, params map[string]float64, shots int) ([]*ir.Circuit, error) {
	executable, err := in.ExecutableCircuits()
	if err != nil {
		return nil, err
	}
	calc := symbolic.NewCalculatorFromMap(params)
	readouts := in.Readouts()
	out := make([]*ir.Circuit, len(executable))
	for i, c := range executable {
		bound, err := c.Bind(calc)
		if err != nil {
			return nil, errors.Wrapf(err, "circuit %d", i)
		}
		for _, r := range readouts[i] {
			op := ir.PragmaSetNumberOfMeasurements{NumberMeasurements: shots, Readout: r}
			if err := bound.Add(op); err != nil {
				return nil, errors.Wrapf(err, "circuit %d", i)
			}
		}
		out[i] = bound
	}
	return out, nil
}

// deviceCalibrations builds a calibration for every register read by a
// pauli product from the measurement errors of the device. The qubits of
// the first circuit measuring a register decide its calibration.
func deviceCalibrations(in *measurement.Input, circuits []*ir.Circuit) (map[string]*mitig.Calibration, error) {
	spec, err := core.GetSystemComponents().GetDeviceInfo().Spec()
	if err != nil {
		return nil, err
	}
	readouts := in.Readouts()
	indexes := make([]int, 0, len(readouts))
	for i := range readouts {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	cals := make(map[string]*mitig.Calibration)
	for _, i := range indexes {
		for _, name := range readouts[i] {
			if _, ok := cals[name]; ok {
				continue
			}
			reg, _ := circuits[i].Register(name)
			cal, err := mitig.NewCalibrationFromDevice(spec, circuits[i].MeasuredQubits(name), reg.Length)
			if err != nil {
				return nil, errors.Wrapf(err, "calibration of %s", name)
			}
			cals[name] = cal
		}
	}
	return cals, nil
}

func (j *EstimationJob) Process() {
	jd := j.JobData()
	var backend core.Backend
	if err := core.GetSystemComponents().Invoke(
		func(b core.Backend) {
			backend = b
		}); err != nil {
		zap.L().Error(fmt.Sprintf("failed to get the backend for a job(%s)/reason:%s", jd.ID, err))
		core.SetFailureWithError(j, err)
		j.finished = true
		return
	}
	start := time.Now()
	outputs, err := qpu.RunCircuits(context.Background(), backend, j.circuits, j.setting.NumberQubits, j.setting.Parallelism)
	jd.Result.ExecutionTime = time.Since(start)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to run a job(%s)/reason:%s", jd.ID, err))
		core.SetFailureWithError(j, err)
		j.finished = true
		return
	}
	j.outputs = outputs
	zap.L().Debug(fmt.Sprintf("finished to process a job(%s) in %s", jd.ID, jd.Result.ExecutionTime))
}

func (j *EstimationJob) PostProcess() {
	j.finished = true
	jd := j.JobData()
	values, err := measurement.NewEvaluator().Evaluate(context.Background(), j.input, j.outputs, jd.Params)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to post-process a job(%s)/reason:%s", jd.ID, err))
		core.SetFailureWithError(j, err)
		return
	}
	jd.Result.Values = core.Values(values)
	if j.setting.KeepRegisters {
		jd.Result.Registers = j.outputs
	}
	zap.L().Debug(fmt.Sprintf("values of job(%s):%v", jd.ID, values))
	core.SetSucceededToJobData(jd)
}

func (j *EstimationJob) IsFinished() bool {
	return j.finished
}

func (j *EstimationJob) JobData() *core.JobData {
	return j.jobData
}

func (j *EstimationJob) JobType() string {
	return ESTIMATION_JOB
}

func (j *EstimationJob) JobContext() *core.JobContext {
	return j.jobContext
}

func (j *EstimationJob) Clone() core.Job {
	return &EstimationJob{
		setting:    j.setting,
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
		finished:   j.finished,
	}
}
