// Package sampling runs a single circuit and keeps its raw registers.
package sampling

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"github.com/oqtopus-team/oqtopus-qir/mitig"
	"github.com/oqtopus-team/oqtopus-qir/qpu"
	"github.com/oqtopus-team/oqtopus-qir/symbolic"
	"go.uber.org/zap"
)

const SAMPLING_JOB = "sampling"

type SamplingJob struct {
	jobData        *core.JobData
	jobContext     *core.JobContext
	mitigationInfo *mitig.MitigationInfo

	circuit  *ir.Circuit
	finished bool
}

func (j *SamplingJob) New(jd *core.JobData, jc *core.JobContext) core.Job {
	return &SamplingJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *SamplingJob) PreProcess() {
	if err := j.preProcessImpl(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s)/reason:%s", j.JobData().ID, err))
		core.SetFailureWithError(j, err)
		j.finished = true
		return
	}
	j.mitigationInfo = mitig.NewMitigationInfoFromJobData(j.JobData())
}

func (j *SamplingJob) preProcessImpl() error {
	jd := j.JobData()
	if err := core.InsertJob(j); err != nil {
		zap.L().Error(fmt.Sprintf("failed to insert a job(%s)/reason:%s", jd.ID, err))
		return err
	}
	c := &ir.Circuit{}
	if err := c.UnmarshalJSON([]byte(jd.Input)); err != nil {
		return err
	}
	bound, err := c.Bind(symbolic.NewCalculatorFromMap(jd.Params))
	if err != nil {
		return err
	}
	for _, name := range bound.OutputRegisters() {
		if reg, _ := bound.Register(name); reg.Type != ir.BitRegister {
			continue
		}
		if err := bound.Add(ir.PragmaSetNumberOfMeasurements{NumberMeasurements: jd.Shots, Readout: name}); err != nil {
			return err
		}
	}
	j.circuit = bound
	return nil
}

func (j *SamplingJob) Process() {
	jd := j.JobData()
	var backend core.Backend
	if err := core.GetSystemComponents().Invoke(
		func(b core.Backend) {
			backend = b
		}); err != nil {
		core.SetFailureWithError(j, err)
		j.finished = true
		return
	}
	start := time.Now()
	outputs, err := qpu.RunCircuits(context.Background(), backend, []*ir.Circuit{j.circuit}, 0, 1)
	jd.Result.ExecutionTime = time.Since(start)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to run a job(%s)/reason:%s", jd.ID, err))
		core.SetFailureWithError(j, err)
		j.finished = true
		return
	}
	regs := outputs[0]
	jd.Result.Registers = outputs
	for name := range regs.Bits {
		jd.Result.Counts[name] = regs.Bits.Counts(name)
	}
	zap.L().Debug(fmt.Sprintf("finished to process a job(%s)/status:%s", jd.ID, jd.Status))
}

func (j *SamplingJob) PostProcess() {
	j.finished = true
	jd := j.JobData()
	if j.mitigationInfo != nil && j.mitigationInfo.NeedToBeMitigated {
		zap.L().Debug("start to do pseudo inverse mitigation")
		if err := j.mitigate(); err != nil {
			zap.L().Error(fmt.Sprintf("failed to mitigate a job(%s)/reason:%s", jd.ID, err))
			core.SetFailureWithError(j, err)
			return
		}
		j.mitigationInfo.Mitigated = true
	} else {
		zap.L().Debug("skip pseudo inverse mitigation")
	}
	core.SetSucceededToJobData(jd)
}

// mitigate replaces the counts of every bit register with the counts of
// the readout-corrected distribution, rounded and clipped at zero.
func (j *SamplingJob) mitigate() error {
	jd := j.JobData()
	spec, err := core.GetSystemComponents().GetDeviceInfo().Spec()
	if err != nil {
		return err
	}
	regs := jd.Result.Registers[0]
	for name, rows := range regs.Bits {
		if len(rows) == 0 {
			continue
		}
		reg, _ := j.circuit.Register(name)
		cal, err := mitig.NewCalibrationFromDevice(spec, j.circuit.MeasuredQubits(name), reg.Length)
		if err != nil {
			return err
		}
		probs := make([]float64, cal.Size())
		for _, row := range rows {
			idx := 0
			for k, b := range row {
				if b {
					idx |= 1 << k
				}
			}
			probs[idx]++
		}
		for i := range probs {
			probs[i] /= float64(len(rows))
		}
		corrected, err := cal.Correct(probs)
		if err != nil {
			return err
		}
		counts := make(core.Counts)
		for idx, p := range corrected {
			n := math.Round(p * float64(len(rows)))
			if n <= 0 {
				continue
			}
			counts[indexBitString(idx, reg.Length)] = uint32(n)
		}
		jd.Result.Counts[name] = counts
	}
	return nil
}

func indexBitString(idx, length int) string {
	row := make([]bool, length)
	for k := range row {
		row[k] = idx&(1<<k) != 0
	}
	return core.BitString(row)
}

func (j *SamplingJob) IsFinished() bool {
	return j.finished
}

func (j *SamplingJob) JobData() *core.JobData {
	return j.jobData
}

func (j *SamplingJob) JobType() string {
	return SAMPLING_JOB
}

func (j *SamplingJob) JobContext() *core.JobContext {
	return j.jobContext
}

func (j *SamplingJob) Clone() core.Job {
	return &SamplingJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
		finished:   j.finished,
	}
}
