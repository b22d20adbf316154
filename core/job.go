package core

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-openapi/strfmt"
	"go.uber.org/zap"
)

var ErrorJobIDConflict = errors.New("jobID is already used")

// Job is a unit of work handled by the scheduler. PreProcess decodes and
// binds the input, Process runs the circuits on the backend and PostProcess
// turns the registers into the result.
type Job interface {
	New(*JobData, *JobContext) Job
	PreProcess()
	Process()
	PostProcess()
	IsFinished() bool

	JobData() *JobData // mutable
	JobType() string
	JobContext() *JobContext
	Clone() Job
}

// JobContext carries the channels a job reports its snapshots on.
type JobContext struct {
	*Channels
}

func NewJobContext() (*JobContext, error) {
	s := GetSystemComponents()
	if s == nil {
		return nil, errors.New("system components are not set up")
	}
	if s.Channels == nil {
		return nil, errors.New("channels are not set up")
	}
	return &JobContext{Channels: s.Channels}, nil
}

// JobParam is what a client submits: a circuit or measurement input, the
// shots per measured register and the values of the free parameters.
type JobParam struct {
	JobID          string
	Input          string
	Shots          int
	Params         map[string]float64
	JobType        string
	MitigationInfo string
}

// InsertJob stores j in the DBManager of the system components. A job ID
// that is already stored fails with ErrorJobIDConflict.
func InsertJob(j Job) error {
	s := GetSystemComponents()
	if s == nil {
		return errors.New("system components are not set up")
	}
	return s.Invoke(func(d DBManager) error {
		return d.Insert(j)
	})
}

// JobManager creates jobs of the registered types. The registered values are
// prototypes; every job gets a fresh instance through New.
type JobManager struct {
	prototypes []Job
}

func NewJobManager(jobs ...Job) (*JobManager, error) {
	jm := &JobManager{}
	if err := jm.RegisterJob(jobs...); err != nil {
		return nil, err
	}
	return jm, nil
}

func (j *JobManager) RegisterJob(jobs ...Job) error {
	for _, job := range jobs {
		for _, p := range j.prototypes {
			if reflect.TypeOf(p) == reflect.TypeOf(job) {
				return errors.Errorf("job:%s is already registered", job.JobType())
			}
		}
		zap.L().Debug(fmt.Sprintf("registering job type %s", job.JobType()))
		j.prototypes = append(j.prototypes, job)
	}
	return nil
}

func (j *JobManager) AcceptableJobTypes() []string {
	types := []string{}
	for _, p := range j.prototypes {
		types = append(types, p.JobType())
	}
	return types
}

// NewJobWithValidation checks the shots against the backend limit before
// creating the job.
func (j *JobManager) NewJobWithValidation(param *JobParam, jc *JobContext) (Job, error) {
	if err := validateJobParam(param); err != nil {
		zap.L().Info(fmt.Sprintf("failed to validate job param(%s)/reason:%s", param.JobID, err))
		return nil, err
	}
	return j.NewJob(param, jc)
}

func (j *JobManager) NewJob(param *JobParam, jc *JobContext) (Job, error) {
	jd := NewJobData()
	jd.ID = param.JobID
	jd.Input = param.Input
	jd.Shots = param.Shots
	jd.JobType = param.JobType
	jd.MitigationInfo = param.MitigationInfo
	for k, v := range param.Params {
		jd.Params[k] = v
	}
	return j.NewJobFromJobData(jd, jc)
}

func (j *JobManager) NewJobFromJobData(jd *JobData, jc *JobContext) (Job, error) {
	zap.L().Debug(fmt.Sprintf("creating job(%s) of type %s", jd.ID, jd.JobType))
	if jd.Result == nil {
		jd.Result = NewResult()
	}
	for _, p := range j.prototypes {
		if p.JobType() != jd.JobType {
			continue
		}
		instance := reflect.New(reflect.TypeOf(p)).Elem().Interface()
		return instance.(Job).New(jd, jc), nil
	}
	return nil, errors.Errorf("job type %s is not registered", jd.JobType)
}

func validateJobParam(p *JobParam) error {
	switch {
	case p.JobID == "":
		return errors.New("jobID is empty")
	case p.JobType == "":
		return errors.Errorf("job type is empty/jobID:%s", p.JobID)
	case p.Input == "":
		return errors.Errorf("input is empty/jobID:%s", p.JobID)
	case p.Shots <= 0:
		return errors.Errorf("shots(%d) must be greater than 0", p.Shots)
	}
	if maxShots := GetSystemComponents().GetDeviceInfo().MaxShots; p.Shots > maxShots {
		return errors.Errorf("shots(%d) is over the limit(%d)", p.Shots, maxShots)
	}
	return nil
}

// SetFailureWithError marks j as failed with err as the result message.
func SetFailureWithError(j Job, err error) (msg string) {
	jd := j.JobData()
	msg = err.Error()
	jd.Result.Message = msg
	jd.Status = FAILED
	jd.Ended = strfmt.DateTime(time.Now())
	return msg
}

func SetSucceededToJobData(jd *JobData) {
	jd.Status = SUCCEEDED
	jd.Ended = strfmt.DateTime(time.Now())
}
