package core

import (
	"context"
	"fmt"

	"github.com/oqtopus-team/oqtopus-qir/ir"
	"go.uber.org/dig"
)

const MockMaxQubits int = 10
const MockMaxShots int = 10000
const MockJobType string = "unimplemented"

type UnimplementedJob struct {
	jobData    *JobData
	jobContext *JobContext
}

func (j *UnimplementedJob) New(jd *JobData, jc *JobContext) Job {
	return &UnimplementedJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *UnimplementedJob) PreProcess() {}

func (j *UnimplementedJob) Process() {}

func (j *UnimplementedJob) PostProcess() {}

func (j *UnimplementedJob) IsFinished() bool {
	return j.JobData().Status == SUCCEEDED || j.JobData().Status == FAILED
}

func (j *UnimplementedJob) JobData() *JobData {
	return j.jobData
}

func (j *UnimplementedJob) JobType() string {
	return MockJobType
}

func (j *UnimplementedJob) JobContext() *JobContext {
	return j.jobContext
}

func (j *UnimplementedJob) Clone() Job {
	cloned := &UnimplementedJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
	return cloned
}

type UnimplementedBackend struct{}

func (u *UnimplementedBackend) Setup(*Conf) error {
	return nil
}

func (u *UnimplementedBackend) Run(context.Context, *ir.Circuit, int) (*Registers, error) {
	return NewRegisters(), nil
}

func (u *UnimplementedBackend) GetDeviceInfo() *DeviceInfo {
	return &DeviceInfo{
		MaxQubits:  MockMaxQubits,
		MaxShots:   MockMaxShots,
		DeviceName: "unimplementedBackend",
		DeviceInfoSpecJson: `
			{
			"device_id": "DummyDevice",
			"qubits":
			[{
			"id": 0, "meas_error": {"prob_meas0_prep1": 0.1903, "prob_meas1_prep0": 0.2789}
			},
			{
			"id": 1, "meas_error": {"prob_meas0_prep1": 0.0947, "prob_meas1_prep0": 0.1556}
			},
			{
			"id": 2, "meas_error": {"prob_meas0_prep1": 0.0947, "prob_meas1_prep0": 0.1556}
			},
			{
			"id": 3, "meas_error": {"prob_meas0_prep1": 0.0947, "prob_meas1_prep0": 0.1556}
			}]
			}`,
	}
}

type failingBackendForTest struct {
	UnimplementedBackend
}

func (failingBackendForTest) Run(context.Context, *ir.Circuit, int) (*Registers, error) {
	return nil, fmt.Errorf("device is offline")
}

type unimplementedDB struct{}

func (u *unimplementedDB) Setup(DBChan, *Conf) error { return nil }
func (u *unimplementedDB) Insert(Job) error          { return nil }
func (u *unimplementedDB) Get(jobID string) (Job, error) {
	return &UnimplementedJob{jobData: &JobData{ID: jobID}}, nil
}
func (u *unimplementedDB) Update(Job) error    { return nil }
func (u *unimplementedDB) Delete(string) error { return nil }

type unimplementedScheduler struct{}

func (u *unimplementedScheduler) Setup(*Conf) error        { return nil }
func (u *unimplementedScheduler) Start() error             { return nil }
func (u *unimplementedScheduler) HandleJob(_ Job)          {}
func (u *unimplementedScheduler) GetCurrentQueueSize() int { return 0 }

func newContainer(b Backend, db DBManager, sc Scheduler) *dig.Container {
	c := dig.New()
	c.Provide(func() Backend { return b })
	c.Provide(func() DBManager { return db })
	c.Provide(func() Scheduler { return sc })
	return c
}

func SCWithUnimplementedContainer() *SystemComponents {
	s := NewSystemComponents(newContainer(&UnimplementedBackend{}, &unimplementedDB{}, &unimplementedScheduler{}))
	s.Setup(&Conf{})
	return s
}

func SCWithFailingBackendContainer() *SystemComponents {
	s := NewSystemComponents(newContainer(&failingBackendForTest{}, &MemoryDB{}, &unimplementedScheduler{}))
	s.Setup(&Conf{})
	return s
}

func SCWithDBContainer() *SystemComponents {
	s := NewSystemComponents(newContainer(&UnimplementedBackend{}, &MemoryDB{}, &unimplementedScheduler{}))
	s.Setup(&Conf{})
	return s
}

// SCWithBackend wires b with a MemoryDB and a no-op scheduler.
func SCWithBackend(b Backend) *SystemComponents {
	s := NewSystemComponents(newContainer(b, &MemoryDB{}, &unimplementedScheduler{}))
	s.Setup(&Conf{})
	return s
}

// SCWithScheduler wires b and sc with a MemoryDB. The queue of sc holds
// at most queueMaxSize jobs.
func SCWithScheduler(b Backend, sc Scheduler, queueMaxSize int) *SystemComponents {
	s := NewSystemComponents(newContainer(b, &MemoryDB{}, sc))
	s.Setup(&Conf{QueueMaxSize: queueMaxSize})
	return s
}
