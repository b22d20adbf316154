package core

import (
	"context"
	"fmt"

	"github.com/oqtopus-team/oqtopus-qir/ir"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

var systemComponents *SystemComponents

type DBChan chan Job

// Channels carries the snapshots of a job to the DBManager.
type Channels struct {
	DBChan
}

func NewChannels() *Channels {
	return &Channels{
		DBChan: make(DBChan),
	}
}

func (c *Channels) Close() {
	close(c.DBChan)
}

func (c *Channels) Check() error {
	if c.DBChan == nil {
		return fmt.Errorf("DBChan is nil")
	}
	return nil
}

// DeviceInfo describes the backend to clients. The readout errors of its
// qubits are carried as JSON in DeviceInfoSpecJson and feed the readout
// calibration.
type DeviceInfo struct {
	DeviceName         string       `json:"device_name"`
	ProviderName       string       `json:"provider_name"`
	Status             DeviceStatus `json:"status"`
	MaxQubits          int          `json:"max_qubits"`
	MaxShots           int          `json:"max_shots"`
	DeviceInfoSpecJson string       `json:"device_info"`
}

type DeviceInfoSpec struct {
	DeviceID string  `json:"device_id"`
	Qubits   []Qubit `json:"qubits"`
}

type Qubit struct {
	ID        int       `json:"id"`
	MeasError MeasError `json:"meas_error"`
}

// MeasError holds the probabilities of reading the flipped value of the
// prepared basis state.
type MeasError struct {
	ProbMeas1Prep0 float64 `json:"prob_meas1_prep0"`
	ProbMeas0Prep1 float64 `json:"prob_meas0_prep1"`
}

type DeviceStatus int

const (
	Available DeviceStatus = iota
	Unavailable
)

func (ds DeviceStatus) String() string {
	switch ds {
	case Available:
		return "Available"
	case Unavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// Spec decodes DeviceInfoSpecJson.
func (d *DeviceInfo) Spec() (*DeviceInfoSpec, error) {
	spec := &DeviceInfoSpec{}
	if d.DeviceInfoSpecJson == "" {
		return spec, nil
	}
	if err := jsonIter.Unmarshal([]byte(d.DeviceInfoSpecJson), spec); err != nil {
		zap.L().Error(fmt.Sprintf("failed to unmarshal device info of %s/reason:%s", d.DeviceName, err))
		return nil, err
	}
	return spec, nil
}

// MeasErrors indexes the measurement errors by qubit ID.
func (s *DeviceInfoSpec) MeasErrors() map[int]MeasError {
	out := make(map[int]MeasError, len(s.Qubits))
	for _, q := range s.Qubits {
		out[q.ID] = q.MeasError
	}
	return out
}

// Backend executes a circuit for the number of shots the circuit itself
// requests and returns its raw registers. Errors are treated opaquely.
type Backend interface {
	Setup(*Conf) error
	Run(ctx context.Context, circuit *ir.Circuit, numberQubits int) (*Registers, error)
	GetDeviceInfo() *DeviceInfo
}

type Scheduler interface {
	Setup(*Conf) error
	Start() error
	HandleJob(Job)
	GetCurrentQueueSize() int
}

type DBManager interface {
	Setup(DBChan, *Conf) error
	Insert(Job) error
	Get(string) (Job, error)
	Update(Job) error
	Delete(string) error
}

type SystemComponents struct {
	*dig.Container
	*Channels
}

func NewSystemComponents(con *dig.Container) *SystemComponents {
	return &SystemComponents{
		con,
		NewChannels(),
	}
}

func GetSystemComponents() *SystemComponents {
	return systemComponents
}

func (s *SystemComponents) Setup(conf *Conf) error {
	dbChan := s.DBChan

	zap.L().Debug("Setting up scheduler")
	err := s.Invoke(
		func(s Scheduler) error {
			return s.Setup(conf)
		})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up DB")
	err = s.Invoke(
		func(d DBManager) error {
			return d.Setup(dbChan, conf)
		})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up backend")
	err = s.Invoke(func(b Backend) error {
		return b.Setup(conf)
	})
	if err != nil {
		return err
	}
	systemComponents = s
	return nil
}

func (s *SystemComponents) TearDown() {
	s.Channels.Close()
}

func (s *SystemComponents) StartContainer() error {
	return s.Container.Invoke(
		func(s Scheduler) error {
			return s.Start()
		})
}

func (s *SystemComponents) GetDeviceInfo() *DeviceInfo {
	var deviceInfo *DeviceInfo
	s.Invoke(
		func(b Backend) error {
			deviceInfo = b.GetDeviceInfo()
			return nil
		})
	return deviceInfo
}

func (s *SystemComponents) GetCurrentQueueSize() int {
	var size int
	s.Invoke(
		func(sc Scheduler) {
			size = sc.GetCurrentQueueSize()
		})
	return size
}
