// Package qpu executes circuits on a backend. DummyQPU is a test device
// that answers with plausible registers without simulating amplitudes.
package qpu

//go:generate mockgen -destination=mock_backend.go -package=qpu github.com/oqtopus-team/oqtopus-qir/core Backend

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"go.uber.org/zap"
)

const DummyDeviceName = "DummyQPU"
const DummyProviderName = "DummyProvider"

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// DummySetting is read from the [com.dummy] table.
type DummySetting struct {
	ReadoutErrors bool `toml:"readout_errors"`
}

func NewDummySetting() *DummySetting {
	return &DummySetting{}
}

type DummyQPU struct {
	deviceSetting *DeviceSetting
	setting       *DummySetting
	measErrors    map[int]core.MeasError

	mu  sync.Mutex
	rng *rand.Rand

	DummyQPUTime int
}

func (d *DummyQPU) Setup(conf *core.Conf) error {
	zap.L().Debug("setting up Dummy-QPU")
	ds := NewDeviceSetting()
	if !conf.UseDummyDevice {
		loaded, err := LoadDeviceSetting(conf.DeviceSettingPath)
		if err != nil {
			return err
		}
		ds = loaded
	}
	s := NewDummySetting()
	if err := core.DecodeComponentSetting("dummy", s); err != nil {
		zap.L().Debug(fmt.Sprintf("using the default dummy setting/reason:%s", err))
	}
	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	d.deviceSetting = ds
	d.setting = s
	d.measErrors = ds.MeasErrors()
	d.rng = rand.New(rand.NewSource(seed))
	d.DummyQPUTime = conf.DummyQPUTime
	return nil
}

// Run executes c once per shot. The shot count of a bit register is the
// one requested by the circuit, 1 when it requests none.
func (d *DummyQPU) Run(ctx context.Context, c *ir.Circuit, numberQubits int) (*core.Registers, error) {
	if d.deviceSetting == nil {
		return nil, errors.New("dummy QPU is not set up")
	}
	if err := d.check(c, numberQubits); err != nil {
		return nil, err
	}
	if d.DummyQPUTime > 0 {
		zap.L().Debug(fmt.Sprintf("[Dummy] waiting %d milliseconds for QPU execution", d.DummyQPUTime))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(d.DummyQPUTime) * time.Millisecond):
		}
	}

	shots := make(map[string]int)
	maxShots := 1
	for _, name := range c.OutputRegisters() {
		reg, _ := c.Register(name)
		if reg.Type != ir.BitRegister {
			continue
		}
		n, ok := c.NumberOfMeasurements(name)
		if !ok {
			n = 1
		}
		if n > d.deviceSetting.MaxShots {
			return nil, errors.Errorf("%d shots of %s are over the limit(%d)", n, name, d.deviceSetting.MaxShots)
		}
		shots[name] = n
		if n > maxShots {
			maxShots = n
		}
	}

	rng := d.newRand()
	regs := core.NewRegisters()
	for name := range shots {
		regs.Bits[name] = [][]bool{}
	}
	for shot := 0; shot < maxShots; shot++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := d.runShot(c, numberQubits, rng)
		if err != nil {
			return nil, err
		}
		for name, n := range shots {
			if shot < n {
				regs.Bits[name] = append(regs.Bits[name], out[name])
			}
		}
	}
	zap.L().Debug(fmt.Sprintf("[Dummy] finished QPU execution of %d shots", maxShots))
	return regs, nil
}

func (d *DummyQPU) check(c *ir.Circuit, numberQubits int) error {
	if numberQubits > d.deviceSetting.MaxQubits {
		return errors.Errorf("%d qubits are over the limit(%d)", numberQubits, d.deviceSetting.MaxQubits)
	}
	if n := c.NumberOfQubits(); n > numberQubits {
		return errors.Errorf("circuit uses %d qubits, %d are declared", n, numberQubits)
	}
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "invalid circuit")
	}
	for _, op := range c.Operations() {
		if !d.deviceSetting.Supports(op.Hqslang()) {
			return errors.Errorf("operation %s is not supported by %s", op.Hqslang(), d.deviceSetting.DeviceName)
		}
		if m, ok := op.(ir.PragmaRepeatedMeasurement); ok {
			for q := range m.QubitMapping {
				if q >= numberQubits {
					return errors.Errorf("qubit %d of %s is not declared", q, m.Readout)
				}
			}
		}
	}
	return nil
}

// newRand derives a generator for one run so that parallel runs do not
// share state.
func (d *DummyQPU) newRand() *rand.Rand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return rand.New(rand.NewSource(d.rng.Int63()))
}

func (d *DummyQPU) runShot(c *ir.Circuit, numberQubits int, rng *rand.Rand) (map[string][]bool, error) {
	st := newState(numberQubits)
	out := make(map[string][]bool)
	for _, reg := range c.Registers() {
		if reg.Type == ir.BitRegister {
			out[reg.Name] = make([]bool, reg.Length)
		}
	}
	for _, op := range c.Operations() {
		switch o := op.(type) {
		case ir.PauliX:
			st.x(o.Qubit)
		case ir.PauliZ:
			st.z(o.Qubit)
		case ir.Hadamard:
			st.h(o.Qubit)
		case ir.CNOT:
			if err := st.cnot(o.Control, o.Target); err != nil {
				return nil, err
			}
		case ir.MeasureQubit:
			out[o.Readout][o.ReadoutIndex] = d.read(o.Qubit, st.measure(o.Qubit, rng), rng)
		case ir.PragmaRepeatedMeasurement:
			bits := out[o.Readout]
			if o.QubitMapping == nil {
				for q := 0; q < len(bits) && q < numberQubits; q++ {
					bits[q] = d.read(q, st.measure(q, rng), rng)
				}
				continue
			}
			for q, slot := range o.QubitMapping {
				bits[slot] = d.read(q, st.measure(q, rng), rng)
			}
		}
	}
	return out, nil
}

// read applies the readout error of qubit q to a measured bit.
func (d *DummyQPU) read(q int, bit bool, rng *rand.Rand) bool {
	if !d.setting.ReadoutErrors {
		return bit
	}
	e, ok := d.measErrors[q]
	if !ok {
		return bit
	}
	if bit {
		return rng.Float64() >= e.ProbMeas0Prep1
	}
	return rng.Float64() < e.ProbMeas1Prep0
}

func (d *DummyQPU) GetDeviceInfo() *core.DeviceInfo {
	ds := d.deviceSetting
	if ds == nil {
		ds = NewDeviceSetting()
	}
	spec, err := jsonIter.MarshalToString(ds.Spec())
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to marshal device info of %s/reason:%s", ds.DeviceName, err))
	}
	return &core.DeviceInfo{
		DeviceName:         ds.DeviceName,
		ProviderName:       ds.ProviderName,
		Status:             core.Available,
		MaxQubits:          ds.MaxQubits,
		MaxShots:           ds.MaxShots,
		DeviceInfoSpecJson: spec,
	}
}
