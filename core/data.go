package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-openapi/strfmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/mohae/deepcopy"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

type Status int
type Counts map[string]uint32

// Values maps an expectation value name to its result. Serialized as
// {"name": [re, im]}.
type Values map[string]complex128

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

func (c Counts) String() string {
	st, err := jsonIter.Marshal(c)
	if err != nil {
		zap.L().Error("Failed to marshal core.Counts")
		return ""
	}
	return string(st)
}

func ToStatus(s string) (Status, error) {
	switch s {
	case "submitted":
		return SUBMITTED, nil
	case "ready":
		return READY, nil
	case "running":
		return RUNNING, nil
	case "succeeded":
		return SUCCEEDED, nil
	case "failed":
		return FAILED, nil
	case "cancelled":
		return CANCELLED, nil
	default:
		return 0, fmt.Errorf("unknown status: %s", s)
	}
}

const (
	SUBMITTED Status = iota // Accepted but not queued yet.
	READY                   // Queued. Every job starts here.
	RUNNING                 // Circuits are being executed.
	SUCCEEDED               // Finished successfully.
	FAILED                  // Finished with failure.
	CANCELLED               // Finished with cancellation.
)

func (s Status) String() string {
	switch s {
	case SUBMITTED:
		return "submitted"
	case READY:
		return "ready"
	case RUNNING:
		return "running"
	case SUCCEEDED:
		return "succeeded"
	case FAILED:
		return "failed"
	case CANCELLED:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (v Values) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		e.ArrStart()
		e.Float64(real(v[k]))
		e.Float64(imag(v[k]))
		e.ArrEnd()
	}
	e.ObjEnd()
	return append([]byte(nil), e.Bytes()...), nil
}

func (v *Values) UnmarshalJSON(b []byte) error {
	out := make(Values)
	d := jx.DecodeBytes(b)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var parts []float64
		if err := d.Arr(func(d *jx.Decoder) error {
			f, err := d.Float64()
			parts = append(parts, f)
			return err
		}); err != nil {
			return err
		}
		if len(parts) != 2 {
			return errors.Errorf("value %s must be [re, im]", key)
		}
		out[string(key)] = complex(parts[0], parts[1])
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "decode values")
	}
	*v = out
	return nil
}

type Result struct {
	Values        Values            `json:"values"`
	Counts        map[string]Counts `json:"counts"`
	Registers     []*Registers      `json:"registers"`
	Message       string            `json:"message"`
	ExecutionTime time.Duration     `json:"execution_time"`
}

type JobData struct {
	ID      string
	Status  Status
	Shots   int
	Input   string // serialized circuit or measurement input, depending on JobType
	Params  map[string]float64
	Result  *Result
	JobType string
	Created strfmt.DateTime
	Ended   strfmt.DateTime
	Info    string
	// JSON such as {"readout": "pseudo_inverse"}
	MitigationInfo string
}

func (jd *JobData) Clone() *JobData {
	c := deepcopy.Copy(jd).(*JobData)
	c.Created = *jd.Created.DeepCopy()
	c.Ended = *jd.Ended.DeepCopy()
	return c
}

func NewResult() *Result {
	return &Result{
		Values: make(Values),
		Counts: make(map[string]Counts),
	}
}

func NewJobData() *JobData {
	return &JobData{
		Params:  make(map[string]float64),
		Result:  NewResult(),
		Created: strfmt.DateTime(time.Now()),
	}
}

func (r *Result) ToString() string {
	st, err := jsonIter.Marshal(r)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to marshal core.Result/reason:%s", err))
		return ""
	}
	st = pretty.Pretty(st)
	return string(st)
}
