//go:build unit
// +build unit

package core

import (
	"fmt"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testInput = `{"version":"1.0","operations":[]}`

func TestJobManager(t *testing.T) {
	s := SCWithUnimplementedContainer()
	defer s.TearDown()
	jm, err := NewJobManager(
		&UnimplementedJob{},
	)
	assert.Nil(t, err)
	assert.NotNil(t, jm)
	as := jm.AcceptableJobTypes()
	assert.Equal(t, []string{MockJobType}, as)

	err = jm.RegisterJob(&UnimplementedJob{})
	assert.EqualError(t, err, "job:unimplemented is already registered")

	as = jm.AcceptableJobTypes()
	assert.Equal(t, []string{MockJobType}, as)

	jc, err := NewJobContext()
	assert.Nil(t, err)

	job, err := jm.NewJobFromJobData(
		&JobData{ID: "test", JobType: MockJobType},
		jc,
	)
	assert.Nil(t, err)
	assert.Equal(t, job.JobData().ID, "test")
	assert.NotNil(t, job.JobData().Result)

	_, err = jm.NewJobFromJobData(&JobData{ID: "test", JobType: "quantum_annealing"}, jc)
	assert.EqualError(t, err, "job type quantum_annealing is not registered")
}

func TestNewJob(t *testing.T) {
	s := SCWithDBContainer()
	defer s.TearDown()

	jm, err := NewJobManager(&UnimplementedJob{})
	assert.Nil(t, err)

	param := JobParam{
		JobID:   uuid.NewString(),
		Input:   testInput,
		Shots:   -1,
		JobType: MockJobType,
	}
	tests := []struct {
		name        string
		param       *JobParam
		wantError   string
		wantJobData *JobData
	}{
		{
			name: "0 shots",
			param: &JobParam{
				JobID:   uuid.NewString(),
				Input:   testInput,
				Shots:   0,
				JobType: MockJobType,
			},
			wantError: "shots(0) must be greater than 0",
		},
		{
			name:      "negative shots",
			param:     &param,
			wantError: "shots(-1) must be greater than 0",
		},
		{
			name: "over max shots",
			param: &JobParam{
				JobID:   uuid.NewString(),
				Input:   testInput,
				Shots:   MockMaxShots + 1,
				JobType: MockJobType,
			},
			wantError: fmt.Sprintf(
				"shots(%d) is over the limit(%d)",
				MockMaxShots+1, MockMaxShots),
		},
		{
			name: "empty input",
			param: &JobParam{
				JobID:   "empty",
				Shots:   1,
				JobType: MockJobType,
			},
			wantError: "input is empty/jobID:empty",
		},
		{
			name: "empty job type",
			param: &JobParam{
				JobID: "no-type",
				Input: testInput,
				Shots: 1,
			},
			wantError: "job type is empty/jobID:no-type",
		},
		{
			name: "normal with max shots",
			param: &JobParam{
				JobID:   uuid.NewString(),
				Input:   testInput,
				Shots:   MockMaxShots,
				JobType: MockJobType,
			},
			wantJobData: &JobData{
				JobType: MockJobType,
				Input:   testInput,
				Shots:   MockMaxShots,
				Params:  map[string]float64{},
			},
		},
		{
			name: "normal with params",
			param: &JobParam{
				JobID:          uuid.NewString(),
				Input:          testInput,
				Shots:          1,
				Params:         map[string]float64{"theta": 0.25},
				JobType:        MockJobType,
				MitigationInfo: `{"readout": "pseudo_inverse"}`,
			},
			wantJobData: &JobData{
				JobType:        MockJobType,
				Input:          testInput,
				Shots:          1,
				Params:         map[string]float64{"theta": 0.25},
				MitigationInfo: `{"readout": "pseudo_inverse"}`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jc, err := NewJobContext()
			assert.Nil(t, err)
			job, err := jm.NewJobWithValidation(tt.param, jc)
			if tt.wantError == "" {
				assert.Nil(t, err)
				tt.wantJobData.ID = tt.param.JobID
				tt.wantJobData.Result = NewResult()
				tt.wantJobData.Created = job.JobData().Created // ignore time
				assert.Equal(t, tt.wantJobData, job.JobData())
			} else {
				assert.EqualError(t, err, tt.wantError)
			}
		})
	}
}

func TestCloneJob(t *testing.T) {
	s := SCWithUnimplementedContainer()
	defer s.TearDown()
	jm, err := NewJobManager(&UnimplementedJob{})
	assert.Nil(t, err)

	jd := &JobData{
		ID:      "test",
		Input:   testInput,
		Shots:   1000,
		JobType: MockJobType,
	}
	jc, err := NewJobContext()
	assert.Nil(t, err)
	org, err := jm.NewJobFromJobData(jd, jc)
	assert.Nil(t, err)
	cloned := org.Clone()
	assert.False(t, cloned == org)
	assert.False(t, cloned.JobData() == org.JobData(),
		"cloned.JobData()=%p, nj.JobData()=%p", cloned.JobData(), org.JobData())
	assert.Equal(t, cloned.JobData().ID, org.JobData().ID)
	assert.Equal(t, cloned.JobData().Input, org.JobData().Input)
	assert.Equal(t, cloned.JobData().Shots, org.JobData().Shots)

	org.JobData().ID = "test2"
	assert.NotEqual(t, cloned.JobData().ID, org.JobData().ID)

	org.JobData().Status = RUNNING
	cloned.JobData().Status = SUCCEEDED
	assert.NotEqual(t, cloned.JobData().Status, org.JobData().Status)
}

func TestInsertJob(t *testing.T) {
	s := SCWithDBContainer()
	defer s.TearDown()
	jm, err := NewJobManager(&UnimplementedJob{})
	assert.Nil(t, err)
	jc, err := NewJobContext()
	assert.Nil(t, err)

	job, err := jm.NewJobFromJobData(&JobData{ID: "estimation-1", JobType: MockJobType}, jc)
	assert.Nil(t, err)
	assert.Nil(t, InsertJob(job))

	again, err := jm.NewJobFromJobData(&JobData{ID: "estimation-1", JobType: MockJobType}, jc)
	assert.Nil(t, err)
	err = InsertJob(again)
	assert.True(t, errors.Is(err, ErrorJobIDConflict), "got %v", err)

	var stored Job
	assert.Nil(t, s.Invoke(func(d DBManager) (err error) {
		stored, err = d.Get("estimation-1")
		return err
	}))
	assert.True(t, stored == job)
}
