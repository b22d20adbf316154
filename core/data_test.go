//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultToString(t *testing.T) {
	tests := []struct {
		name       string
		result     *Result
		wantString string
	}{
		{
			name:   "empty result",
			result: NewResult(),
			wantString: heredoc.Doc(`
			  {
			    "values": {},
			    "counts": {},
			    "registers": null,
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "message in result",
			result: messageInResult(),
			wantString: heredoc.Doc(`
			  {
			    "values": {},
			    "counts": {},
			    "registers": null,
			    "message": "dummy message",
			    "execution_time": 0
			  }
			`),
		},
		{
			name:   "counts in result",
			result: countsInResult(),
			wantString: heredoc.Doc(`
			  {
			    "values": {},
			    "counts": {
			      "ro": {
			        "00": 10,
			        "01": 20
			      }
			    },
			    "registers": null,
			    "message": "",
			    "execution_time": 0
			  }
			`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := tt.result.ToString()
			assert.Equal(t, tt.wantString, act)
		})
	}
}

func messageInResult() *Result {
	r := NewResult()
	r.Message = "dummy message"
	return r
}

func countsInResult() *Result {
	r := NewResult()
	r.Counts["ro"] = Counts{"00": 10, "01": 20}
	return r
}

func TestValuesJSON(t *testing.T) {
	v := Values{"b": complex(0.5, -1), "a": 2}
	b, err := jsonIter.Marshal(v)
	require.Nil(t, err)
	assert.Equal(t, `{"a":[2,0],"b":[0.5,-1]}`, string(b))

	var got Values
	require.Nil(t, jsonIter.Unmarshal(b, &got))
	assert.Equal(t, v, got)

	assert.NotNil(t, jsonIter.Unmarshal([]byte(`{"a":[1]}`), &got))
}

func TestCloneJobData(t *testing.T) {
	tests := []struct {
		name    string
		jobData *JobData
	}{
		{
			name: "no properties",
			jobData: &JobData{
				ID:      "dummy_id",
				Input:   `{"version":"1.0","operations":[]}`,
				Shots:   1000,
				Result:  NewResult(),
				Created: strfmt.NewDateTime(),
				Ended:   strfmt.NewDateTime(),
			},
		},
		{
			name: "with properties",
			jobData: &JobData{
				ID:     "dummy_id",
				Input:  `{"version":"1.0","operations":[]}`,
				Shots:  1000,
				Params: map[string]float64{"theta": 0.5},
				Result: countsInResult(),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clonedJobData := tt.jobData.Clone()

			assert.False(t, tt.jobData == clonedJobData)
			assert.Equal(t, tt.jobData.ID, clonedJobData.ID)
			assert.Equal(t, tt.jobData.Input, clonedJobData.Input)
			assert.Equal(t, tt.jobData.Shots, clonedJobData.Shots)
			assert.Equal(t, tt.jobData.Params, clonedJobData.Params)
			assert.Equal(t, tt.jobData.Created, clonedJobData.Created)
			assert.Equal(t, tt.jobData.Ended, clonedJobData.Ended)
			assert.False(t, tt.jobData.Result == clonedJobData.Result)
			assert.Equal(t, tt.jobData.Result.Counts, clonedJobData.Result.Counts)
		})
	}
}

func TestToStatus(t *testing.T) {
	for _, s := range []Status{SUBMITTED, READY, RUNNING, SUCCEEDED, FAILED, CANCELLED} {
		got, err := ToStatus(s.String())
		assert.Nil(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ToStatus("paused")
	assert.EqualError(t, err, "unknown status: paused")
}
