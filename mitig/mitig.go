package mitig

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"go.uber.org/zap"
)

const PseudoInverse = "pseudo_inverse"

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

type PropertyRaw jsoniter.RawMessage

type MitigationInfo struct {
	NeedToBeMitigated bool
	Mitigated         bool

	PropertyRaw PropertyRaw
}

// NewMitigationInfoFromJobData reads JobData.MitigationInfo. Readout
// mitigation is requested by {"readout": "pseudo_inverse"}; the value may
// also arrive JSON-quoted a second time.
func NewMitigationInfoFromJobData(jd *core.JobData) *MitigationInfo {
	m := MitigationInfo{
		Mitigated: false,
	}
	inputBytes := []byte(jd.MitigationInfo)

	if len(inputBytes) > 0 && jsonIter.Valid(inputBytes) {
		m.PropertyRaw = PropertyRaw(inputBytes)
		var props map[string]string
		if err := jsonIter.Unmarshal(m.PropertyRaw, &props); err != nil {
			zap.L().Warn(fmt.Sprintf("failed to unmarshal PropertyRaw into map for JobID:%s, assuming not mitigated: %s", jd.ID, err))
		} else {
			readoutValue, ok := props["readout"]
			if ok && strings.Trim(strings.TrimSpace(readoutValue), `"`) == PseudoInverse {
				zap.L().Debug(fmt.Sprintf("JobID:%s Need to be mitigated based on PropertyRaw.readout", jd.ID))
				m.NeedToBeMitigated = true
			} else {
				zap.L().Debug(fmt.Sprintf("JobID:%s does not need to be mitigated based on PropertyRaw.readout (value: %s, found: %t)", jd.ID, readoutValue, ok))
			}
		}
	} else if len(inputBytes) == 0 {
		zap.L().Debug(fmt.Sprintf("JobID:%s MitigationInfo string is empty, assuming not mitigated", jd.ID))
	} else {
		zap.L().Warn(fmt.Sprintf("JobID:%s MitigationInfo string is not valid JSON, assuming not mitigated: %s", jd.ID, jd.MitigationInfo))
	}
	zap.L().Debug(fmt.Sprintf("set MitigationInfo PropertyRaw: %s, NeedToBeMitigated: %t", string(m.PropertyRaw), m.NeedToBeMitigated))
	return &m
}
