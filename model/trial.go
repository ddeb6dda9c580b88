package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"ap-task/pitch"
)

// DateLayout renders StartDate and FinishDate
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// TrialSpec is the resolved configuration of one trial
type TrialSpec struct {
	Note             pitch.Note
	StartCents       int
	ScaleOffsetCents int
	BlockNumber      int
	TrialNumber      int
	IsPractice       bool
}

// TrialRecord is the outcome of one completed trial
type TrialRecord struct {
	TrialSpec

	StartDate           time.Time
	FinishDate          time.Time
	ResponseTimeSeconds float64
	ChosenCents         int
	ChosenFreq          float64
	StartFreq           float64
	ScaleMinCents       int
	ScaleMaxCents       int
	ScaleMinFreq        float64
	ScaleMaxFreq        float64

	// TimedOut reports whether the response window ran out
	TimedOut bool
}

// Columns lists the exported field names in declaration order
func Columns() []string {
	return []string{
		"isPractice",
		"blockNumber",
		"trialNumber",
		"startDate",
		"finishDate",
		"responseTime",
		"note",
		"chosenCents",
		"chosenFreq",
		"startCents",
		"startFreq",
		"scaleOffsetCents",
		"scaleMinCents",
		"scaleMaxCents",
		"scaleMinFreq",
		"scaleMaxFreq",
		"timedOut",
	}
}

// Values renders the record in Columns order
func (r TrialRecord) Values() []string {
	return []string{
		strconv.FormatBool(r.IsPractice),
		strconv.Itoa(r.BlockNumber),
		strconv.Itoa(r.TrialNumber),
		r.StartDate.Format(DateLayout),
		r.FinishDate.Format(DateLayout),
		formatFloat(r.ResponseTimeSeconds),
		r.Note.Name,
		strconv.Itoa(r.ChosenCents),
		formatFloat(r.ChosenFreq),
		strconv.Itoa(r.StartCents),
		formatFloat(r.StartFreq),
		strconv.Itoa(r.ScaleOffsetCents),
		strconv.Itoa(r.ScaleMinCents),
		strconv.Itoa(r.ScaleMaxCents),
		formatFloat(r.ScaleMinFreq),
		formatFloat(r.ScaleMaxFreq),
		strconv.FormatBool(r.TimedOut),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BlockResult holds the records of one block in presentation order
type BlockResult []TrialRecord

// Last returns the final record of the block
func (b BlockResult) Last() (TrialRecord, bool) {
	if len(b) == 0 {
		return TrialRecord{}, false
	}
	return b[len(b)-1], true
}

// SessionResult is every record of a session in presentation order
type SessionResult struct {
	ID      uuid.UUID
	Seed    uint64
	Records []TrialRecord
}

// Append adds a block's records to the end of the session
func (s *SessionResult) Append(b BlockResult) {
	s.Records = append(s.Records, b...)
}
