package hunt

// Recorder receives counts of award and sweep outcomes.
type Recorder interface {
	RecordAward(kind OutcomeKind)
	RecordSweep(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordAward(OutcomeKind) {}
func (nopRecorder) RecordSweep(bool)        {}
