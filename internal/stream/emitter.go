package stream

import "github.com/roach88/fakestream/internal/protocol"

func (s *Stream) emitSchema() protocol.Message {
	return protocol.NewSchema(s.spec.Stream, s.spec.Schema, s.spec.KeyProperties)
}

// emitRecord wraps rec in a RECORD message. Fresh records are appended to
// the emitted-records log; duplicates get the shifted sequence.
func (s *Stream) emitRecord(rec protocol.Record, duplicate bool) protocol.Message {
	st := &s.state

	sequence := s.seq.Base()
	if duplicate {
		sequence = s.seq.Shifted(s.spec.DuplicateSequenceDelta)
	} else {
		st.Records = append(st.Records, rec)
	}
	st.RecordMessages++

	var version *int64
	if s.spec.Version != nil {
		v := *s.spec.Version
		version = &v
	}

	msg := protocol.NewRecord(s.spec.Stream, rec, sequence, version)
	msg.Duplicate = duplicate
	return msg
}
