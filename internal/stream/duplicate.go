package stream

import "github.com/roach88/fakestream/internal/protocol"

// maybeDuplicate re-emits a uniformly chosen earlier record when the quota
// allows it and either force is set or the likelihood coin lands.
//
// The quota is min(Duplicates, len(Records)), so a run never carries more
// duplicates than records emitted before the injection.
func (s *Stream) maybeDuplicate(force bool) (protocol.Message, bool) {
	st := &s.state

	if s.spec.Duplicates <= 0 ||
		len(st.Records) == 0 ||
		st.DuplicatesWritten >= min(s.spec.Duplicates, len(st.Records)) {
		return protocol.Message{}, false
	}
	if !force && !s.src.Boolean(*s.spec.DuplicateLikelihood) {
		return protocol.Message{}, false
	}

	rec := st.Records[s.src.IntRange(0, len(st.Records)-1)]
	key := s.primaryKey(rec)

	st.DuplicatesWritten++
	st.DuplicateKeys = append(st.DuplicateKeys, key)

	msg := s.emitRecord(rec, true)
	s.logger.Debug("duplicate injected",
		"key", key,
		"forced", force,
		"sequence", msg.Sequence,
		"duplicates_written", st.DuplicatesWritten)
	return msg, true
}

func (s *Stream) primaryKey(rec protocol.Record) []any {
	key := make([]any, len(s.spec.KeyProperties))
	for i, k := range s.spec.KeyProperties {
		key[i] = rec[k]
	}
	return key
}
