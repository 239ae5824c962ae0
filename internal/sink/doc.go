// Package sink delivers generated protocol lines to a consumer.
//
// Transports:
//   - LineSink: newline-delimited lines on any io.Writer (stdout, files,
//     a pipe into the consumer process)
//   - KafkaSink: one Kafka message per protocol line, keyed by stream and
//     primary key so duplicates land on the same partition as the original
//   - StoreSink: the SQLite run log, for later replay
//
// Tee combines several sinks.
//
// Drain is the pull loop that connects a stream to a sink. It is the only
// place cancellation exists: a cancelled context stops the pulls.
package sink
