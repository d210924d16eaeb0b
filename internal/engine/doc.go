// Package engine executes assembled statements and multiplexes their results.
//
// A session is started by Engine.Handle. It runs a group of goroutines:
//
//   - the coordinator, sole owner of the namespace, the gas ledger, the
//     channel table and the variable table. Everything else changes that
//     state by sending it operations.
//   - the reader, which lexes and assembles the input and routes every
//     statement to the lane of its channel.
//   - one worker per channel, executing that channel's statements in order
//     and pushing their frames onto the shared output queue.
//
// Outputs are bound before the statement's gas is charged, within a single
// coordinator operation. A gas cap breach ends the session; frames already
// queued are still delivered to the consumer.
package engine
