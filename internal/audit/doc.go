// Package audit relays session lifecycle events to a sink off the caller's
// goroutine.
//
// A [Dispatcher] owns one relay goroutine and a bounded queue. Sinks cover
// in-process readers ([ChannelSink]), JSON lines ([JSONLines]), the
// application log ([LogSink]) and a capped Redis stream ([StreamSink]);
// [Tee] combines them.
//
// # What this package must NOT do
//
//   - Decide which events to emit. The engine does that.
//   - Import goAdmin or any sibling package.
//   - Record credentials.
package audit
