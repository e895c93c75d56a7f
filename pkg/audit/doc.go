// Package audit records entitlement decisions without slowing down the
// decisions themselves.
//
// A Recorder is the Sink handed to the resolution service. Record never
// blocks: events go into a bounded queue and a background worker writes them
// to a Storage in batches. When the queue is full the event is dropped and
// counted rather than delaying the caller.
//
//	rec := audit.NewRecorder(audit.NewLogStorage(log),
//		audit.WithBufferSize(5000),
//		audit.WithMetrics(prometheus.DefaultRegisterer),
//	)
//	defer rec.Close(context.Background())
//
// Storages shipped with the package:
//
//   - LogStorage writes one structured log record per event.
//   - MemoryStorage keeps events in memory for tests.
//
// Durable persistence is left to the application: implement Storage.StoreBatch.
package audit
