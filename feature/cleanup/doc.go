// Package cleanup removes image records whose backing file is gone.
//
// A user's photo library is indexed by an upstream ingestion pipeline into the
// images table, with detected faces and person clusters as dependents. Files
// disappear, move to disallowed mounts, or end up under exclusion markers; the
// cleanup job reconciles the table against the live tree and deletes records
// that no longer correspond to a valid, visible file.
//
// # Scan algorithm
//
// The engine scans per user in ID-ordered batches of 1000 after a persisted
// checkpoint, so an interrupted scan resumes exactly where the last committed
// batch ended. Each batch is classified with one bulk existence round trip;
// only records the index still knows pay for node resolution, mount policy
// and the exclusion marker walk. The marker walk is amortized across siblings
// by a per-scan directory cache that stores negative results only.
//
// # Deletion order
//
// Removing an image cascades in a strict order: person clusters referencing
// the image's faces are invalidated first, then the faces are deleted, then
// the image. Invalidation inspects face membership, so reordering corrupts
// cluster aggregation. The sequence lives in the Purger and is shared by
// every maintenance path that removes images.
//
// # Cooperative scheduling
//
// Scans run on one goroutine and yield through the Yielder every 200
// processed records and once per committed batch. Yields double as safe
// abort points: state lost on termination is at most the current batch.
//
// # Surfaces
//
//   - POST /cleanup/run            : asynchronous sweep over all users.
//   - POST /cleanup/run/:user      : synchronous single-user scan (?force=true resyncs).
//   - POST /cleanup/schedule/:user : flag a user for the next sweep.
//   - GET  /cleanup/status/:user   : checkpoint, flags, last run result.
//   - GET  /cleanup/health         : schema verification.
//
// The start command additionally drives periodic sweeps through gocron.
package cleanup
