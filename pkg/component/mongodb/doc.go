// Package mongodb connects to MongoDB and reconciles declared structure.
//
// Options come in two shapes. HostOptions describe a deployment by host,
// credentials and replica set; URIOptions carry a full connection string.
// Resolve turns either into a ResolvedConfig and a connection string, and
// Fingerprint derives the identity ("mongodb:" plus a murmur3 hash) that
// Registry uses to share one Client per deployment and database.
//
// A Client connects lazily. Connect is idempotent and safe for concurrent
// use; a failed attempt leaves the Client disconnected so the next call
// starts over. Close logs a failed disconnect and keeps the pool.
//
// Bootstrap validates a structure, connects and ensures every collection
// and then every index in declared order:
//
//	structure, err := mongodb.LoadStructure("structure.yaml")
//	if err != nil {
//	    return err
//	}
//	report, err := client.Bootstrap(ctx, structure)
//
// Existing objects are left untouched. Index options are merged over
// background:true and the index name always wins.
package mongodb
