// Package snapshot captures committed host trees and stores them.
//
// A Snapshot is a JSON document describing a memhost subtree: every node
// with its properties, listener names and the fiber that owns it, plus the
// rendered HTML. Snapshots are written through a Store; DiskStore keeps them
// under a local directory and S3Store writes them to a bucket.
//
//	snap := snapshot.Capture("counter", doc.Body())
//	store, _ := snapshot.NewDiskStore("snapshots")
//	err := store.Put(ctx, snap)
package snapshot
