/*
Package mirror keeps a SnapshotStore in step with the live instances.

A Mirror subscribes to Define, Update and Delete events and writes each
committed snapshot through to the store. Writes for the same instance are
serialised locally, and across processes when a DistributedLocker is set.
*/
package mirror
