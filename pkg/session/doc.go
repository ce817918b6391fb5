/*
Package session implements snapshot persistence and tick orchestration for trees.

A Manager serializes ticks of one tree ID (a local reference-counted mutex plus
an optional distributed lock), restores the tree's node boards from the
SnapshotStore when another replica advanced it, and saves a fresh snapshot
after every tick.
*/
package session
