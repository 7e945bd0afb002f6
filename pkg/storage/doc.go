// Package storage defines the upload store used by the /upload endpoint
// together with helpers shared by its implementations: sentinel errors,
// upload naming and content-type to extension mapping.
//
// Implementations live in sub-packages. disk writes uploads into a
// directory, memory keeps them in process with optional LRU eviction, and
// redis shares them between gateway replicas.
package storage
