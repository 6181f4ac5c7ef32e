// Package keystream implements the keyed block generator behind the stream cipher.
//
// A Generator is a fixed three-stage transform (two tanh stages and a sigmoid
// output stage, 32 -> 64 -> 64 -> 32) whose coefficients are drawn from a
// pseudorandom generator seeded with the first eight bytes of the master key.
// When feedback from a previous block is supplied, the 32-byte input and the
// 16-byte feedback are concatenated and projected back to 32 values with a
// projection matrix that is part of the same parameter set.
//
// The generator is not a vetted cryptographic primitive. It is specified only
// so that outputs are reproducible for a given key.
package keystream
