// Package nqcrypt protects a payload together with a set of named integer
// fields under one master key.
//
// A protect call produces a Container holding:
//
//   - the payload encrypted by a block-chaining stream cipher whose keystream
//     comes from a small neural-network style generator seeded by the key
//   - an encapsulated key and salt derived from the master key with
//     HKDF-SHA256
//   - each integer field in an additive encoding that supports sums and
//     scalar multiples without decoding
//
// # Quick Start
//
//	p, err := nqcrypt.New(masterKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c, err := p.Protect(ctx, payload, map[string]int64{"age": 25, "score": 87})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	age, err := p.DecodeField(c, "age") // 25
//
// # Recovery Caveats
//
// Recover unwraps the encapsulated key and decrypts with a cipher built from
// the unwrapped key. HKDF is one-way, so the unwrapped key is not the master
// key, and with the default asymmetric feedback the decrypt path feeds back
// different bytes than the encrypt path. Recover therefore does not return
// the protected payload. Recover also replaces the cipher later Protect calls
// use.
//
// With WithFeedbackMode(FeedbackSymmetric), RecoverWithMasterKey returns the
// payload exactly:
//
//	p, _ := nqcrypt.New(masterKey, nqcrypt.WithFeedbackMode(nqcrypt.FeedbackSymmetric))
//	c, _ := p.Protect(ctx, payload, nil)
//	out, _ := p.RecoverWithMasterKey(ctx, c) // out == payload
//
// # Additive Fields
//
// Encoded fields can be combined without the key:
//
//	sum := nqcrypt.AddEncoded(a, b)       // decodes to a+b
//	tripled := nqcrypt.ScaleEncoded(a, 3) // decodes to 3a+(2*noise)/1000
//
// Scale multiplies the noise term along with the value, so a scaled field
// decodes with a bias of floor((k-1)*noise/1000). Checked variants report
// ErrOverflow instead of wrapping.
//
// # Persistence
//
// Containers serialize with BinaryCodec or JSONCodec. ContainerStore
// implementations live in MemoryStore and under providers/store. Master keys
// can be loaded through a KeySource, including Vault KV v2 under
// providers/keys/hashicorp.
//
// None of this is a vetted cryptographic construction. Do not use it to
// protect real data.
package nqcrypt
