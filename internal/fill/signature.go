package fill

// splitSignature unpacks a 65-byte r||s||v signature into the (v, r, s)
// triple on-chain verifiers expect, normalizing v to the 27/28 convention.
// An absent signature (the unsigned inverted order) yields all zeroes.
func splitSignature(sig []byte) (v uint8, r, s [32]byte) {
	if len(sig) != 65 {
		return 0, r, s
	}
	copy(r[:], sig[0:32])
	copy(s[:], sig[32:64])
	v = sig[64]
	if v < 27 {
		v += 27
	}
	return v, r, s
}
