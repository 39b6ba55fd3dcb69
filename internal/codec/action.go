package codec

import "encoding/binary"

// CountAction builds the count-style action label: an ASCII prefix,
// then the item count as 4 big-endian bytes regardless of magnitude,
// then an ASCII suffix. E.g. CountAction("Mint ", 3, " NFTs") yields
// "Mint \x00\x00\x00\x03 NFTs", per spec.md §4.4.
func CountAction(prefix string, count uint32, suffix string) []byte {
	buf := make([]byte, 0, len(prefix)+4+len(suffix))
	buf = append(buf, prefix...)
	var countBytes [4]byte
	binary.BigEndian.PutUint32(countBytes[:], count)
	buf = append(buf, countBytes[:]...)
	buf = append(buf, suffix...)
	return buf
}

// SingleTransferAction builds the single-item Transfer action label:
// "Transfer the NFT " + cota_id + token_index + " to " + to_lock_script.
func SingleTransferAction(cotaID, tokenIndex, toLockScript []byte) []byte {
	buf := make([]byte, 0, 64+len(toLockScript))
	buf = append(buf, "Transfer the NFT "...)
	buf = append(buf, cotaID...)
	buf = append(buf, tokenIndex...)
	buf = append(buf, " to "...)
	buf = append(buf, toLockScript...)
	return buf
}
