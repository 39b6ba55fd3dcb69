package rpcserver

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/xiaolou86/cota-aggregator/internal/aggerr"
	"github.com/xiaolou86/cota-aggregator/internal/keys"
	"github.com/xiaolou86/cota-aggregator/internal/smt"
)

func trimHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

func decodeHexBytes(field, s string, wantLen int) ([]byte, error) {
	if s == "" {
		return nil, aggerr.ParamNotFound(field)
	}
	raw, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return nil, aggerr.ParamTypeError(field)
	}
	if wantLen >= 0 && len(raw) != wantLen {
		return nil, aggerr.ParamHexLenError(field)
	}
	return raw, nil
}

func decodeLockScript(field, s string) ([]byte, error) {
	return decodeHexBytes(field, s, -1)
}

func decodeHash(field, s string) (smt.Hash, error) {
	raw, err := decodeHexBytes(field, s, 32)
	if err != nil {
		return smt.Hash{}, err
	}
	return smt.BytesToHash(raw), nil
}

func decodeCotaID(field, s string) (keys.CotaID, error) {
	raw, err := decodeHexBytes(field, s, 20)
	if err != nil {
		return keys.CotaID{}, err
	}
	var id keys.CotaID
	copy(id[:], raw)
	return id, nil
}

func decodeTokenIndex(field, s string) (keys.TokenIndex, error) {
	raw, err := decodeHexBytes(field, s, 4)
	if err != nil {
		return keys.TokenIndex{}, err
	}
	var idx keys.TokenIndex
	copy(idx[:], raw)
	return idx, nil
}

func decodeOutPoint(field, s string) (keys.OutPoint, error) {
	raw, err := decodeHexBytes(field, s, 36)
	if err != nil {
		return keys.OutPoint{}, err
	}
	var op keys.OutPoint
	copy(op[:], raw)
	return op, nil
}

func decodeByte(field, s string) (byte, error) {
	raw, err := decodeHexBytes(field, s, 1)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

func decodeCharacteristic(field, s string) ([20]byte, error) {
	raw, err := decodeHexBytes(field, s, 20)
	if err != nil {
		return [20]byte{}, err
	}
	var c [20]byte
	copy(c[:], raw)
	return c, nil
}

func decodeUint32(field, s string) (uint32, error) {
	if s == "" {
		return 0, aggerr.ParamNotFound(field)
	}
	n, err := strconv.ParseUint(trimHexPrefix(s), 16, 32)
	if err != nil {
		return 0, aggerr.ParamTypeError(field)
	}
	return uint32(n), nil
}

func encodeHexHash(h smt.Hash) string {
	return "0x" + hex.EncodeToString(h.Bytes())
}

func encodeHexBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
