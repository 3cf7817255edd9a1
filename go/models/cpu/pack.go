package cpu

import "encoding/binary"

// PackU128 stores v in 16 bytes. Big-endian order reverses the whole
// quadword, not each half.
func PackU128(order binary.ByteOrder, buf []byte, v U128) {
	if order == binary.BigEndian {
		binary.BigEndian.PutUint64(buf[0:8], v.Hi)
		binary.BigEndian.PutUint64(buf[8:16], v.Lo)
	} else {
		binary.LittleEndian.PutUint64(buf[0:8], v.Lo)
		binary.LittleEndian.PutUint64(buf[8:16], v.Hi)
	}
}

func UnpackU128(order binary.ByteOrder, buf []byte) U128 {
	if order == binary.BigEndian {
		return U128{Hi: binary.BigEndian.Uint64(buf[0:8]), Lo: binary.BigEndian.Uint64(buf[8:16])}
	}
	return U128{Lo: binary.LittleEndian.Uint64(buf[0:8]), Hi: binary.LittleEndian.Uint64(buf[8:16])}
}
