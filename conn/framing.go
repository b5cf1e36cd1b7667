// File: conn/framing.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Length-prefix codec shared by WriteWithLength/ReadWithLength, grounded
// on gwlib/conn.c's conn_write_withlen/conn_read_withlen 4-byte
// big-endian length framing and on TheSmallBoat-carlo's rpc packet codecs
// (serviceresponsepacket.go/datapacket.go), which use exactly this
// bytesutil.AppendUint32BE/Uint32BE pair for their own length prefixes.

package conn

import "github.com/lithdew/bytesutil"

func appendLengthPrefix(dst, payload []byte) []byte {
	dst = bytesutil.AppendUint32BE(dst, uint32(len(payload)))
	dst = append(dst, payload...)
	return dst
}

func decodeLengthPrefix(b []byte) uint32 {
	return bytesutil.Uint32BE(b)
}

// negativeLength reports whether a decoded length's top bit is set, the
// "negative length" corruption signal spec.md §4.2 describes.
func negativeLength(length uint32) bool {
	return length&0x80000000 != 0
}
