// File: buffer/search.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// indexByte is the single-byte scan behind Buffer.IndexByte, used by
// conn.ReadLine and conn.ReadPacket the way gwlib's octstr_search_char
// backs conn_read_line/conn_read_packet. bytesutil (the pack's byte-level
// helper library, see conn/framing.go) supplies big-endian codecs but no
// byte-search primitive, so this one small scan stays on the standard
// library rather than pull in a second helper package for one function.
package buffer

import "bytes"

func indexByte(b []byte, c byte) int {
	return bytes.IndexByte(b, c)
}
