package profile

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	"strconv"
	"strings"
)

// webkitBoundary and firefoxBoundary reproduce the exact multipart
// boundary formats Blink/WebKit and Gecko generate client-side, ported
// from the teacher's webkitMultipartBoundaryFunc/
// firefoxMultipartBoundaryFunc (client_impersonate.go), themselves
// citing Chromium's FormDataEncoder and Gecko's HTMLFormSubmission.

func webkitBoundary() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789AB"
	sb := strings.Builder{}
	sb.WriteString("----WebKitFormBoundary")
	for i := 0; i < 16; i++ {
		index, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters)-1)))
		if err != nil {
			panic(err)
		}
		sb.WriteByte(letters[index.Int64()])
	}
	return sb.String()
}

func firefoxBoundary() string {
	sb := strings.Builder{}
	sb.WriteString("-------------------------")
	for i := 0; i < 3; i++ {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			panic(err)
		}
		u32 := binary.LittleEndian.Uint32(b[:])
		sb.WriteString(strconv.FormatUint(uint64(u32), 10))
	}
	return sb.String()
}
