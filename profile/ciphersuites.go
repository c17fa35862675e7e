package profile

// Cipher suite ID lists shared across profile families. Chromium and
// Gecko engines ship nearly identical TLS 1.3+1.2 suite lists; Safari
// and native engines vary. Grounded on utls's ClientHelloID preset
// suite lists (HelloChrome_*, HelloFirefox_*, HelloSafari_*) that the
// teacher hands straight to SetTLSFingerprint.
var (
	chromiumCipherSuites = []uint16{
		0x1301, 0x1302, 0x1303, // TLS 1.3: AES128-GCM, AES256-GCM, CHACHA20-POLY1305
		0xc02b, 0xc02f, 0xc02c, 0xc030, 0xcca9, 0xcca8,
		0xc013, 0xc014, 0x009c, 0x009d, 0x002f, 0x0035,
	}

	firefoxCipherSuites = []uint16{
		0x1301, 0x1302, 0x1303,
		0xc02b, 0xc02f, 0xc02c, 0xc030, 0xcca9, 0xcca8,
		0xc009, 0xc013, 0xc00a, 0xc014, 0x009c, 0x009d, 0x002f, 0x0035,
	}

	safariCipherSuites = []uint16{
		0x1301, 0x1302, 0x1303,
		0xc02c, 0xc02b, 0xc030, 0xc02f, 0xcca9, 0xcca8,
		0xc00a, 0xc009, 0xc014, 0xc013, 0x009d, 0x009c, 0x0035, 0x002f,
		0xc008, 0xc012, 0x000a,
	}
)
