package profile

import "github.com/brightwire/impersonate/tlsext"

// Shared extension-list building blocks, factored out because Chrome,
// Edge, and Opera (all Chromium-engine) and Firefox ship near-identical
// supported-groups/signature-algorithms lists; only the surrounding
// extension set and ordering differs per profile (§4.1, §9 "Chromium
// family shares TLS identity, diverges only in headers/UA").

func chromiumSupportedGroups() *tlsext.SupportedGroups {
	return &tlsext.SupportedGroups{Curves: []uint16{
		tlsext.GreasePlaceholder,
		tlsext.GroupX25519,
		tlsext.GroupP256,
		tlsext.GroupP384,
	}}
}

func firefoxSupportedGroups() *tlsext.SupportedGroups {
	return &tlsext.SupportedGroups{Curves: []uint16{
		tlsext.GroupX25519,
		tlsext.GroupP256,
		tlsext.GroupP384,
		tlsext.GroupP521,
	}}
}

func chromiumSignatureAlgorithms() *tlsext.SignatureAlgorithms {
	return &tlsext.SignatureAlgorithms{Schemes: []uint16{
		0x0403, 0x0804, 0x0401, // ecdsa_secp256r1, rsa_pss_rsae_sha256, rsa_pkcs1_sha256
		0x0503, 0x0805, 0x0501,
		0x0806, 0x0601,
	}}
}

func firefoxSignatureAlgorithms() *tlsext.SignatureAlgorithms {
	return &tlsext.SignatureAlgorithms{Schemes: []uint16{
		0x0403, 0x0503, 0x0603,
		0x0804, 0x0805, 0x0806,
		0x0401, 0x0501, 0x0601,
		0x0203, 0x0201,
	}}
}

func safariSignatureAlgorithms() *tlsext.SignatureAlgorithms {
	return &tlsext.SignatureAlgorithms{Schemes: []uint16{
		0x0403, 0x0804, 0x0401,
		0x0503, 0x0805, 0x0501,
		0x0806, 0x0601, 0x0201,
	}}
}

func chromiumKeyShare() *tlsext.KeyShare {
	return &tlsext.KeyShare{Entries: []tlsext.KeyShareEntry{
		{Group: tlsext.GreasePlaceholder, Data: []byte{0}},
		{Group: tlsext.GroupX25519},
	}}
}

func firefoxKeyShare() *tlsext.KeyShare {
	return &tlsext.KeyShare{Entries: []tlsext.KeyShareEntry{
		{Group: tlsext.GroupX25519},
		{Group: tlsext.GroupP256},
	}}
}

// chromiumExtensions assembles the per-connection extension template
// shared by Chrome/Edge/Opera, parameterized by ALPS protocol set
// (Chrome and Edge advertise "h2"; some Opera builds omit ALPS).
func chromiumExtensions(withALPS bool) []tlsext.Extension {
	exts := []tlsext.Extension{
		&tlsext.GREASE{},
		&tlsext.SNI{},
		&tlsext.ExtendedMasterSecret{},
		&tlsext.RenegotiationInfo{},
		chromiumSupportedGroups(),
		&tlsext.ECPointFormats{Formats: []byte{0}},
		&tlsext.SessionTicket{},
		&tlsext.ALPN{Protocols: []string{"h2", "http/1.1"}},
		&tlsext.StatusRequest{},
		chromiumSignatureAlgorithms(),
		&tlsext.SCT{},
		chromiumKeyShare(),
		&tlsext.PSKKeyExchangeModes{Modes: []byte{1}},
		&tlsext.SupportedVersions{Versions: []uint16{
			tlsext.GreasePlaceholder, 0x0304, 0x0303, 0x0302, 0x0301,
		}},
		&tlsext.CompressCertificate{Algorithms: []uint16{2}}, // brotli
	}
	if withALPS {
		exts = append(exts, &tlsext.ApplicationSettings{Protocols: []string{"h2"}})
	}
	exts = append(exts,
		&tlsext.GREASEECH{Body: make([]byte, 32)},
		&tlsext.GREASE{},
		&tlsext.Padding{},
	)
	return exts
}

func firefoxExtensions() []tlsext.Extension {
	return []tlsext.Extension{
		&tlsext.SNI{},
		&tlsext.ExtendedMasterSecret{},
		&tlsext.RenegotiationInfo{},
		firefoxSupportedGroups(),
		&tlsext.ECPointFormats{Formats: []byte{0}},
		&tlsext.SessionTicket{},
		&tlsext.ALPN{Protocols: []string{"h2", "http/1.1"}},
		&tlsext.StatusRequest{},
		&tlsext.Opaque{Type: 0x0016}, // encrypt_then_mac
		firefoxKeyShare(),
		firefoxSignatureAlgorithms(),
		&tlsext.PSKKeyExchangeModes{Modes: []byte{1}},
		&tlsext.SupportedVersions{Versions: []uint16{0x0304, 0x0303}},
		&tlsext.CompressCertificate{Algorithms: []uint16{2}},
		&tlsext.Padding{},
	}
}

func safariExtensions() []tlsext.Extension {
	return []tlsext.Extension{
		&tlsext.SNI{},
		&tlsext.ExtendedMasterSecret{},
		&tlsext.RenegotiationInfo{},
		chromiumSupportedGroups(),
		&tlsext.ECPointFormats{Formats: []byte{0}},
		&tlsext.ALPN{Protocols: []string{"h2", "http/1.1"}},
		&tlsext.StatusRequest{},
		safariSignatureAlgorithms(),
		&tlsext.SCT{},
		chromiumKeyShare(),
		&tlsext.PSKKeyExchangeModes{Modes: []byte{1}},
		&tlsext.SupportedVersions{Versions: []uint16{
			tlsext.GreasePlaceholder, 0x0304, 0x0303,
		}},
		&tlsext.GREASE{},
		&tlsext.Padding{},
	}
}
