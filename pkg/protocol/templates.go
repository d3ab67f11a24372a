package protocol

// Control message templates. All values are opaque vendor constants captured
// from working camera sessions.
var (
	discoverTemplate = []byte{
		0x00, 0x00, 0xb0, 0x02, 0x82, 0x00, 0x00, 0x27, 0x00, 0x01, 0x00, 0x00,
		0x00, 0x4d, 0x61, 0x63, 0x49, 0x50, 0x3d, 0x42, 0x43, 0x2d, 0x41, 0x45,
		0x2d, 0x43, 0x35, 0x2d, 0x37, 0x43, 0x2d, 0x37, 0x37, 0x2d, 0x37, 0x42,
		0x2b, 0x31, 0x36, 0x34, 0x36, 0x37, 0x3b,
	}

	statusRequest1Template = []byte{
		0x00, 0x00, 0xd0, 0x00, 0x82, 0x00, 0x06, 0x09, 0x00, 0x01, 0x00, 0x00,
		0x00,
	}

	statusRequest2Template = []byte{
		0x00, 0x00, 0xd0, 0x00, 0xa2, 0x00, 0x06, 0x09, 0x00, 0x01, 0x00, 0x00,
		0x00,
	}

	statusRequest3Template = []byte{
		0x00, 0x00, 0xd0, 0x00, 0x62, 0x00, 0x06, 0x09, 0x00, 0x01, 0x00, 0x00,
		0x00,
	}

	streamSetup1Template = []byte{
		0x01, 0x00, 0x40, 0x0d, 0x32, 0x00, 0x00, 0xd0, 0x00, 0x51, 0x01, 0x00,
		0x00, 0x69, 0x64, 0xd4, 0xd8, 0xd8, 0xd2, 0x8f, 0x9d, 0xa7, 0xd9, 0xd4,
		0x9f, 0x80, 0x8d, 0x8c, 0x86, 0xc7, 0x9f, 0x8b, 0xbf, 0x80, 0x8d, 0x8c,
		0x86, 0xc7, 0xa4, 0xb9, 0xac, 0xae, 0xdd, 0xd2, 0x8f, 0x9d, 0xa7, 0xd8,
		0xd4, 0x87, 0x8c, 0x9d, 0xc7, 0xd9, 0xd2, 0x8f, 0x9d, 0xa7, 0xdb, 0xd4,
		0xa1, 0xa2, 0xb9, 0xaa, 0xb9, 0x9b, 0x8c, 0x9a, 0x8c, 0x87, 0x9d, 0xc7,
		0xa1, 0xa2, 0xb9, 0xaa, 0xb9, 0x9b, 0x8c, 0x9a, 0x8c, 0x87, 0x9d, 0xd2,
		0x86, 0x99, 0xa7, 0xdb, 0xd4, 0xdc, 0x98, 0x8d, 0xdf, 0xa6, 0xa3, 0xdf,
		0xda, 0xda, 0xdf, 0xde, 0x8f, 0x8f, 0x8f, 0xd2, 0xaa, 0x88, 0x85, 0x85,
		0x80, 0x8d, 0xd4, 0xdd, 0x85, 0x90, 0xd9, 0x81, 0x8f, 0xdc, 0x82, 0xd8,
		0xde, 0xa8, 0xd9, 0xd9, 0xae, 0xb3, 0xd8, 0xd0, 0x8f, 0xda, 0x85, 0xdc,
		0xde, 0xad, 0x8a, 0xdf, 0xda, 0xda, 0xdf, 0xd9, 0x8f, 0x8f, 0xd9, 0xd2,
		0x9a, 0x80, 0x8d, 0xa7, 0xd4, 0xdc, 0x98, 0x8d, 0xdf, 0xa6, 0xa3, 0xdf,
		0xda, 0xda, 0xdf, 0xde, 0x8f, 0x8f, 0x8f, 0xd2, 0xa8, 0x9a, 0xaa, 0x86,
		0x8d, 0x8c, 0xd4, 0xda, 0xda, 0xde, 0xd2, 0xa4, 0x88, 0x80, 0x87, 0xaa,
		0x84, 0x8d, 0xd4, 0xa1, 0xa2, 0xb6, 0xbb, 0xac, 0xba, 0xb6, 0xbb, 0xac,
		0xb8, 0xd2, 0x9c, 0x9a, 0x8c, 0x9b, 0xd4, 0xd8, 0xd0, 0xdb, 0xc7, 0xd8,
		0xdf, 0xd1, 0xc7, 0xd9, 0xc7, 0xda, 0xda, 0xd2,
	}

	streamSetup2Template = []byte{
		0x00, 0x00, 0x20, 0x02, 0x12, 0x00, 0x00, 0x1e, 0x00, 0x01, 0x00, 0x00,
		0x00, 0xa0, 0xaa, 0xa4, 0xad, 0xd4, 0xd8, 0xd2, 0xba, 0xac, 0xb8, 0xd4,
		0xd8, 0xd2, 0xbd, 0xa0, 0xa4, 0xac, 0xd4, 0xd9, 0xd2, 0xe9,
	}

	streamSetup3Template = []byte{
		0x02, 0x00, 0x70, 0x07, 0x32, 0x00, 0x00, 0x73, 0x00, 0x64, 0x00, 0x00,
		0x00, 0x4d, 0x61, 0x80, 0x87, 0xaa, 0x84, 0x8d, 0xd4, 0xba, 0x8c, 0x9a,
		0x9a, 0x80, 0x86, 0x87, 0xba, 0x9d, 0x88, 0x9b, 0x9d, 0xd2, 0x9a, 0x80,
		0x8d, 0xa7, 0xd4, 0xdc, 0x98, 0x8d, 0xdf, 0xa6, 0xa3, 0xdf, 0xda, 0xda,
		0xdf, 0xde, 0x8f, 0x8f, 0x8f, 0xd2, 0x8f, 0x9d, 0xa7, 0xd9, 0xd4, 0xa1,
		0xa2, 0xb9, 0xaa, 0xb9, 0x9b, 0x8c, 0x9a, 0x8c, 0x87, 0x9d, 0xc7, 0xa1,
		0xa2, 0xb9, 0xaa, 0xb9, 0x9b, 0x8c, 0x9a, 0x8c, 0x87, 0x9d, 0xd2, 0xaf,
		0xad, 0xd9, 0xd4, 0xdb, 0xdc, 0xd8, 0xdd, 0xd0, 0xdb, 0xd1, 0xd1, 0xd2,
		0x8f, 0x9d, 0xa7, 0xd8, 0xd4, 0x87, 0x8c, 0x9d, 0xc7, 0xd8, 0xd9, 0xdb,
		0xdc, 0xd2, 0xaf, 0xad, 0xd8, 0xd4, 0xd8, 0xd9, 0xdb, 0xdc, 0xd2,
	}
)

// Keepalive packet framing. Bytes 2 and 7 of the prefix depend on the number
// of encoded digits and are patched by KeepAlivePrefix.
var (
	keepAlivePrefixTemplate = []byte{
		0x00, 0x00, 0xff, 0x02, 0x12, 0x00, 0x00, 0xff, 0x00, 0x01, 0x00, 0x00,
		0x00, 0xa0, 0xaa, 0xa4, 0xad, 0xd4, 0xd8, 0xd2, 0xba, 0xac, 0xb8, 0xd4,
	}

	keepAliveTrailer = []byte{
		0xd2, 0xbd, 0xa0, 0xa4, 0xac, 0xd4, 0xd9, 0xd2, 0xe9,
	}
)

// DigitSymbols is the symbol table for every keepalive digit above the least
// significant one.
var DigitSymbols = [10]byte{
	0xd9, 0xd8, 0xdb, 0xda, 0xdd, 0xdc, 0xdf, 0xde, 0xd1, 0xd0,
}

// LowSymbols is the symbol table for the least significant keepalive digit.
// The digit toggles inside a two-symbol window starting at the current base
// offset.
var LowSymbols = [20]byte{
	0xd8, 0xdf, 0xdb, 0xde, 0xda, 0xd1, 0xdd, 0xd0, 0xdc, 0xd9, 0xdf, 0xd8,
	0xde, 0xdb, 0xd1, 0xda, 0xd0, 0xdd, 0xd9, 0xdc,
}
