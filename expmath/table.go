package expmath

// fracPow2 holds round(2^64 * 2^-(1/2^i)) for i = 1..64. Multiplying the
// accumulator by entry i applies the i-th fractional bit of the exponent.
// Entries are indexed from 1; slot 0 is unused.
var fracPow2 = [65]uint64{
	0,
	0xb504f333f9de6484, // 2^-(1/2^1)
	0xd744fccad69d6af4, // 2^-(1/2^2)
	0xeac0c6e7dd24392f, // 2^-(1/2^3)
	0xf5257d152486cc2c, // 2^-(1/2^4)
	0xfa83b2db722a033a, // 2^-(1/2^5)
	0xfd3e0c0cf486c175, // 2^-(1/2^6)
	0xfe9e115c7b8f884c, // 2^-(1/2^7)
	0xff4ecb59511ec8a5, // 2^-(1/2^8)
	0xffa756521c8daed2, // 2^-(1/2^9)
	0xffd3a751c0f7e10c, // 2^-(1/2^10)
	0xffe9d2b2f7db2756, // 2^-(1/2^11)
	0xfff4e91bff1b8c3e, // 2^-(1/2^12)
	0xfffa747ea0040664, // 2^-(1/2^13)
	0xfffd3a3b7814eb54, // 2^-(1/2^14)
	0xfffe9d1cc60ddab1, // 2^-(1/2^15)
	0xffff4e8e25879bfa, // 2^-(1/2^16)
	0xffffa7470363f451, // 2^-(1/2^17)
	0xffffd3a37dda0313, // 2^-(1/2^18)
	0xffffe9d1bdf703af, // 2^-(1/2^19)
	0xfffff4e8debe025e, // 2^-(1/2^20)
	0xfffffa746f4fa150, // 2^-(1/2^21)
	0xfffffd3a37a3f8b0, // 2^-(1/2^22)
	0xfffffe9d1bd1065a, // 2^-(1/2^23)
	0xffffff4e8de845ae, // 2^-(1/2^24)
	0xffffffa746f41377, // 2^-(1/2^25)
	0xffffffd3a37a05e4, // 2^-(1/2^26)
	0xffffffe9d1bd01fc, // 2^-(1/2^27)
	0xfffffff4e8de80c0, // 2^-(1/2^28)
	0xfffffffa746f4051, // 2^-(1/2^29)
	0xfffffffd3a37a025, // 2^-(1/2^30)
	0xfffffffe9d1bd011, // 2^-(1/2^31)
	0xffffffff4e8de808, // 2^-(1/2^32)
	0xffffffffa746f404, // 2^-(1/2^33)
	0xffffffffd3a37a02, // 2^-(1/2^34)
	0xffffffffe9d1bd01, // 2^-(1/2^35)
	0xfffffffff4e8de81, // 2^-(1/2^36)
	0xfffffffffa746f40, // 2^-(1/2^37)
	0xfffffffffd3a37a0, // 2^-(1/2^38)
	0xfffffffffe9d1bd0, // 2^-(1/2^39)
	0xffffffffff4e8de8, // 2^-(1/2^40)
	0xffffffffffa746f4, // 2^-(1/2^41)
	0xffffffffffd3a37a, // 2^-(1/2^42)
	0xffffffffffe9d1bd, // 2^-(1/2^43)
	0xfffffffffff4e8df, // 2^-(1/2^44)
	0xfffffffffffa746f, // 2^-(1/2^45)
	0xfffffffffffd3a38, // 2^-(1/2^46)
	0xfffffffffffe9d1c, // 2^-(1/2^47)
	0xffffffffffff4e8e, // 2^-(1/2^48)
	0xffffffffffffa747, // 2^-(1/2^49)
	0xffffffffffffd3a3, // 2^-(1/2^50)
	0xffffffffffffe9d2, // 2^-(1/2^51)
	0xfffffffffffff4e9, // 2^-(1/2^52)
	0xfffffffffffffa74, // 2^-(1/2^53)
	0xfffffffffffffd3a, // 2^-(1/2^54)
	0xfffffffffffffe9d, // 2^-(1/2^55)
	0xffffffffffffff4f, // 2^-(1/2^56)
	0xffffffffffffffa7, // 2^-(1/2^57)
	0xffffffffffffffd4, // 2^-(1/2^58)
	0xffffffffffffffea, // 2^-(1/2^59)
	0xfffffffffffffff5, // 2^-(1/2^60)
	0xfffffffffffffffa, // 2^-(1/2^61)
	0xfffffffffffffffd, // 2^-(1/2^62)
	0xffffffffffffffff, // 2^-(1/2^63)
	0xffffffffffffffff, // 2^-(1/2^64)
}
