package s8

// CRC-16/MODBUS, table-driven, reflected polynomial 0xA001.
var crcTable [256]uint16

func init() {
	for i := range crcTable {
		c := uint16(i)
		for b := 0; b < 8; b++ {
			if c&1 != 0 {
				c = c>>1 ^ 0xA001
			} else {
				c >>= 1
			}
		}
		crcTable[i] = c
	}
}

func crc16(p []byte) uint16 {
	c := uint16(0xFFFF)
	for _, b := range p {
		c = c>>8 ^ crcTable[byte(c)^b]
	}
	return c
}
