// Package crcx holds the CRC16 used to check persisted records.
package crcx

// CRC16 computes CRC-16/MCRF4XX (CCITT polynomial, reflected, init 0xFFFF).
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
