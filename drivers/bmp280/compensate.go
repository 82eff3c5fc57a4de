package bmp280

// calibration is the factory trimming block of one part.
type calibration struct {
	t1         uint16
	t2, t3     int16
	p1         uint16
	p2, p3, p4 int16
	p5, p6, p7 int16
	p8, p9     int16
}

// temperature runs the datasheet's 32-bit integer compensation. It
// returns hundredths of a degree and the t_fine carrier the pressure
// compensation needs.
func (c *calibration) temperature(adcT int32) (centi int32, tFine int32) {
	var1 := (((adcT >> 3) - (int32(c.t1) << 1)) * int32(c.t2)) >> 11
	var2 := (((((adcT >> 4) - int32(c.t1)) * ((adcT >> 4) - int32(c.t1))) >> 12) * int32(c.t3)) >> 14
	tFine = var1 + var2
	return (tFine*5 + 128) >> 8, tFine
}

// pressure runs the datasheet's 64-bit integer compensation and returns
// pressure in Q24.8 Pa (divide by 256 for Pa). Returns 0 when the
// trimming block would cause a division by zero.
func (c *calibration) pressure(adcP, tFine int32) int64 {
	var1 := int64(tFine) - 128000
	var2 := var1 * var1 * int64(c.p6)
	var2 += (var1 * int64(c.p5)) << 17
	var2 += int64(c.p4) << 35
	var1 = ((var1 * var1 * int64(c.p3)) >> 8) + ((var1 * int64(c.p2)) << 12)
	var1 = ((int64(1) << 47) + var1) * int64(c.p1) >> 33
	if var1 == 0 {
		return 0
	}
	p := int64(1048576) - int64(adcP)
	p = (((p << 31) - var2) * 3125) / var1
	var1 = (int64(c.p9) * (p >> 13) * (p >> 13)) >> 25
	var2 = (int64(c.p8) * p) >> 19
	return ((p + var1 + var2) >> 8) + (int64(c.p7) << 4)
}
